package dump

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/feepot"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/pricing"
	"github.com/tos-network/dumpglory/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&dumpHandler{})
}

// dumpHandler implements sysaction.Handler for the DUMP ledger actions.
type dumpHandler struct{}

func (h *dumpHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionStake,
		sysaction.ActionTransfer,
		sysaction.ActionSteal,
		sysaction.ActionApplyDemurrage,
		sysaction.ActionResetCooldown,
		sysaction.ActionAllocate:
		return true
	}
	return false
}

func (h *dumpHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionStake:
		return h.handleStake(ctx, sa)
	case sysaction.ActionTransfer:
		return h.handleTransfer(ctx, sa)
	case sysaction.ActionSteal:
		return h.handleSteal(ctx, sa)
	case sysaction.ActionApplyDemurrage:
		return h.handleApplyDemurrage(ctx, sa)
	case sysaction.ActionResetCooldown:
		return h.handleResetCooldown(ctx, sa)
	case sysaction.ActionAllocate:
		return h.handleAllocate(ctx, sa)
	}
	return nil
}

// Activates reports whether a stake placed at ep makes the staker active.
func Activates(cfg *params.GameConfig, ep epoch.State, signedUpFor uint64) bool {
	if cfg.Admission == params.AdmissionLegacy {
		return true
	}
	if ep.Number == 1 && ep.Phase == epoch.Active {
		return true
	}
	return ep.Number > 0 && signedUpFor == ep.Number
}

func (h *dumpHandler) handleStake(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.AmountPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	ep := epoch.Read(ctx.StateDB)
	if ep.Phase == epoch.Uninitialized {
		return epoch.ErrNotInitialized
	}
	if params.IsSystemAddress(ctx.From) {
		return participant.ErrSystemAddress
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	total := new(big.Int).Add(participant.ReadStake(ctx.StateDB, ctx.From), p.Amount)
	if total.Cmp(ctx.Config.MinimumStake) < 0 {
		return participant.ErrInsufficientStake
	}
	if CurrentBalance(ctx.StateDB, ctx.Config, ctx.From, ctx.Time).Cmp(p.Amount) < 0 {
		return ErrInsufficientBalance
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	Touch(ctx.StateDB, ctx.Config, ep, ctx.From, ctx.Time)
	debit(ctx.StateDB, ctx.From, p.Amount)
	participant.Register(ctx.StateDB, ctx.From)
	stake := participant.AddStake(ctx.StateDB, ctx.From, p.Amount)
	if Activates(ctx.Config, ep, participant.SignedUpFor(ctx.StateDB, ctx.From)) {
		participant.SetActive(ctx.StateDB, ctx.From, true)
	}
	log.Debug("dump: staked", "addr", ctx.From, "amount", p.Amount, "stake", stake)
	return nil
}

// checkParties runs the gating shared by transfer and theft.
func checkParties(ctx *sysaction.Context, ep epoch.State, a, b common.Address) error {
	if !participant.IsActive(ctx.StateDB, a) || !participant.IsActive(ctx.StateDB, b) {
		return participant.ErrNotActiveParticipant
	}
	return ep.RequireActive()
}

func (h *dumpHandler) handleTransfer(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TransferPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if p.To == ctx.From {
		return ErrSelfTransfer
	}
	ep := epoch.Read(ctx.StateDB)
	if err := checkParties(ctx, ep, ctx.From, p.To); err != nil {
		return err
	}
	if ctx.Time < ReadCooldowns(ctx.StateDB, ctx.From).Give {
		return ErrGiveCooldownActive
	}
	if CurrentBalance(ctx.StateDB, ctx.Config, ctx.From, ctx.Time).Cmp(p.Amount) < 0 {
		return ErrInsufficientBalance
	}
	fee := pricing.TransferFee(p.Amount, ctx.Config.TransferFeeBps)
	received := new(big.Int).Sub(p.Amount, fee)
	cooldownEnd := pricing.CooldownEnd(ctx.Time, pricing.ComputeCooldown(p.Amount, ctx.Config.CooldownBase))

	// ── Mutation phase ───────────────────────────────────────────────────────
	Touch(ctx.StateDB, ctx.Config, ep, ctx.From, ctx.Time)
	Touch(ctx.StateDB, ctx.Config, ep, p.To, ctx.Time)
	debit(ctx.StateDB, ctx.From, p.Amount)
	credit(ctx.StateDB, p.To, received)
	withdrawToPot(ctx.StateDB, fee)
	feepot.Collect(ctx.StateDB, fee)
	setGiveCooldown(ctx.StateDB, ctx.From, cooldownEnd)
	setTakeCooldown(ctx.StateDB, p.To, cooldownEnd)
	log.Debug("dump: transfer", "from", ctx.From, "to", p.To, "amount", p.Amount, "fee", fee, "until", cooldownEnd)
	return nil
}

func (h *dumpHandler) handleSteal(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.StealPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if p.Victim == ctx.From {
		return ErrSelfTheft
	}
	ep := epoch.Read(ctx.StateDB)
	if err := checkParties(ctx, ep, ctx.From, p.Victim); err != nil {
		return err
	}
	if ctx.Time < ReadCooldowns(ctx.StateDB, ctx.From).Theft {
		return ErrTheftCooldownActive
	}
	if CurrentBalance(ctx.StateDB, ctx.Config, p.Victim, ctx.Time).Cmp(p.Amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining := ep.TimeRemaining(ctx.Time, ctx.Config.EpochDuration)
	cost, err := pricing.CalculateTheftCost(p.Amount, remaining, ctx.Config.EpochDuration, ctx.Config.TheftBaseBps)
	if err != nil {
		return err
	}
	fee := pricing.TransferFee(p.Amount, ctx.Config.TransferFeeBps)
	// net = amount - fee - cost, may be negative
	net := new(big.Int).Sub(p.Amount, fee)
	net.Sub(net, cost)
	thiefAfter := new(big.Int).Add(CurrentBalance(ctx.StateDB, ctx.Config, ctx.From, ctx.Time), net)
	if thiefAfter.Sign() < 0 {
		return ErrInsufficientBalance
	}
	cooldownEnd := pricing.CooldownEnd(ctx.Time, pricing.ComputeTheftCooldown(p.Amount, ctx.Config.TheftCooldownBase))

	// ── Mutation phase ───────────────────────────────────────────────────────
	Touch(ctx.StateDB, ctx.Config, ep, ctx.From, ctx.Time)
	Touch(ctx.StateDB, ctx.Config, ep, p.Victim, ctx.Time)
	debit(ctx.StateDB, p.Victim, p.Amount)
	setBalance(ctx.StateDB, ctx.From, thiefAfter)
	taken := new(big.Int).Add(fee, cost)
	withdrawToPot(ctx.StateDB, taken)
	feepot.Collect(ctx.StateDB, taken)
	setTheftCooldown(ctx.StateDB, ctx.From, cooldownEnd)
	log.Debug("dump: theft", "thief", ctx.From, "victim", p.Victim, "amount", p.Amount, "cost", cost, "fee", fee)
	return nil
}

func (h *dumpHandler) handleApplyDemurrage(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.AddressPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	ep := epoch.Read(ctx.StateDB)
	if ep.Phase == epoch.Uninitialized {
		return epoch.ErrNotInitialized
	}
	Touch(ctx.StateDB, ctx.Config, ep, p.Address, ctx.Time)
	return nil
}

func (h *dumpHandler) handleResetCooldown(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.AddressPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	ResetCooldowns(ctx.StateDB, p.Address)
	log.Info("Cooldowns reset", "addr", p.Address)
	return nil
}

func (h *dumpHandler) handleAllocate(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.TransferPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if p.To == (common.Address{}) || params.IsSystemAddress(p.To) {
		return ErrInvalidRecipient
	}
	if p.To == ctx.From {
		return ErrSelfTransfer
	}
	ep := epoch.Read(ctx.StateDB)
	if ep.Phase == epoch.Uninitialized {
		return epoch.ErrNotInitialized
	}
	if CurrentBalance(ctx.StateDB, ctx.Config, ctx.From, ctx.Time).Cmp(p.Amount) < 0 {
		return ErrInsufficientBalance
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	Touch(ctx.StateDB, ctx.Config, ep, ctx.From, ctx.Time)
	Touch(ctx.StateDB, ctx.Config, ep, p.To, ctx.Time)
	debit(ctx.StateDB, ctx.From, p.Amount)
	credit(ctx.StateDB, p.To, p.Amount)
	log.Debug("dump: allocated", "to", p.To, "amount", p.Amount)
	return nil
}
