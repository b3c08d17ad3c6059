package game

import (
	"errors"
	"math/big"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/dump"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/feepot"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/sysaction"
)

var (
	// ErrInsufficientFunds is returned when the caller cannot pay the native
	// value it attached.
	ErrInsufficientFunds = errors.New("game: insufficient funds for value")
	// ErrNoEntropy is returned when rollover runs without a randomness source.
	ErrNoEntropy = errors.New("game: no entropy source")
)

func init() {
	sysaction.DefaultRegistry.Register(&lifecycleHandler{})
}

// lifecycleHandler implements sysaction.Handler for the epoch transitions
// and signups.
type lifecycleHandler struct{}

func (h *lifecycleHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionSignup, sysaction.ActionFinalizeEpoch, sysaction.ActionStartNextEpoch:
		return true
	}
	return false
}

func (h *lifecycleHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionSignup:
		return h.handleSignup(ctx)
	case sysaction.ActionFinalizeEpoch:
		return h.handleFinalize(ctx)
	case sysaction.ActionStartNextEpoch:
		return h.handleStartNext(ctx)
	}
	return nil
}

func (h *lifecycleHandler) handleSignup(ctx *sysaction.Context) error {
	// ── Validation phase (no state writes) ───────────────────────────────────
	if ctx.Config.Legacy() {
		return participant.ErrSignupDisabled
	}
	ep := epoch.Read(ctx.StateDB)
	switch ep.Phase {
	case epoch.Uninitialized:
		return epoch.ErrNotInitialized
	case epoch.Active:
		return epoch.ErrSignupClosed
	}
	if params.IsSystemAddress(ctx.From) {
		return participant.ErrSystemAddress
	}
	if participant.ReadStake(ctx.StateDB, ctx.From).Cmp(ctx.Config.MinimumStake) < 0 {
		return participant.ErrInsufficientStake
	}
	next := ep.Number + 1
	if participant.SignedUpFor(ctx.StateDB, ctx.From) == next {
		return participant.ErrAlreadySignedUp
	}
	fee := ep.RequiredJoinFee(ctx.Time, ctx.Config.BaseJoinFee, ctx.Config.MaxJoinFee)
	if ctx.Value.Cmp(fee) < 0 {
		return epoch.ErrInsufficientFee
	}
	if ctx.StateDB.GetBalance(ctx.From).Cmp(ctx.Value) < 0 {
		return ErrInsufficientFunds
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	ctx.StateDB.SubBalance(ctx.From, ctx.Value)
	ctx.StateDB.AddBalance(params.FeePotAddress, ctx.Value)
	feepot.RecordJoinFee(ctx.StateDB, ctx.Value)
	participant.SetSignedUpFor(ctx.StateDB, ctx.From, next)
	log.Debug("Signed up for epoch", "addr", ctx.From, "epoch", next, "fee", ctx.Value, "required", fee)
	return nil
}

func (h *lifecycleHandler) handleFinalize(ctx *sysaction.Context) error {
	// ── Validation phase (no state writes) ───────────────────────────────────
	ep := epoch.Read(ctx.StateDB)
	if err := ep.CheckFinalize(ctx.Time, ctx.Config.EpochDuration); err != nil {
		return err
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	all := participant.All(ctx.StateDB)
	ranked := 0
	for _, addr := range all {
		score := new(big.Int)
		if participant.IsActive(ctx.StateDB, addr) {
			dump.Touch(ctx.StateDB, ctx.Config, ep, addr, ctx.Time)
			score = dump.AverageHeld(ctx.StateDB, ctx.Config, ep, addr, ctx.Time)
		}
		if ctx.Board != nil {
			ctx.Board.Record(addr, score)
		}
		if score.Sign() > 0 {
			ranked++
		}
	}
	if ctx.Board != nil {
		glory.WriteSnapshot(ctx.StateDB, ep.Number, ctx.Board.Entries())
	}
	epoch.Finalize(ctx.StateDB, ep, ctx.Time, ctx.Config.WaitingPeriod)
	log.Info("Epoch finalized", "epoch", ep.Number, "participants", len(all), "ranked", ranked)
	return nil
}

func (h *lifecycleHandler) handleStartNext(ctx *sysaction.Context) error {
	// ── Validation phase (no state writes) ───────────────────────────────────
	ep := epoch.Read(ctx.StateDB)
	if err := ep.CheckStartNext(ctx.Time); err != nil {
		return err
	}
	if ctx.Entropy == nil {
		return ErrNoEntropy
	}
	next := ep.Number + 1
	all := participant.All(ctx.StateDB)
	signups := mapset.NewSet()
	var winners []common.Address
	for _, addr := range all {
		if ctx.Config.Legacy() {
			if participant.IsActive(ctx.StateDB, addr) {
				signups.Add(addr)
			}
		} else if participant.SignedUpFor(ctx.StateDB, addr) == next {
			signups.Add(addr)
		}
		if signups.Contains(addr) {
			winners = append(winners, addr)
		}
	}
	shares := splitSupply(ctx.Config.EpochSupply, next, winners, ctx.Entropy)

	// ── Mutation phase ───────────────────────────────────────────────────────
	started := epoch.StartNext(ctx.StateDB, ep, ctx.Time)
	burned := new(big.Int)
	for _, addr := range all {
		burned.Add(burned, dump.Burn(ctx.StateDB, addr))
		dump.ResetCooldowns(ctx.StateDB, addr)
		participant.ResetAverage(ctx.StateDB, addr, started.StartTime)
		participant.SetActive(ctx.StateDB, addr, signups.Contains(addr))
	}
	minted := new(big.Int)
	for i, addr := range winners {
		dump.Mint(ctx.StateDB, addr, shares[i], ctx.Time)
		minted.Add(minted, shares[i])
	}
	log.Info("Epoch started", "epoch", started.Number, "active", len(winners), "inactive", len(all)-len(winners), "burned", burned, "minted", minted)
	return nil
}
