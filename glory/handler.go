package glory

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&gloryHandler{})
}

// gloryHandler implements sysaction.Handler for GLORY_TRANSFER.
type gloryHandler struct{}

func (h *gloryHandler) CanHandle(kind sysaction.ActionKind) bool {
	return kind == sysaction.ActionGloryTransfer
}

func (h *gloryHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
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
	if BalanceOf(ctx.StateDB, ctx.From).Cmp(p.Amount) < 0 {
		return ErrInsufficientBalance
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	Move(ctx.StateDB, ctx.From, p.To, p.Amount)
	log.Debug("glory: transfer", "from", ctx.From, "to", p.To, "amount", p.Amount)
	return nil
}
