package bridge

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&bridgeHandler{})
}

// bridgeHandler implements sysaction.Handler for BRIDGE_RECORD.
type bridgeHandler struct{}

func (h *bridgeHandler) CanHandle(kind sysaction.ActionKind) bool {
	return kind == sysaction.ActionBridgeRecord
}

func (h *bridgeHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if ctx.From != ctx.Config.Bridge {
		return sysaction.ErrUnauthorized
	}
	var p sysaction.BridgeRecordPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	ep := epoch.Read(ctx.StateDB)
	if ep.Phase == epoch.Uninitialized {
		return epoch.ErrNotInitialized
	}
	if !CanTransfer(ctx.StateDB, ctx.Config, ep.Number, p.User, p.Amount) {
		return ErrBridgeLimitExceeded
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	record(ctx.StateDB, ep.Number, p.User, p.Amount)
	log.Debug("bridge: recorded transfer", "user", p.User, "amount", p.Amount, "epoch", ep.Number)
	return nil
}
