package feepot

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/slots"
	"github.com/tos-network/dumpglory/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&feePotHandler{})
}

// feePotHandler implements sysaction.Handler for buyback and pause control.
type feePotHandler struct{}

func (h *feePotHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionExecuteBuyback, sysaction.ActionSetEmergencyPause:
		return true
	}
	return false
}

func (h *feePotHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionExecuteBuyback:
		return h.handleBuyback(ctx)
	case sysaction.ActionSetEmergencyPause:
		return h.handleSetPause(ctx, sa)
	}
	return nil
}

func (h *feePotHandler) handleBuyback(ctx *sysaction.Context) error {
	// ── Validation phase (no state writes) ───────────────────────────────────
	if EmergencyPaused(ctx.StateDB) {
		return ErrEmergencyPaused
	}
	pending := Pending(ctx.StateDB)
	if pending.Sign() == 0 {
		return ErrNothingToBuyback
	}
	if ctx.Swapper == nil {
		return ErrNoSwapper
	}
	burned, err := ctx.Swapper.SwapForGlory(pending)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	if err := slots.CheckAmount(burned); err != nil {
		return fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	if err := glory.CheckBurn(ctx.StateDB, burned); err != nil {
		return err
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	settleBuyback(ctx.StateDB, burned, ctx.Time)
	log.Info("Executed fee pot buyback", "dump", pending, "gloryBurned", burned)
	return nil
}

func (h *feePotHandler) handleSetPause(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.PausePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	setEmergencyPaused(ctx.StateDB, p.Paused)
	log.Warn("Fee pot emergency pause changed", "paused", p.Paused)
	return nil
}
