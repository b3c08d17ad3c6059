package game

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/sysaction"
)

// due returns the epoch transition that may be applied now, or "" if none.
func (e *Engine) due() sysaction.ActionKind {
	var kind sysaction.ActionKind
	e.view(func(now uint64) {
		ep := epoch.Read(e.state)
		switch {
		case ep.CheckFinalize(now, e.rules.EpochDuration) == nil:
			kind = sysaction.ActionFinalizeEpoch
		case ep.CheckStartNext(now) == nil:
			kind = sysaction.ActionStartNextEpoch
		}
	})
	return kind
}

// Tick applies the epoch transition that is due at the current time on
// behalf of the owner. It returns the applied kind, or "" when nothing was
// due.
func (e *Engine) Tick() (sysaction.ActionKind, error) {
	kind := e.due()
	if kind == "" {
		return "", nil
	}
	data, err := sysaction.MakeSysAction(kind, nil)
	if err != nil {
		return kind, err
	}
	_, err = e.Apply(Message{From: e.rules.Owner, Data: data})
	return kind, err
}

// RunKeeper calls Tick every interval until ctx is cancelled.
func (e *Engine) RunKeeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Epoch keeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("Epoch keeper stopped")
			return nil
		case <-ticker.C:
			kind, err := e.Tick()
			switch {
			case err != nil:
				log.Warn("Epoch transition failed", "action", kind, "err", err)
			case kind != "":
				log.Info("Epoch transition applied", "action", kind, "epoch", e.CurrentEpoch())
			}
		}
	}
}
