package game

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/tos-network/dumpglory/sysaction"
)

var (
	applyTimer   = metrics.NewRegisteredTimer("game/apply", nil)
	invalidMeter = metrics.NewRegisteredMeter("game/actions/invalid", nil)

	// read-only after init
	actionCounters = make(map[sysaction.ActionKind][2]metrics.Counter)
)

func init() {
	for _, kind := range sysaction.AllKinds {
		actionCounters[kind] = [2]metrics.Counter{
			metrics.NewRegisteredCounterForced("game/actions/"+string(kind)+"/ok", nil),
			metrics.NewRegisteredCounterForced("game/actions/"+string(kind)+"/failed", nil),
		}
	}
}

func markAction(kind sysaction.ActionKind, err error) {
	c, ok := actionCounters[kind]
	if !ok {
		invalidMeter.Mark(1)
		return
	}
	if err != nil {
		c[1].Inc(1)
		return
	}
	c[0].Inc(1)
}

// ActionCount returns how many actions of kind succeeded and failed.
func ActionCount(kind sysaction.ActionKind) (ok, failed int64) {
	c, known := actionCounters[kind]
	if !known {
		return 0, 0
	}
	return c[0].Count(), c[1].Count()
}
