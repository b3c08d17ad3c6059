package epoch

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	numberSlot     = slots.Named("epoch\x00number")
	phaseSlot      = slots.Named("epoch\x00phase")
	startTimeSlot  = slots.Named("epoch\x00startTime")
	phaseStartSlot = slots.Named("epoch\x00phaseStart")
	waitingEndSlot = slots.Named("epoch\x00waitingPeriodEnd")
)

func historySlot(field string, n uint64) common.Hash {
	return slots.Indexed("epoch\x00history\x00"+field, n)
}

// Read loads the current epoch state.
func Read(db slots.StateReader) State {
	owner := params.EpochClockAddress
	return State{
		Number:           slots.ReadUint64(db, owner, numberSlot),
		Phase:            Phase(slots.ReadUint64(db, owner, phaseSlot)),
		StartTime:        slots.ReadUint64(db, owner, startTimeSlot),
		PhaseStart:       slots.ReadUint64(db, owner, phaseStartSlot),
		WaitingPeriodEnd: slots.ReadUint64(db, owner, waitingEndSlot),
	}
}

func write(db slots.StateWriter, s State) {
	owner := params.EpochClockAddress
	slots.WriteUint64(db, owner, numberSlot, s.Number)
	slots.WriteUint64(db, owner, phaseSlot, uint64(s.Phase))
	slots.WriteUint64(db, owner, startTimeSlot, s.StartTime)
	slots.WriteUint64(db, owner, phaseStartSlot, s.PhaseStart)
	slots.WriteUint64(db, owner, waitingEndSlot, s.WaitingPeriodEnd)
}

// Init starts epoch 1 in the ACTIVE phase at genesisTime.
func Init(db slots.StateWriter, genesisTime uint64) {
	write(db, State{Number: 1, Phase: Active, StartTime: genesisTime})
	slots.WriteUint64(db, params.EpochClockAddress, historySlot("start", 1), genesisTime)
}

// ReadInfo returns the recorded timing of epoch n, or a bare Info for an
// epoch that has not started.
func ReadInfo(db slots.StateReader, n uint64, duration uint64) Info {
	if n == 0 || n > Read(db).Number {
		return Info{Number: n}
	}
	owner := params.EpochClockAddress
	start := slots.ReadUint64(db, owner, historySlot("start", n))
	return Info{
		Number:      n,
		StartTime:   start,
		EndTime:     start + duration,
		FinalizedAt: slots.ReadUint64(db, owner, historySlot("finalizedAt", n)),
	}
}

// EndTime returns the end of the ACTIVE phase.
func (s State) EndTime(duration uint64) uint64 {
	return s.StartTime + duration
}

// TimeRemaining returns the seconds left in the ACTIVE phase, zero while
// waiting.
func (s State) TimeRemaining(now, duration uint64) uint64 {
	if s.Phase != Active {
		return 0
	}
	end := s.EndTime(duration)
	if now >= end {
		return 0
	}
	return end - now
}

// RequireActive gates gameplay operations.
func (s State) RequireActive() error {
	switch s.Phase {
	case Active:
		return nil
	case Uninitialized:
		return ErrNotInitialized
	}
	return ErrGameNotStarted
}

// RequiredJoinFee returns the signup fee at now: linear from base at the
// start of the waiting phase to max at its end, clamped at max afterwards.
func (s State) RequiredJoinFee(now uint64, base, maxFee *big.Int) *big.Int {
	if s.Phase != Waiting {
		return new(big.Int).Set(base)
	}
	if now <= s.PhaseStart {
		return new(big.Int).Set(base)
	}
	if now >= s.WaitingPeriodEnd || s.WaitingPeriodEnd <= s.PhaseStart {
		return new(big.Int).Set(maxFee)
	}
	fee := new(big.Int).Sub(maxFee, base)
	fee.Mul(fee, new(big.Int).SetUint64(now-s.PhaseStart))
	fee.Quo(fee, new(big.Int).SetUint64(s.WaitingPeriodEnd-s.PhaseStart))
	return fee.Add(fee, base)
}

// CheckFinalize validates an ACTIVE → WAITING transition.
func (s State) CheckFinalize(now, duration uint64) error {
	switch s.Phase {
	case Uninitialized:
		return ErrNotInitialized
	case Waiting:
		return ErrEpochAlreadyFinalized
	}
	if s.TimeRemaining(now, duration) != 0 {
		return ErrEpochNotReady
	}
	return nil
}

// CheckStartNext validates a WAITING → ACTIVE transition.
func (s State) CheckStartNext(now uint64) error {
	switch s.Phase {
	case Uninitialized:
		return ErrNotInitialized
	case Active:
		return ErrEpochActive
	}
	if now < s.WaitingPeriodEnd {
		return ErrWaitingPeriodNotOver
	}
	return nil
}

// Finalize moves the clock into the WAITING phase. Preconditions are checked
// by CheckFinalize.
func Finalize(db slots.StateWriter, s State, now, waitingPeriod uint64) State {
	s.Phase = Waiting
	s.PhaseStart = now
	s.WaitingPeriodEnd = now + waitingPeriod
	write(db, s)
	slots.WriteUint64(db, params.EpochClockAddress, historySlot("finalizedAt", s.Number), now)
	return s
}

// StartNext opens the next epoch's ACTIVE phase at now. Preconditions are
// checked by CheckStartNext.
func StartNext(db slots.StateWriter, s State, now uint64) State {
	s.Number++
	s.Phase = Active
	s.StartTime = now
	write(db, s)
	slots.WriteUint64(db, params.EpochClockAddress, historySlot("start", s.Number), now)
	return s
}
