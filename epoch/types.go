// Package epoch implements the epoch clock: the epoch number, the phase
// (waiting for signups or active game) and the phase transition timing.
package epoch

import "errors"

// Phase is the lifecycle phase of the current epoch.
type Phase uint8

const (
	// Uninitialized is the zero value before genesis.
	Uninitialized Phase = 0
	// Waiting is the signup window between two active epochs.
	Waiting Phase = 1
	// Active means gameplay operations are accepted.
	Active Phase = 2
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "WAITING"
	case Active:
		return "ACTIVE"
	}
	return "UNINITIALIZED"
}

// Sentinel errors returned by epoch transitions.
var (
	ErrEpochNotReady         = errors.New("epoch: epoch time remaining is not zero")
	ErrEpochAlreadyFinalized = errors.New("epoch: epoch already finalized")
	ErrWaitingPeriodNotOver  = errors.New("epoch: waiting period not over")
	ErrEpochActive           = errors.New("epoch: epoch is active")
	ErrGameNotStarted        = errors.New("epoch: game not started")
	ErrSignupClosed          = errors.New("epoch: signup is only open while waiting")
	ErrInsufficientFee       = errors.New("epoch: insufficient join fee")
	ErrNotInitialized        = errors.New("epoch: clock not initialized")
)

// State is the current epoch's working state.
type State struct {
	Number           uint64 `json:"number"`
	Phase            Phase  `json:"phase"`
	StartTime        uint64 `json:"startTime"`        // start of the ACTIVE phase
	PhaseStart       uint64 `json:"phaseStart"`       // start of the WAITING phase
	WaitingPeriodEnd uint64 `json:"waitingPeriodEnd"` // earliest startNextEpoch
}

// Info is the immutable record of a past or current epoch.
type Info struct {
	Number      uint64 `json:"number"`
	StartTime   uint64 `json:"startTime"`
	EndTime     uint64 `json:"endTime"`
	FinalizedAt uint64 `json:"finalizedAt"` // zero while the epoch is running
}
