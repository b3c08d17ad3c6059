// Package participant implements the participant registry: stakes, the
// active flag, epoch signups and the time-weighted average holdings
// accumulator of every account that ever staked.
package participant

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors returned by system action handlers.
var (
	ErrInsufficientStake    = errors.New("participant: stake below minimum")
	ErrNotActiveParticipant = errors.New("participant: must be active participant")
	ErrAlreadySignedUp      = errors.New("participant: already signed up for next epoch")
	ErrSignupDisabled       = errors.New("participant: signup disabled in legacy admission mode")
	ErrSystemAddress        = errors.New("participant: system addresses cannot participate")
)

// Record is the registry view of one participant.
type Record struct {
	Address     common.Address `json:"address"`
	Stake       *big.Int       `json:"stake"`
	Active      bool           `json:"active"`
	SignedUpFor uint64         `json:"signedUpFor"` // epoch number of the latest signup
}
