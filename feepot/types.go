// Package feepot implements the fee pot: it collects transfer fees, theft
// costs and join fees, and periodically buys back and burns GLORY with the
// collected DUMP through an external swap venue.
package feepot

import (
	"errors"
	"math/big"
)

// Sentinel errors returned by system action handlers.
var (
	ErrEmergencyPaused  = errors.New("feepot: emergency paused")
	ErrNothingToBuyback = errors.New("feepot: nothing to buy back")
	ErrNoSwapper        = errors.New("feepot: no swap venue configured")
	ErrSwapFailed       = errors.New("feepot: swap failed")
)

// Status is the fee pot's public state.
type Status struct {
	TotalFeesCollected *big.Int `json:"totalFeesCollected"`
	TotalGloryBurned   *big.Int `json:"totalGloryBurned"`
	Pending            *big.Int `json:"pending"` // DUMP awaiting buyback
	JoinFees           *big.Int `json:"joinFees"`
	EmergencyPaused    bool     `json:"emergencyPaused"`
	LastBuyback        uint64   `json:"lastBuyback"`
	BuybackCount       uint64   `json:"buybackCount"`
}
