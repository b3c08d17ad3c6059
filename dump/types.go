// Package dump implements the DUMP ledger: demurrage-decaying balances,
// gameplay transfers with fee and cooldown, and theft.
package dump

import "errors"

// Sentinel errors returned by system action handlers.
var (
	ErrGiveCooldownActive  = errors.New("dump: give cooldown active")
	ErrTheftCooldownActive = errors.New("dump: theft cooldown active")
	ErrInsufficientBalance = errors.New("dump: insufficient balance")
	ErrZeroAmount          = errors.New("dump: amount must be positive")
	ErrSelfTransfer        = errors.New("dump: cannot transfer to self")
	ErrSelfTheft           = errors.New("dump: cannot steal from self")
	ErrInvalidRecipient    = errors.New("dump: invalid recipient")
)

// Cooldowns are the cooldown end timestamps (unix seconds) of an account.
type Cooldowns struct {
	Give  uint64 `json:"give"`
	Take  uint64 `json:"take"`
	Theft uint64 `json:"theft"`
}
