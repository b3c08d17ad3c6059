// Package glory implements the GLORY reputation token: balances, the bug
// bounty reserve carved from its supply, and the per-epoch leaderboard
// snapshots taken when an epoch is finalized.
package glory

import "errors"

// Sentinel errors returned by system action handlers.
var (
	ErrInsufficientBalance = errors.New("glory: insufficient balance")
	ErrZeroAmount          = errors.New("glory: amount must be positive")
	ErrInvalidRecipient    = errors.New("glory: invalid recipient")
	ErrAlreadyMinted       = errors.New("glory: genesis supply already minted")
	ErrBurnExceedsSupply   = errors.New("glory: burn exceeds circulating supply")
)
