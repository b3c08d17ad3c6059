// Package bridge implements the bridge gatekeeper: per-user and global
// per-epoch caps on DUMP moved across the bridge.
package bridge

import (
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	ErrBridgeLimitExceeded = errors.New("bridge: transfer limit exceeded")
	ErrZeroAmount          = errors.New("bridge: amount must be positive")
)

var gatekeeper = params.BridgeGatekeeperAddress

func epochTotalSlot(epoch uint64) common.Hash {
	return slots.Indexed("bridge\x00epochTotal", epoch)
}

func userTotalSlot(user common.Address, epoch uint64) common.Hash {
	return slots.Field(user, "bridge\x00"+strconv.FormatUint(epoch, 10))
}

// EpochTransferStats returns the DUMP bridged during epoch.
func EpochTransferStats(db slots.StateReader, epoch uint64) *big.Int {
	return slots.ReadAmount(db, gatekeeper, epochTotalSlot(epoch))
}

// UserEpochTotal returns the DUMP user bridged during epoch.
func UserEpochTotal(db slots.StateReader, user common.Address, epoch uint64) *big.Int {
	return slots.ReadAmount(db, gatekeeper, userTotalSlot(user, epoch))
}

// CanTransfer reports whether bridging amount for user in epoch stays
// within both limits.
func CanTransfer(db slots.StateReader, cfg *params.GameConfig, epoch uint64, user common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	userTotal := new(big.Int).Add(UserEpochTotal(db, user, epoch), amount)
	if userTotal.Cmp(cfg.BridgeUserEpochLimit) > 0 {
		return false
	}
	total := new(big.Int).Add(EpochTransferStats(db, epoch), amount)
	return total.Cmp(cfg.BridgeEpochLimit) <= 0
}

func record(db slots.StateWriter, epoch uint64, user common.Address, amount *big.Int) {
	slots.AddAmount(db, gatekeeper, userTotalSlot(user, epoch), amount)
	slots.AddAmount(db, gatekeeper, epochTotalSlot(epoch), amount)
}
