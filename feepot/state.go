package feepot

import (
	"math/big"

	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	pot = params.FeePotAddress

	totalFeesSlot    = slots.Named("feepot\x00totalFeesCollected")
	totalBurnedSlot  = slots.Named("feepot\x00totalGloryBurned")
	pendingSlot      = slots.Named("feepot\x00pending")
	joinFeesSlot     = slots.Named("feepot\x00joinFees")
	pausedSlot       = slots.Named("feepot\x00emergencyPaused")
	lastBuybackSlot  = slots.Named("feepot\x00lastBuyback")
	buybackCountSlot = slots.Named("feepot\x00buybackCount")
)

// Collect adds DUMP withheld by the ledger to the pot.
func Collect(db slots.StateWriter, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	slots.AddAmount(db, pot, totalFeesSlot, amount)
	slots.AddAmount(db, pot, pendingSlot, amount)
}

// RecordJoinFee accounts a native signup fee already credited to the pot's
// account balance.
func RecordJoinFee(db slots.StateWriter, amount *big.Int) {
	slots.AddAmount(db, pot, joinFeesSlot, amount)
}

func TotalFeesCollected(db slots.StateReader) *big.Int {
	return slots.ReadAmount(db, pot, totalFeesSlot)
}

func TotalGloryBurned(db slots.StateReader) *big.Int {
	return slots.ReadAmount(db, pot, totalBurnedSlot)
}

func Pending(db slots.StateReader) *big.Int {
	return slots.ReadAmount(db, pot, pendingSlot)
}

func EmergencyPaused(db slots.StateReader) bool {
	return slots.ReadBool(db, pot, pausedSlot)
}

func setEmergencyPaused(db slots.StateWriter, paused bool) {
	slots.WriteBool(db, pot, pausedSlot, paused)
}

// Read returns the full fee pot status.
func Read(db slots.StateReader) Status {
	return Status{
		TotalFeesCollected: TotalFeesCollected(db),
		TotalGloryBurned:   TotalGloryBurned(db),
		Pending:            Pending(db),
		JoinFees:           slots.ReadAmount(db, pot, joinFeesSlot),
		EmergencyPaused:    EmergencyPaused(db),
		LastBuyback:        slots.ReadUint64(db, pot, lastBuybackSlot),
		BuybackCount:       slots.ReadUint64(db, pot, buybackCountSlot),
	}
}

// settleBuyback empties the pending pot and burns the GLORY it bought.
func settleBuyback(db slots.StateWriter, burned *big.Int, now uint64) {
	glory.BurnSupply(db, burned)
	slots.WriteAmount(db, pot, pendingSlot, new(big.Int))
	slots.AddAmount(db, pot, totalBurnedSlot, burned)
	slots.WriteUint64(db, pot, lastBuybackSlot, now)
	slots.WriteUint64(db, pot, buybackCountSlot, slots.ReadUint64(db, pot, buybackCountSlot)+1)
}
