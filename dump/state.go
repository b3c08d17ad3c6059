package dump

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/pricing"
	"github.com/tos-network/dumpglory/slots"
)

var (
	ledger = params.DumpLedgerAddress

	totalSupplySlot = slots.Named("dump\x00totalSupply")
	totalBurnedSlot = slots.Named("dump\x00totalBurned")
	totalMintedSlot = slots.Named("dump\x00totalMinted")
)

func balanceSlot(addr common.Address) common.Hash { return slots.Field(addr, "balance") }
func lastDecaySlot(addr common.Address) common.Hash { return slots.Field(addr, "lastDemurrage") }

// ReadBalance returns the stored balance of addr, before pending demurrage.
func ReadBalance(db slots.StateReader, addr common.Address) *big.Int {
	return slots.ReadAmount(db, ledger, balanceSlot(addr))
}

// LastDemurrageTime returns when demurrage was last applied to addr.
func LastDemurrageTime(db slots.StateReader, addr common.Address) uint64 {
	return slots.ReadUint64(db, ledger, lastDecaySlot(addr))
}

// CurrentBalance projects the balance of addr at now with pending demurrage
// applied, without mutating state.
func CurrentBalance(db slots.StateReader, cfg *params.GameConfig, addr common.Address, now uint64) *big.Int {
	stored := ReadBalance(db, addr)
	if params.IsSystemAddress(addr) {
		return stored
	}
	last := LastDemurrageTime(db, addr)
	if now <= last {
		return stored
	}
	return pricing.Decay(stored, now-last, cfg.DemurrageBpsPerDay)
}

func TotalSupply(db slots.StateReader) *big.Int { return slots.ReadAmount(db, ledger, totalSupplySlot) }
func TotalBurned(db slots.StateReader) *big.Int { return slots.ReadAmount(db, ledger, totalBurnedSlot) }
func TotalMinted(db slots.StateReader) *big.Int { return slots.ReadAmount(db, ledger, totalMintedSlot) }

// ReadCooldowns returns the cooldown timestamps of addr.
func ReadCooldowns(db slots.StateReader, addr common.Address) Cooldowns {
	return Cooldowns{
		Give:  slots.ReadUint64(db, ledger, slots.Field(addr, "giveCooldownEnd")),
		Take:  slots.ReadUint64(db, ledger, slots.Field(addr, "takeCooldownEnd")),
		Theft: slots.ReadUint64(db, ledger, slots.Field(addr, "theftCooldownEnd")),
	}
}

func setGiveCooldown(db slots.StateWriter, addr common.Address, end uint64) {
	slots.WriteUint64(db, ledger, slots.Field(addr, "giveCooldownEnd"), end)
}

func setTakeCooldown(db slots.StateWriter, addr common.Address, end uint64) {
	slots.WriteUint64(db, ledger, slots.Field(addr, "takeCooldownEnd"), end)
}

func setTheftCooldown(db slots.StateWriter, addr common.Address, end uint64) {
	slots.WriteUint64(db, ledger, slots.Field(addr, "theftCooldownEnd"), end)
}

// ResetCooldowns zeroes every cooldown of addr.
func ResetCooldowns(db slots.StateWriter, addr common.Address) {
	setGiveCooldown(db, addr, 0)
	setTakeCooldown(db, addr, 0)
	setTheftCooldown(db, addr, 0)
}

func setBalance(db slots.StateWriter, addr common.Address, bal *big.Int) {
	slots.WriteAmount(db, ledger, balanceSlot(addr), bal)
}

// Touch applies pending demurrage to addr at now, burns the decayed amount
// and folds the holding into the participant's average accumulator. It
// returns the resulting balance. Calling it twice at the same instant is a
// no-op the second time.
func Touch(db slots.StateWriter, cfg *params.GameConfig, ep epoch.State, addr common.Address, now uint64) *big.Int {
	stored := ReadBalance(db, addr)
	if params.IsSystemAddress(addr) {
		return stored
	}
	last := LastDemurrageTime(db, addr)
	if now <= last {
		return stored
	}
	decayed := pricing.Decay(stored, now-last, cfg.DemurrageBpsPerDay)
	if ep.Phase != epoch.Uninitialized {
		participant.Accumulate(db, addr, stored, decayed, now, ep.StartTime, ep.EndTime(cfg.EpochDuration))
	}
	if burned := new(big.Int).Sub(stored, decayed); burned.Sign() > 0 {
		setBalance(db, addr, decayed)
		slots.SubAmount(db, ledger, totalSupplySlot, burned)
		slots.AddAmount(db, ledger, totalBurnedSlot, burned)
		log.Trace("dump: applied demurrage", "addr", addr, "burned", burned, "balance", decayed)
	}
	slots.WriteUint64(db, ledger, lastDecaySlot(addr), now)
	return decayed
}

// AverageHeld returns the time-weighted average balance of addr over the
// current epoch up to now.
func AverageHeld(db slots.StateReader, cfg *params.GameConfig, ep epoch.State, addr common.Address, now uint64) *big.Int {
	stored := ReadBalance(db, addr)
	current := CurrentBalance(db, cfg, addr, now)
	return participant.Average(db, addr, stored, current, now, ep.StartTime, ep.EndTime(cfg.EpochDuration))
}

// Mint creates amount DUMP in the liquid balance of addr.
func Mint(db slots.StateWriter, addr common.Address, amount *big.Int, now uint64) {
	setBalance(db, addr, new(big.Int).Add(ReadBalance(db, addr), amount))
	if LastDemurrageTime(db, addr) < now {
		slots.WriteUint64(db, ledger, lastDecaySlot(addr), now)
	}
	slots.AddAmount(db, ledger, totalSupplySlot, amount)
	slots.AddAmount(db, ledger, totalMintedSlot, amount)
}

// Burn destroys the whole stored balance of addr and returns the amount.
func Burn(db slots.StateWriter, addr common.Address) *big.Int {
	bal := ReadBalance(db, addr)
	if bal.Sign() == 0 {
		return bal
	}
	setBalance(db, addr, new(big.Int))
	slots.SubAmount(db, ledger, totalSupplySlot, bal)
	slots.AddAmount(db, ledger, totalBurnedSlot, bal)
	return bal
}

// debit removes amount from the stored balance of addr. The balance must
// already be touched and checked.
func debit(db slots.StateWriter, addr common.Address, amount *big.Int) {
	setBalance(db, addr, new(big.Int).Sub(ReadBalance(db, addr), amount))
}

func credit(db slots.StateWriter, addr common.Address, amount *big.Int) {
	setBalance(db, addr, new(big.Int).Add(ReadBalance(db, addr), amount))
}

// withdrawToPot takes amount out of circulation into the fee pot.
func withdrawToPot(db slots.StateWriter, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	slots.SubAmount(db, ledger, totalSupplySlot, amount)
}
