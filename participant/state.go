package participant

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	registry = params.ParticipantRegistryAddress

	// countSlot stores the number of ever-registered addresses (uint64).
	countSlot = slots.Named("participant\x00count")
)

// listSlot returns the slot for the i-th registered address (0-based). The
// list is append-only; inactive participants stay listed.
func listSlot(i uint64) common.Hash {
	return slots.Indexed("participant\x00list", i)
}

// Count returns the number of registered addresses.
func Count(db slots.StateReader) uint64 {
	return slots.ReadUint64(db, registry, countSlot)
}

// At returns the i-th registered address.
func At(db slots.StateReader, i uint64) common.Address {
	return slots.ReadAddress(db, registry, listSlot(i))
}

// All returns every registered address in registration order.
func All(db slots.StateReader) []common.Address {
	n := Count(db)
	out := make([]common.Address, 0, n)
	for i := uint64(0); i < n; i++ {
		out = append(out, At(db, i))
	}
	return out
}

// IsRegistered reports whether addr has ever staked.
func IsRegistered(db slots.StateReader, addr common.Address) bool {
	return slots.ReadBool(db, registry, slots.Field(addr, "registered"))
}

// Register appends addr to the list on first sight and reports whether it
// was new.
func Register(db slots.StateWriter, addr common.Address) bool {
	if IsRegistered(db, addr) {
		return false
	}
	n := Count(db)
	slots.WriteAddress(db, registry, listSlot(n), addr)
	slots.WriteUint64(db, registry, countSlot, n+1)
	slots.WriteBool(db, registry, slots.Field(addr, "registered"), true)
	return true
}

// ReadStake returns the locked stake of addr.
func ReadStake(db slots.StateReader, addr common.Address) *big.Int {
	return slots.ReadAmount(db, registry, slots.Field(addr, "stake"))
}

// AddStake increases the locked stake of addr.
func AddStake(db slots.StateWriter, addr common.Address, amount *big.Int) *big.Int {
	return slots.AddAmount(db, registry, slots.Field(addr, "stake"), amount)
}

// IsActive reports whether addr may take part in gameplay this epoch.
func IsActive(db slots.StateReader, addr common.Address) bool {
	return slots.ReadBool(db, registry, slots.Field(addr, "active"))
}

// SetActive writes the active flag of addr.
func SetActive(db slots.StateWriter, addr common.Address, active bool) {
	slots.WriteBool(db, registry, slots.Field(addr, "active"), active)
}

// SignedUpFor returns the epoch number addr last signed up for.
func SignedUpFor(db slots.StateReader, addr common.Address) uint64 {
	return slots.ReadUint64(db, registry, slots.Field(addr, "signup"))
}

// SetSignedUpFor records a signup of addr for epoch n.
func SetSignedUpFor(db slots.StateWriter, addr common.Address, n uint64) {
	slots.WriteUint64(db, registry, slots.Field(addr, "signup"), n)
}

// Read returns the registry record of addr.
func Read(db slots.StateReader, addr common.Address) Record {
	return Record{
		Address:     addr,
		Stake:       ReadStake(db, addr),
		Active:      IsActive(db, addr),
		SignedUpFor: SignedUpFor(db, addr),
	}
}

// --- average holdings ---

func integralSlot(addr common.Address) common.Hash { return slots.Field(addr, "avgIntegral") }
func lastSlot(addr common.Address) common.Hash     { return slots.Field(addr, "avgLast") }

// stampSlot holds the start time of the epoch the integral belongs to.
func stampSlot(addr common.Address) common.Hash { return slots.Field(addr, "avgEpoch") }

// integral returns the accumulated balance-seconds of addr for the epoch
// starting at start. An integral stamped with another epoch reads as zero.
func integral(db slots.StateReader, addr common.Address, start uint64) *big.Int {
	if slots.ReadUint64(db, registry, stampSlot(addr)) != start {
		return new(big.Int)
	}
	return slots.ReadAmount(db, registry, integralSlot(addr))
}

// window clips [from, now] to the epoch's [start, end].
func window(from, now, start, end uint64) (uint64, uint64) {
	if from < start {
		from = start
	}
	if now > end {
		now = end
	}
	return from, now
}

// pending returns the balance-seconds held between the last accumulation and
// now, using the mean of the balance before and after decay.
func pending(db slots.StateReader, addr common.Address, before, after *big.Int, now, start, end uint64) (*big.Int, uint64) {
	t0, t1 := window(slots.ReadUint64(db, registry, lastSlot(addr)), now, start, end)
	if t1 <= t0 {
		return new(big.Int), t1
	}
	area := new(big.Int).Add(before, after)
	area.Mul(area, new(big.Int).SetUint64(t1-t0))
	return area.Rsh(area, 1), t1
}

// Accumulate folds the holding of addr since the last accumulation into its
// running balance×time integral. before and after are the stored balance
// and its demurrage-decayed value at now.
func Accumulate(db slots.StateWriter, addr common.Address, before, after *big.Int, now, start, end uint64) {
	area, t := pending(db, addr, before, after, now, start, end)
	if slots.ReadUint64(db, registry, stampSlot(addr)) != start {
		slots.WriteAmount(db, registry, integralSlot(addr), area)
		slots.WriteUint64(db, registry, stampSlot(addr), start)
	} else if area.Sign() > 0 {
		slots.AddAmount(db, registry, integralSlot(addr), area)
	}
	if t > slots.ReadUint64(db, registry, lastSlot(addr)) {
		slots.WriteUint64(db, registry, lastSlot(addr), t)
	}
}

// Average returns the time-weighted average holding of addr over the epoch
// so far, projecting the current (not yet accumulated) holding. It is zero
// when no epoch time has elapsed.
func Average(db slots.StateReader, addr common.Address, before, after *big.Int, now, start, end uint64) *big.Int {
	if now > end {
		now = end
	}
	if now <= start {
		return new(big.Int)
	}
	area, _ := pending(db, addr, before, after, now, start, end)
	area.Add(area, integral(db, addr, start))
	return area.Quo(area, new(big.Int).SetUint64(now-start))
}

// ResetAverage clears the accumulator of addr for an epoch starting at start.
func ResetAverage(db slots.StateWriter, addr common.Address, start uint64) {
	slots.WriteAmount(db, registry, integralSlot(addr), new(big.Int))
	slots.WriteUint64(db, registry, lastSlot(addr), start)
	slots.WriteUint64(db, registry, stampSlot(addr), start)
}
