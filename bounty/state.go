package bounty

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	ledger = params.BugBountyAddress

	countSlot = slots.Named("bounty\x00count")
)

// field returns the slot of a scalar report field.
func field(id uint64, name string) common.Hash {
	return slots.Indexed("bounty\x00"+name, id)
}

// blob returns the base slot of a variable length report field.
func blob(id uint64, name string) common.Hash {
	return slots.Named("bounty\x00" + name + "\x00" + strconv.FormatUint(id, 10))
}

func paidCountSlot(addr common.Address) common.Hash { return slots.Field(addr, "bountiesPaid") }

// Count returns the number of reports ever submitted.
func Count(db slots.StateReader) uint64 {
	return slots.ReadUint64(db, ledger, countSlot)
}

// Exists reports whether id names a submitted report.
func Exists(db slots.StateReader, id uint64) bool {
	return id >= 1 && id <= Count(db)
}

// IDs returns all report ids in submission order.
func IDs(db slots.StateReader) []uint64 {
	n := Count(db)
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = uint64(i) + 1
	}
	return ids
}

// Read returns report id. The caller checks Exists.
func Read(db slots.StateReader, id uint64) Report {
	r := Report{
		ID:             id,
		Reporter:       slots.ReadAddress(db, ledger, field(id, "reporter")),
		Severity:       Severity(slots.ReadUint64(db, ledger, field(id, "severity"))).String(),
		Description:    string(slots.ReadBytes(db, ledger, blob(id, "description"))),
		ProofOfConcept: string(slots.ReadBytes(db, ledger, blob(id, "poc"))),
		Verified:       slots.ReadBool(db, ledger, field(id, "verified")),
		Paid:           slots.ReadBool(db, ledger, field(id, "paid")),
		Rejected:       slots.ReadBool(db, ledger, field(id, "rejected")),
		BountyAmount:   slots.ReadAmount(db, ledger, field(id, "bounty")),
		SubmittedAt:    slots.ReadUint64(db, ledger, field(id, "submittedAt")),
	}
	if r.Rejected {
		r.RejectReason = string(slots.ReadBytes(db, ledger, blob(id, "reason")))
	}
	return r
}

func severityOf(db slots.StateReader, id uint64) Severity {
	return Severity(slots.ReadUint64(db, ledger, field(id, "severity")))
}

// ReporterTotalBounties returns how many of addr's reports were paid out.
func ReporterTotalBounties(db slots.StateReader, addr common.Address) uint64 {
	return slots.ReadUint64(db, ledger, paidCountSlot(addr))
}

func submit(db slots.StateWriter, reporter common.Address, sev Severity, desc, poc []byte, now uint64) uint64 {
	id := Count(db) + 1
	slots.WriteAddress(db, ledger, field(id, "reporter"), reporter)
	slots.WriteUint64(db, ledger, field(id, "severity"), uint64(sev))
	slots.WriteBytes(db, ledger, blob(id, "description"), desc)
	slots.WriteBytes(db, ledger, blob(id, "poc"), poc)
	slots.WriteUint64(db, ledger, field(id, "submittedAt"), now)
	slots.WriteUint64(db, ledger, countSlot, id)
	return id
}

func verify(db slots.StateWriter, id uint64, bounty *big.Int) {
	slots.WriteAmount(db, ledger, field(id, "bounty"), bounty)
	slots.WriteBool(db, ledger, field(id, "verified"), true)
}

func markPaid(db slots.StateWriter, id uint64, reporter common.Address) {
	slots.WriteBool(db, ledger, field(id, "paid"), true)
	slots.WriteUint64(db, ledger, paidCountSlot(reporter), ReporterTotalBounties(db, reporter)+1)
}

func reject(db slots.StateWriter, id uint64, reason []byte) {
	slots.WriteAmount(db, ledger, field(id, "bounty"), new(big.Int))
	slots.WriteBool(db, ledger, field(id, "verified"), true)
	slots.WriteBool(db, ledger, field(id, "paid"), true)
	slots.WriteBool(db, ledger, field(id, "rejected"), true)
	slots.WriteBytes(db, ledger, blob(id, "reason"), reason)
}
