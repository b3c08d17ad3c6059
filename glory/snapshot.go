package glory

import (
	"strconv"

	"github.com/tos-network/dumpglory/leaderboard"
	"github.com/tos-network/dumpglory/slots"
)

var lastSnapshotSlot = slots.Named("glory\x00lastSnapshot")

func snapshotBase(epoch uint64) string {
	return "glory\x00snapshot\x00" + strconv.FormatUint(epoch, 10)
}

// WriteSnapshot persists the final ranking of an epoch, ascending by score.
func WriteSnapshot(db slots.StateWriter, epoch uint64, entries []leaderboard.Entry) {
	ns := snapshotBase(epoch)
	for i, e := range entries {
		slots.WriteAddress(db, token, slots.Indexed(ns+"\x00addr", uint64(i)), e.Address)
		slots.WriteAmount(db, token, slots.Indexed(ns+"\x00score", uint64(i)), e.Score)
	}
	slots.WriteUint64(db, token, slots.Named(ns+"\x00count"), uint64(len(entries)))
	slots.WriteUint64(db, token, lastSnapshotSlot, epoch)
}

// ReadSnapshot returns the persisted ranking of epoch, or nil if the epoch
// was never finalized.
func ReadSnapshot(db slots.StateReader, epoch uint64) []leaderboard.Entry {
	ns := snapshotBase(epoch)
	n := slots.ReadUint64(db, token, slots.Named(ns+"\x00count"))
	if n == 0 {
		return nil
	}
	out := make([]leaderboard.Entry, n)
	for i := uint64(0); i < n; i++ {
		out[i] = leaderboard.Entry{
			Address: slots.ReadAddress(db, token, slots.Indexed(ns+"\x00addr", i)),
			Score:   slots.ReadAmount(db, token, slots.Indexed(ns+"\x00score", i)),
		}
	}
	return out
}

// LastSnapshotEpoch returns the most recently finalized epoch, 0 if none.
func LastSnapshotEpoch(db slots.StateReader) uint64 {
	return slots.ReadUint64(db, token, lastSnapshotSlot)
}
