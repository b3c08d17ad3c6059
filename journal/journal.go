// Package journal implements the append-only action journal: every action
// the engine applied, in order, with its outcome and the resulting state
// root. Entries are RLP encoded and kept in a LevelDB database.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// ErrNotFound is returned when an entry is not in the journal.
	ErrNotFound = errors.New("journal: entry not found")

	entryPrefix = []byte("e")
	headKey     = []byte("head")
)

// Entry is one applied action.
type Entry struct {
	Seq    uint64
	Time   uint64
	From   common.Address
	Nonce  uint64
	Value  *big.Int
	Action string
	Data   []byte
	Root   common.Hash // state root after the action
	Err    string      // empty on success
}

// Failed reports whether the action was rejected.
func (e *Entry) Failed() bool { return e.Err != "" }

// Journal is a LevelDB backed action log. It is safe for concurrent use.
type Journal struct {
	db   *leveldb.DB
	mu   sync.Mutex
	next uint64
}

// Open opens or creates a journal at path.
func Open(path string, cache int, handles int) (*Journal, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return newJournal(db)
}

// NewMemory returns a journal that lives in memory.
func NewMemory() *Journal {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err)
	}
	j, err := newJournal(db)
	if err != nil {
		panic(err)
	}
	return j
}

func newJournal(db *leveldb.DB) (*Journal, error) {
	j := &Journal{db: db}
	head, err := db.Get(headKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("journal: read head: %w", err)
	case len(head) == 8:
		j.next = binary.BigEndian.Uint64(head)
	default:
		db.Close()
		return nil, fmt.Errorf("journal: corrupt head (%d bytes)", len(head))
	}
	log.Debug("Opened action journal", "entries", j.next)
	return j, nil
}

func entryKey(seq uint64) []byte {
	key := make([]byte, len(entryPrefix)+8)
	copy(key, entryPrefix)
	binary.BigEndian.PutUint64(key[len(entryPrefix):], seq)
	return key
}

// Append assigns the next sequence number to e and stores it.
func (j *Journal) Append(e *Entry) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e.Seq = j.next
	if e.Value == nil {
		e.Value = new(big.Int)
	}
	blob, err := rlp.EncodeToBytes(e)
	if err != nil {
		return 0, fmt.Errorf("journal: encode entry: %w", err)
	}
	var head [8]byte
	binary.BigEndian.PutUint64(head[:], e.Seq+1)

	batch := new(leveldb.Batch)
	batch.Put(entryKey(e.Seq), blob)
	batch.Put(headKey, head[:])
	if err := j.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("journal: write entry %d: %w", e.Seq, err)
	}
	j.next++
	return e.Seq, nil
}

// Len returns the number of entries.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Get returns entry seq.
func (j *Journal) Get(seq uint64) (*Entry, error) {
	blob, err := j.db.Get(entryKey(seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(blob)
}

func decode(blob []byte) (*Entry, error) {
	e := new(Entry)
	if err := rlp.DecodeBytes(blob, e); err != nil {
		return nil, fmt.Errorf("journal: decode entry: %w", err)
	}
	return e, nil
}

// Range returns up to limit entries starting at seq from.
func (j *Journal) Range(from uint64, limit int) ([]*Entry, error) {
	it := j.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer it.Release()

	var out []*Entry
	for ok := it.Seek(entryKey(from)); ok && len(out) < limit; ok = it.Next() {
		e, err := decode(it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, it.Error()
}

// Last returns the most recent n entries, oldest first.
func (j *Journal) Last(n int) ([]*Entry, error) {
	total := j.Len()
	from := uint64(0)
	if uint64(n) < total {
		from = total - uint64(n)
	}
	return j.Range(from, n)
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
