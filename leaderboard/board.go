// Package leaderboard implements the ranking index of participants by their
// epoch score. Entries are kept in an indexable skip list ordered ascending
// by score, with ties broken by first insertion. Zero scores are never
// stored.
package leaderboard

import (
	"math/big"
	"math/rand"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Entry is a ranked participant.
type Entry struct {
	Address common.Address `json:"address"`
	Score   *big.Int       `json:"score"`
}

// Board is the in-memory leaderboard. It is safe for concurrent use.
type Board struct {
	mu     sync.RWMutex
	head   *node
	tail   *node
	level  int
	length int
	index  map[common.Address]*node // address → node
	seq    uint64
	rnd    *rand.Rand
}

// New creates an empty Board. The seed drives node level selection only and
// never affects ordering.
func New(seed int64) *Board {
	b := &Board{rnd: rand.New(rand.NewSource(seed))}
	b.reset()
	return b
}

func (b *Board) reset() {
	b.head = &node{levels: make([]link, maxLevel)}
	b.tail = nil
	b.level = 1
	b.length = 0
	b.index = make(map[common.Address]*node)
}

// Reset removes every entry.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// Record inserts, moves or removes addr so that it ranks by score. A score
// of zero (or below) removes the entry. An entry that moves keeps its
// original insertion order for tie-breaking.
func (b *Board) Record(addr common.Address, score *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.index[addr]
	if score == nil || score.Sign() <= 0 {
		if ok {
			b.unlink(n)
			delete(b.index, addr)
		}
		return
	}
	score = new(big.Int).Set(score)
	if ok {
		if n.score.Cmp(score) == 0 {
			return
		}
		seq := n.seq
		b.unlink(n)
		b.index[addr] = b.insert(addr, score, seq)
		return
	}
	b.seq++
	b.index[addr] = b.insert(addr, score, b.seq)
}

// Remove deletes addr from the board.
func (b *Board) Remove(addr common.Address) {
	b.Record(addr, nil)
}

// Len returns the number of ranked entries.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.length
}

// Score returns the score of addr, or nil if it is not ranked.
func (b *Board) Score(addr common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n, ok := b.index[addr]; ok {
		return new(big.Int).Set(n.score)
	}
	return nil
}

// Rank returns the 0-based ascending position of addr, or -1 if absent.
func (b *Board) Rank(addr common.Address) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.index[addr]
	if !ok {
		return -1
	}
	return b.rankOf(n) - 1
}

// At returns the entry at 0-based ascending position i.
func (b *Board) At(i int) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= b.length {
		return Entry{}, false
	}
	n := b.byRank(i + 1)
	if n == nil {
		return Entry{}, false
	}
	return Entry{Address: n.addr, Score: new(big.Int).Set(n.score)}, true
}

// Ranked returns every address in ascending score order.
func (b *Board) Ranked() []common.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]common.Address, 0, b.length)
	for x := b.head.levels[0].next; x != nil; x = x.levels[0].next {
		out = append(out, x.addr)
	}
	return out
}

// Entries returns every entry in ascending score order.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, 0, b.length)
	for x := b.head.levels[0].next; x != nil; x = x.levels[0].next {
		out = append(out, Entry{Address: x.addr, Score: new(big.Int).Set(x.score)})
	}
	return out
}

// Top returns up to n entries with the highest scores, best first.
func (b *Board) Top(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n > b.length {
		n = b.length
	}
	out := make([]Entry, 0, n)
	for x := b.tail; x != nil && len(out) < n; x = x.backward {
		out = append(out, Entry{Address: x.addr, Score: new(big.Int).Set(x.score)})
	}
	return out
}
