package leaderboard

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	maxLevel    = 32
	levelFactor = 4 // one in levelFactor nodes is promoted a level
)

type link struct {
	next *node
	span int // number of level-0 steps this link skips
}

type node struct {
	addr     common.Address
	score    *big.Int
	seq      uint64
	backward *node
	levels   []link
}

// before reports whether n sorts ahead of (score, seq): lower score first,
// then earlier insertion.
func (n *node) before(score *big.Int, seq uint64) bool {
	if c := n.score.Cmp(score); c != 0 {
		return c < 0
	}
	return n.seq < seq
}

func (b *Board) randomLevel() int {
	level := 1
	for level < maxLevel && b.rnd.Intn(levelFactor) == 0 {
		level++
	}
	return level
}

// insert links a new node. The caller guarantees addr is absent.
func (b *Board) insert(addr common.Address, score *big.Int, seq uint64) *node {
	var (
		update [maxLevel]*node
		rank   [maxLevel]int
	)
	x := b.head
	for i := b.level - 1; i >= 0; i-- {
		if i < b.level-1 {
			rank[i] = rank[i+1]
		}
		for x.levels[i].next != nil && x.levels[i].next.before(score, seq) {
			rank[i] += x.levels[i].span
			x = x.levels[i].next
		}
		update[i] = x
	}
	level := b.randomLevel()
	if level > b.level {
		for i := b.level; i < level; i++ {
			rank[i] = 0
			update[i] = b.head
			update[i].levels[i].span = b.length
		}
		b.level = level
	}
	n := &node{addr: addr, score: score, seq: seq, levels: make([]link, level)}
	for i := 0; i < level; i++ {
		n.levels[i].next = update[i].levels[i].next
		update[i].levels[i].next = n
		n.levels[i].span = update[i].levels[i].span - (rank[0] - rank[i])
		update[i].levels[i].span = rank[0] - rank[i] + 1
	}
	for i := level; i < b.level; i++ {
		update[i].levels[i].span++
	}
	if update[0] != b.head {
		n.backward = update[0]
	}
	if n.levels[0].next != nil {
		n.levels[0].next.backward = n
	} else {
		b.tail = n
	}
	b.length++
	return n
}

// unlink removes n from every level.
func (b *Board) unlink(n *node) {
	var update [maxLevel]*node
	x := b.head
	for i := b.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && x.levels[i].next.before(n.score, n.seq) {
			x = x.levels[i].next
		}
		update[i] = x
	}
	for i := 0; i < b.level; i++ {
		if update[i].levels[i].next == n {
			update[i].levels[i].span += n.levels[i].span - 1
			update[i].levels[i].next = n.levels[i].next
		} else {
			update[i].levels[i].span--
		}
	}
	if n.levels[0].next != nil {
		n.levels[0].next.backward = n.backward
	} else {
		b.tail = n.backward
	}
	for b.level > 1 && b.head.levels[b.level-1].next == nil {
		b.level--
	}
	b.length--
}

// rankOf returns the 1-based position of n.
func (b *Board) rankOf(n *node) int {
	rank := 0
	x := b.head
	for i := b.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && (x.levels[i].next == n || x.levels[i].next.before(n.score, n.seq)) {
			rank += x.levels[i].span
			x = x.levels[i].next
		}
		if x == n {
			return rank
		}
	}
	return 0
}

// byRank returns the node at 1-based position rank.
func (b *Board) byRank(rank int) *node {
	traversed := 0
	x := b.head
	for i := b.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && traversed+x.levels[i].span <= rank {
			traversed += x.levels[i].span
			x = x.levels[i].next
		}
		if traversed == rank {
			return x
		}
	}
	return nil
}
