package leaderboard

import (
	"math/big"
	"math/rand"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tAddr(b byte) common.Address { return common.Address{b} }

func TestRecordOrdersAscending(t *testing.T) {
	b := New(1)
	b.Record(tAddr(1), big.NewInt(30))
	b.Record(tAddr(2), big.NewInt(10))
	b.Record(tAddr(3), big.NewInt(20))

	assert.Equal(t, []common.Address{tAddr(2), tAddr(3), tAddr(1)}, b.Ranked())
	assert.Equal(t, 0, b.Rank(tAddr(2)))
	assert.Equal(t, 2, b.Rank(tAddr(1)))
	assert.Equal(t, -1, b.Rank(tAddr(9)))
	assert.Nil(t, b.Score(tAddr(9)))
}

func TestRecordZeroRemoves(t *testing.T) {
	b := New(1)
	b.Record(tAddr(1), big.NewInt(5))
	b.Record(tAddr(2), big.NewInt(0))
	assert.Equal(t, 1, b.Len())

	b.Record(tAddr(1), big.NewInt(0))
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Ranked())
	assert.Equal(t, -1, b.Rank(tAddr(1)))
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	b := New(1)
	b.Record(tAddr(3), big.NewInt(7))
	b.Record(tAddr(1), big.NewInt(7))
	b.Record(tAddr(2), big.NewInt(7))
	assert.Equal(t, []common.Address{tAddr(3), tAddr(1), tAddr(2)}, b.Ranked())

	// Moving away and back keeps the original insertion position among ties.
	b.Record(tAddr(3), big.NewInt(100))
	b.Record(tAddr(3), big.NewInt(7))
	assert.Equal(t, []common.Address{tAddr(3), tAddr(1), tAddr(2)}, b.Ranked())
}

func TestUpdateInPlace(t *testing.T) {
	b := New(1)
	for i := byte(1); i <= 5; i++ {
		b.Record(tAddr(i), big.NewInt(int64(i)*10))
	}
	b.Record(tAddr(1), big.NewInt(45))
	assert.Equal(t, []common.Address{tAddr(2), tAddr(3), tAddr(4), tAddr(1), tAddr(5)}, b.Ranked())
	assert.Equal(t, 3, b.Rank(tAddr(1)))
	assert.Equal(t, int64(45), b.Score(tAddr(1)).Int64())

	top := b.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, tAddr(5), top[0].Address)
	assert.Equal(t, tAddr(1), top[1].Address)

	e, ok := b.At(0)
	require.True(t, ok)
	assert.Equal(t, tAddr(2), e.Address)
	_, ok = b.At(5)
	assert.False(t, ok)
}

func TestScoreIsCopied(t *testing.T) {
	b := New(1)
	score := big.NewInt(10)
	b.Record(tAddr(1), score)
	score.SetInt64(0)
	assert.Equal(t, int64(10), b.Score(tAddr(1)).Int64())
}

// TestRandomOperationsMatchSortedReference drives the skip list with random
// inserts, moves and removals and checks every invariant against a plain
// sorted slice.
func TestRandomOperationsMatchSortedReference(t *testing.T) {
	type ref struct {
		addr  common.Address
		score int64
		seq   int
	}
	var (
		b      = New(42)
		rnd    = rand.New(rand.NewSource(7))
		scores = map[common.Address]int64{}
		first  = map[common.Address]int{}
		seq    = 0
	)
	for op := 0; op < 3000; op++ {
		a := tAddr(byte(rnd.Intn(64)))
		s := int64(rnd.Intn(20)) // zero roughly one time in twenty
		b.Record(a, big.NewInt(s))
		if s == 0 {
			delete(scores, a)
			delete(first, a)
			continue
		}
		if _, ok := first[a]; !ok {
			seq++
			first[a] = seq
		}
		scores[a] = s

		if op%100 != 0 {
			continue
		}
		want := make([]ref, 0, len(scores))
		for addr, sc := range scores {
			want = append(want, ref{addr, sc, first[addr]})
		}
		sort.Slice(want, func(i, j int) bool {
			if want[i].score != want[j].score {
				return want[i].score < want[j].score
			}
			return want[i].seq < want[j].seq
		})
		ranked := b.Ranked()
		require.Len(t, ranked, len(want))
		require.Equal(t, len(want), b.Len())
		for i, w := range want {
			require.Equalf(t, w.addr, ranked[i], "op %d position %d", op, i)
			require.Equal(t, i, b.Rank(w.addr))
			e, ok := b.At(i)
			require.True(t, ok)
			require.Equal(t, w.addr, e.Address)
			require.Equal(t, w.score, e.Score.Int64())
		}
	}
}

func TestReset(t *testing.T) {
	b := New(1)
	b.Record(tAddr(1), big.NewInt(1))
	b.Reset()
	assert.Zero(t, b.Len())
	b.Record(tAddr(2), big.NewInt(1))
	assert.Equal(t, []common.Address{tAddr(2)}, b.Ranked())
}
