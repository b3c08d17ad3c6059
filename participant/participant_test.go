package participant

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestState creates a fresh in-memory StateDB for tests.
func newTestState() *state.StateDB {
	db := state.NewDatabase(rawdb.NewMemoryDatabase())
	s, _ := state.New(common.Hash{}, db, nil)
	return s
}

// tAddr generates a deterministic test address.
func tAddr(b byte) common.Address { return common.Address{b} }

func TestRegisterAppendsOnce(t *testing.T) {
	st := newTestState()
	require.True(t, Register(st, tAddr(1)))
	require.True(t, Register(st, tAddr(2)))
	require.False(t, Register(st, tAddr(1)))

	assert.Equal(t, uint64(2), Count(st))
	assert.Equal(t, []common.Address{tAddr(1), tAddr(2)}, All(st))
	assert.True(t, IsRegistered(st, tAddr(2)))
	assert.False(t, IsRegistered(st, tAddr(3)))
}

func TestStakeAndFlags(t *testing.T) {
	st := newTestState()
	a := tAddr(1)
	AddStake(st, a, big.NewInt(100))
	AddStake(st, a, big.NewInt(50))
	SetActive(st, a, true)
	SetSignedUpFor(st, a, 3)

	rec := Read(st, a)
	assert.Equal(t, int64(150), rec.Stake.Int64())
	assert.True(t, rec.Active)
	assert.Equal(t, uint64(3), rec.SignedUpFor)

	SetActive(st, a, false)
	assert.False(t, IsActive(st, a))
}

func TestAverageHoldings(t *testing.T) {
	st := newTestState()
	a := tAddr(1)
	const start, end = uint64(1000), uint64(2000)
	ResetAverage(st, a, start)

	// No elapsed time: zero, never a division by zero.
	assert.Zero(t, Average(st, a, big.NewInt(100), big.NewInt(100), start, start, end).Sign())

	// Hold 100 for 100s, then 300 for 100s: average 200.
	Accumulate(st, a, big.NewInt(100), big.NewInt(100), 1100, start, end)
	avg := Average(st, a, big.NewInt(300), big.NewInt(300), 1200, start, end)
	assert.Equal(t, int64(200), avg.Int64())

	// Accumulating twice at the same instant adds nothing.
	Accumulate(st, a, big.NewInt(300), big.NewInt(300), 1100, start, end)
	assert.Equal(t, int64(200), Average(st, a, big.NewInt(300), big.NewInt(300), 1200, start, end).Int64())

	// Time after the epoch end is ignored.
	Accumulate(st, a, big.NewInt(300), big.NewInt(300), 5000, start, end)
	assert.Equal(t, int64(280), Average(st, a, big.NewInt(999), big.NewInt(999), 9000, start, end).Int64())

	ResetAverage(st, a, end)
	assert.Zero(t, Average(st, a, big.NewInt(1), big.NewInt(1), end, end, end+100).Sign())
}

func TestAverageUsesTrapezoid(t *testing.T) {
	st := newTestState()
	a := tAddr(2)
	ResetAverage(st, a, 0)
	// A balance decaying from 200 to 100 over 100 seconds averages 150.
	avg := Average(st, a, big.NewInt(200), big.NewInt(100), 100, 0, 1000)
	assert.Equal(t, int64(150), avg.Int64())
}

func TestAverageIgnoresEarlierEpochs(t *testing.T) {
	st := newTestState()
	a := tAddr(3)
	const start1, end1 = uint64(1000), uint64(2000)
	const start2, end2 = uint64(3000), uint64(4000)

	// Never reset: an address that only ever held a balance.
	Accumulate(st, a, big.NewInt(1000), big.NewInt(1000), 1900, start1, end1)
	assert.Equal(t, int64(1000), Average(st, a, big.NewInt(1000), big.NewInt(1000), 1900, start1, end1).Int64())

	tests := []struct {
		name string
		now  uint64
		want int64
	}{
		{"epoch start", start2, 0},
		{"early in the epoch", start2 + 10, 1000},
		{"epoch end", end2, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := Average(st, a, big.NewInt(1000), big.NewInt(1000), tt.now, start2, end2)
			assert.Equal(t, tt.want, avg.Int64())
		})
	}

	// Accumulating in the new epoch drops the old integral.
	Accumulate(st, a, big.NewInt(1000), big.NewInt(1000), start2+100, start2, end2)
	assert.Equal(t, int64(500), Average(st, a, big.NewInt(0), big.NewInt(0), start2+200, start2, end2).Int64())
}
