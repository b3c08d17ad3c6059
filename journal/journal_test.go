package journal

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRange(t *testing.T) {
	j := NewMemory()
	defer j.Close()

	for i := 0; i < 5; i++ {
		seq, err := j.Append(&Entry{Time: uint64(100 + i), From: common.Address{byte(i)}, Action: "STAKE", Data: []byte{byte(i)}})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), seq)
	}
	assert.Equal(t, uint64(5), j.Len())

	e, err := j.Get(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(102), e.Time)
	assert.Equal(t, common.Address{2}, e.From)
	assert.False(t, e.Failed())

	_, err = j.Get(5)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := j.Range(3, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(3), entries[0].Seq)

	last, err := j.Last(2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(4), last[1].Seq)
}

func TestReopenKeepsHead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal")
	j, err := Open(path, 16, 16)
	require.NoError(t, err)
	_, err = j.Append(&Entry{Action: "TRANSFER", Value: big.NewInt(7), Err: "dump: give cooldown active"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path, 16, 16)
	require.NoError(t, err)
	defer j.Close()
	assert.Equal(t, uint64(1), j.Len())

	e, err := j.Get(0)
	require.NoError(t, err)
	assert.True(t, e.Failed())
	assert.Equal(t, int64(7), e.Value.Int64())

	seq, err := j.Append(&Entry{Action: "STAKE"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}
