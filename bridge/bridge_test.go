package bridge

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/sysaction"
)

var (
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	bridge = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func setup(t *testing.T) (*state.StateDB, *params.GameConfig) {
	t.Helper()
	db := state.NewDatabase(rawdb.NewMemoryDatabase())
	st, _ := state.New(common.Hash{}, db, nil)
	epoch.Init(st, 1000)
	cfg := params.DefaultGameConfig()
	cfg.Owner = owner
	cfg.Bridge = bridge
	cfg.BridgeUserEpochLimit = big.NewInt(100)
	cfg.BridgeEpochLimit = big.NewInt(150)
	return st, cfg
}

func record(st *state.StateDB, cfg *params.GameConfig, from, user common.Address, amount int64) error {
	data, err := sysaction.MakeSysAction(sysaction.ActionBridgeRecord, sysaction.BridgeRecordPayload{User: user, Amount: big.NewInt(amount)})
	if err != nil {
		return err
	}
	return sysaction.ExecuteWithContext(&sysaction.Context{From: from, Time: 1000, StateDB: st, Config: cfg}, data)
}

func TestLimits(t *testing.T) {
	st, cfg := setup(t)
	alice, bob := common.Address{1}, common.Address{2}

	assert.Zero(t, EpochTransferStats(st, 1).Sign())
	assert.True(t, CanTransfer(st, cfg, 1, alice, big.NewInt(100)))
	assert.False(t, CanTransfer(st, cfg, 1, alice, big.NewInt(101)))
	assert.False(t, CanTransfer(st, cfg, 1, alice, big.NewInt(0)))

	require.NoError(t, record(st, cfg, bridge, alice, 100))
	require.ErrorIs(t, record(st, cfg, bridge, alice, 1), ErrBridgeLimitExceeded)
	require.NoError(t, record(st, cfg, bridge, bob, 50))
	require.ErrorIs(t, record(st, cfg, bridge, bob, 1), ErrBridgeLimitExceeded)

	assert.Equal(t, int64(150), EpochTransferStats(st, 1).Int64())
	assert.Equal(t, int64(100), UserEpochTotal(st, alice, 1).Int64())
	assert.True(t, CanTransfer(st, cfg, 2, alice, big.NewInt(100)))
}

func TestOnlyBridgeRecords(t *testing.T) {
	st, cfg := setup(t)
	err := record(st, cfg, owner, common.Address{1}, 10)
	require.ErrorIs(t, err, sysaction.ErrUnauthorized)
	assert.Zero(t, EpochTransferStats(st, 1).Sign())
}
