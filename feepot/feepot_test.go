package feepot

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/sysaction"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")

// newTestState creates a fresh in-memory StateDB for tests.
func newTestState() *state.StateDB {
	db := state.NewDatabase(rawdb.NewMemoryDatabase())
	s, _ := state.New(common.Hash{}, db, nil)
	return s
}

type failingSwapper struct{}

func (failingSwapper) SwapForGlory(*big.Int) (*big.Int, error) {
	return nil, errors.New("venue offline")
}

func exec(st *state.StateDB, from common.Address, swapper sysaction.Swapper, kind sysaction.ActionKind, payload interface{}) error {
	cfg := params.DefaultGameConfig()
	cfg.Owner = owner
	data, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		return err
	}
	ctx := &sysaction.Context{From: from, Time: 500, StateDB: st, Config: cfg, Swapper: swapper}
	return sysaction.ExecuteWithContext(ctx, data)
}

func TestCollect(t *testing.T) {
	st := newTestState()
	Collect(st, big.NewInt(30))
	Collect(st, big.NewInt(0))
	Collect(st, big.NewInt(70))
	RecordJoinFee(st, big.NewInt(5))

	s := Read(st)
	assert.Equal(t, int64(100), s.TotalFeesCollected.Int64())
	assert.Equal(t, int64(100), s.Pending.Int64())
	assert.Equal(t, int64(5), s.JoinFees.Int64())
	assert.Zero(t, s.TotalGloryBurned.Sign())
}

func mintGlory(t *testing.T, st *state.StateDB) *params.GameConfig {
	t.Helper()
	cfg := params.DefaultGameConfig()
	cfg.Owner = owner
	require.NoError(t, glory.Genesis(st, cfg))
	return cfg
}

func TestBuyback(t *testing.T) {
	st := newTestState()
	cfg := mintGlory(t, st)
	swapper := FixedRateSwapper{RateBps: 100}

	err := exec(st, common.Address{1}, swapper, sysaction.ActionExecuteBuyback, nil)
	require.ErrorIs(t, err, ErrNothingToBuyback)

	Collect(st, big.NewInt(10_000))
	err = exec(st, common.Address{1}, nil, sysaction.ActionExecuteBuyback, nil)
	require.ErrorIs(t, err, ErrNoSwapper)
	err = exec(st, common.Address{1}, failingSwapper{}, sysaction.ActionExecuteBuyback, nil)
	require.ErrorIs(t, err, ErrSwapFailed)

	require.NoError(t, exec(st, common.Address{1}, swapper, sysaction.ActionExecuteBuyback, nil))
	s := Read(st)
	assert.Equal(t, int64(100), s.TotalGloryBurned.Int64())
	assert.Zero(t, s.Pending.Sign())
	assert.Equal(t, int64(10_000), s.TotalFeesCollected.Int64())
	assert.Equal(t, uint64(1), s.BuybackCount)
	assert.Equal(t, uint64(500), s.LastBuyback)
	assert.Equal(t, new(big.Int).Sub(cfg.GlorySupply, big.NewInt(100)), glory.TotalSupply(st))
	assert.Equal(t, cfg.BugBountyReserve, glory.Reserve(st))
}

type fixedSwapper struct{ out *big.Int }

func (s fixedSwapper) SwapForGlory(*big.Int) (*big.Int, error) { return s.out, nil }

func TestBuybackBurnsSupply(t *testing.T) {
	st := newTestState()
	cfg := mintGlory(t, st)
	circulating := new(big.Int).Sub(cfg.GlorySupply, cfg.BugBountyReserve)

	tests := []struct {
		name    string
		out     *big.Int
		wantErr error
	}{
		{"beyond circulating supply", new(big.Int).Add(circulating, big.NewInt(1)), glory.ErrBurnExceedsSupply},
		{"one wei", big.NewInt(1), nil},
		{"nothing bought", big.NewInt(0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Collect(st, big.NewInt(1_000))
			before := glory.TotalSupply(st)
			pending := Pending(st)
			err := exec(st, common.Address{1}, fixedSwapper{out: tt.out}, sysaction.ActionExecuteBuyback, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, glory.TotalSupply(st))
				assert.Equal(t, pending, Pending(st))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, new(big.Int).Sub(before, tt.out), glory.TotalSupply(st))
			assert.Zero(t, Pending(st).Sign())
		})
	}
}

func TestEmergencyPause(t *testing.T) {
	st := newTestState()
	Collect(st, big.NewInt(10_000))

	err := exec(st, common.Address{1}, nil, sysaction.ActionSetEmergencyPause, sysaction.PausePayload{Paused: true})
	require.ErrorIs(t, err, sysaction.ErrUnauthorized)

	require.NoError(t, exec(st, owner, nil, sysaction.ActionSetEmergencyPause, sysaction.PausePayload{Paused: true}))
	assert.True(t, EmergencyPaused(st))
	err = exec(st, common.Address{1}, FixedRateSwapper{RateBps: 100}, sysaction.ActionExecuteBuyback, nil)
	require.ErrorIs(t, err, ErrEmergencyPaused)

	require.NoError(t, exec(st, owner, nil, sysaction.ActionSetEmergencyPause, sysaction.PausePayload{Paused: false}))
	require.NoError(t, exec(st, common.Address{1}, FixedRateSwapper{RateBps: 100}, sysaction.ActionExecuteBuyback, nil))
}
