package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/params"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Game.Owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	cfg.Game.Admission = params.AdmissionLegacy
	cfg.Game.MinimumStake = big.NewInt(12345)
	cfg.Game.Alloc = []params.GenesisAccount{
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000a11"), Balance: big.NewInt(1), Dump: big.NewInt(2)},
	}
	cfg.RPC.Port = 9999
	cfg.Metrics.Enabled = true

	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, out, 0644))

	loaded := defaultConfig()
	require.NoError(t, loadConfig(file, &loaded))
	assert.Equal(t, cfg.Game.Owner, loaded.Game.Owner)
	assert.Equal(t, params.AdmissionLegacy, loaded.Game.Admission)
	assert.Equal(t, 0, loaded.Game.MinimumStake.Cmp(big.NewInt(12345)))
	require.Len(t, loaded.Game.Alloc, 1)
	assert.Equal(t, 0, loaded.Game.Alloc[0].Dump.Cmp(big.NewInt(2)))
	assert.Equal(t, 9999, loaded.RPC.Port)
	assert.Equal(t, cfg.RPC.CorsOrigins, loaded.RPC.CorsOrigins)
	assert.True(t, loaded.Metrics.Enabled)
	assert.Equal(t, cfg.Metrics.InfluxDBDatabase, loaded.Metrics.InfluxDBDatabase)
}

func TestConfigUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Game]\nEpochLength = 10\n"), 0644))

	cfg := defaultConfig()
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EpochLength")
	assert.Contains(t, err.Error(), file)
}

func TestDefaultConfigIsolated(t *testing.T) {
	a, b := defaultConfig(), defaultConfig()
	a.RPC.CorsOrigins[0] = "changed"
	a.Game.MinimumStake.SetInt64(1)
	assert.NotEqual(t, "changed", b.RPC.CorsOrigins[0])
	assert.NotEqual(t, int64(1), b.Game.MinimumStake.Int64())
}
