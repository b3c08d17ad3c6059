package rpcapi

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/game"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/pricing"
	"github.com/tos-network/dumpglory/sysaction"
)

const genesisTime = uint64(1_700_000_000)

func tokens(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Dump)) }

type testEnv struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	engine *game.Engine
	server *httptest.Server
	client *rpc.Client
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	rules := params.DefaultGameConfig()
	rules.Owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	rules.GenesisTime = genesisTime
	rules.Alloc = []params.GenesisAccount{{Address: addr, Dump: tokens(1_000)}}
	db := rawdb.NewMemoryDatabase()
	_, err = game.Init(db, rules)
	require.NoError(t, err)
	engine, err := game.New(db, game.Config{Clock: game.NewManualClock(genesisTime)})
	require.NoError(t, err)

	handler, _, err := NewHandler(engine, cfg)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := rpc.DialHTTP(server.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return &testEnv{key: key, addr: addr, engine: engine, server: server, client: client}
}

func (env *testEnv) signed(t *testing.T, nonce uint64, kind sysaction.ActionKind, payload interface{}) *SignedAction {
	t.Helper()
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(t, err)
	a, err := SignAction(env.key, nonce, nil, data)
	require.NoError(t, err)
	return a
}

func TestQueries(t *testing.T) {
	env := newTestEnv(t, Config{})

	var epoch hexutil.Uint64
	require.NoError(t, env.client.Call(&epoch, "dump_currentEpoch"))
	assert.Equal(t, hexutil.Uint64(1), epoch)

	var bal hexutil.Big
	require.NoError(t, env.client.Call(&bal, "dump_balanceOf", env.addr))
	assert.Equal(t, tokens(1_000), bal.ToInt())

	var rank int
	require.NoError(t, env.client.Call(&rank, "dump_getUserRank", env.addr))
	assert.Equal(t, -1, rank)

	var minStake hexutil.Big
	require.NoError(t, env.client.Call(&minStake, "dump_getMinimumStake"))
	assert.Equal(t, tokens(100), minStake.ToInt())

	// 60s + 10 tokens/10 + 10^2/100000, scaled by 1e19.
	var cooldown hexutil.Big
	require.NoError(t, env.client.Call(&cooldown, "dump_computeCooldown", (*hexutil.Big)(tokens(10))))
	want, _ := new(big.Int).SetString("610010000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(cooldown.ToInt()))
	assert.Equal(t, uint64(62), pricing.CooldownSeconds(cooldown.ToInt()))
}

func TestSendAction(t *testing.T) {
	env := newTestEnv(t, Config{})

	var res SendResult
	stake := sysaction.AmountPayload{Amount: tokens(100)}
	require.NoError(t, env.client.Call(&res, "dump_sendAction", env.signed(t, 0, sysaction.ActionStake, stake)))
	assert.Equal(t, env.addr, res.From)
	assert.Equal(t, string(sysaction.ActionStake), res.Action)
	assert.True(t, env.engine.IsActiveParticipant(env.addr))

	// Replaying the same nonce is refused.
	err := env.client.Call(&res, "dump_sendAction", env.signed(t, 0, sysaction.ActionStake, stake))
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, errCodeInvalidNonce, rpcErr.ErrorCode())

	// Game errors carry their kind.
	err = env.client.Call(&res, "dump_sendAction", env.signed(t, 1, sysaction.ActionStake, sysaction.AmountPayload{Amount: tokens(1)}))
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, errCodeRejected, rpcErr.ErrorCode())
	var dataErr rpc.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, map[string]interface{}{"kind": "InsufficientStake"}, dataErr.ErrorData())

	var nonce hexutil.Uint64
	require.NoError(t, env.client.Call(&nonce, "dump_nonce", env.addr))
	assert.Equal(t, hexutil.Uint64(2), nonce)
}

func TestSignatureRecovery(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	a, err := SignAction(key, 3, big.NewInt(9), []byte(`{"action":"SIGNUP"}`))
	require.NoError(t, err)

	from, err := a.Sender()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)

	// Any change to the signed fields changes the signer.
	a.Nonce = 4
	from, err = a.Sender()
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), from)

	a.Signature = a.Signature[:10]
	_, err = a.Sender()
	assert.ErrorIs(t, err, errInvalidSignature)
}

func TestHealthAndRateLimit(t *testing.T) {
	env := newTestEnv(t, Config{RateLimit: 1, RateBurst: 1})

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, uint64(1), h.Epoch)

	body := `{"jsonrpc":"2.0","id":1,"method":"dump_currentEpoch","params":[]}`
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(env.server.URL, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestWebsocket(t *testing.T) {
	env := newTestEnv(t, Config{CorsOrigins: []string{"*"}})

	endpoint := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	client, err := rpc.DialWebsocket(context.Background(), endpoint, "")
	require.NoError(t, err)
	defer client.Close()

	var n hexutil.Uint64
	require.NoError(t, client.Call(&n, Namespace+"_currentEpoch"))
	assert.Equal(t, hexutil.Uint64(1), n)
}
