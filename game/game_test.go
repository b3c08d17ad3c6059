package game

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/dump"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/journal"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/sysaction"
)

const genesisTime = uint64(1_700_000_000)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x0000000000000000000000000000000000000ca1")
)

func tokens(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Dump)) }

// fixedEntropy draws the same value for everyone.
type fixedEntropy uint64

func (f fixedEntropy) Draw(uint64, common.Address) uint64 { return uint64(f) }

type testGame struct {
	t     *testing.T
	db    ethdb.Database
	clock *ManualClock
	jr    *journal.Journal
	e     *Engine
}

func testRules() *params.GameConfig {
	rules := params.DefaultGameConfig()
	rules.Owner = owner
	rules.GenesisTime = genesisTime
	rules.Alloc = []params.GenesisAccount{
		{Address: alice, Balance: big.NewInt(params.Ether), Dump: tokens(10_000)},
		{Address: bob, Balance: big.NewInt(params.Ether), Dump: tokens(10_000)},
		{Address: carol, Dump: tokens(1_000)},
	}
	return rules
}

func newTestGame(t *testing.T) *testGame {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	_, err := Init(db, testRules())
	require.NoError(t, err)
	g := &testGame{t: t, db: db, clock: NewManualClock(genesisTime), jr: journal.NewMemory()}
	g.open()
	return g
}

func (g *testGame) open() {
	e, err := New(g.db, Config{Clock: g.clock, Entropy: fixedEntropy(7), Journal: g.jr})
	require.NoError(g.t, err)
	g.e = e
}

func (g *testGame) do(from common.Address, kind sysaction.ActionKind, payload interface{}) error {
	return g.doValue(from, nil, kind, payload)
}

func (g *testGame) doValue(from common.Address, value *big.Int, kind sysaction.ActionKind, payload interface{}) error {
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(g.t, err)
	_, err = g.e.Apply(Message{From: from, Value: value, Data: data})
	return err
}

func (g *testGame) stake(addr common.Address, amount *big.Int) {
	require.NoError(g.t, g.do(addr, sysaction.ActionStake, sysaction.AmountPayload{Amount: amount}))
}

func TestGenesis(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()

	assert.Equal(t, uint64(1), g.e.CurrentEpoch())
	assert.Equal(t, rules.EpochDuration, g.e.EpochTimeRemaining())
	assert.Equal(t, tokens(979_000), g.e.BalanceOf(owner))
	assert.Equal(t, tokens(10_000), g.e.BalanceOf(alice))
	assert.Equal(t, rules.BugBountyReserve, g.e.BugBountyReserve())
	assert.Equal(t, new(big.Int).Sub(rules.GlorySupply, rules.BugBountyReserve), g.e.GloryBalanceOf(owner))
	assert.Equal(t, rules.InitialDumpSupply, g.e.Status().DumpSupply)
	assert.Equal(t, rules.MinimumStake, g.e.MinimumStake())
	assert.Equal(t, -1, g.e.UserRank(alice))
	assert.Empty(t, g.e.Leaderboard())

	_, err := Init(g.db, testRules())
	assert.Error(t, err)
}

func TestInitRejectsOverAllocation(t *testing.T) {
	rules := testRules()
	rules.Alloc = append(rules.Alloc, params.GenesisAccount{Address: common.Address{9}, Dump: rules.InitialDumpSupply})
	_, err := Init(rawdb.NewMemoryDatabase(), rules)
	assert.ErrorIs(t, err, ErrAllocExceedsSupply)
}

func TestTransferScenario(t *testing.T) {
	g := newTestGame(t)
	g.stake(alice, tokens(100))
	g.stake(bob, tokens(100))
	assert.True(t, g.e.IsActiveParticipant(alice))

	before := g.e.BalanceOf(bob)
	require.NoError(t, g.do(alice, sysaction.ActionTransfer, sysaction.TransferPayload{To: bob, Amount: tokens(1000)}))

	assert.Greater(t, g.e.CooldownEndTime(alice), g.clock.Now())
	assert.Equal(t, tokens(3), g.e.FeePot().TotalFeesCollected)
	assert.Equal(t, new(big.Int).Add(before, tokens(997)), g.e.BalanceOf(bob))

	ok, _ := ActionCount(sysaction.ActionTransfer)
	assert.Positive(t, ok)
}

func TestBuybackBurnsGlory(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()
	g.stake(alice, tokens(100))
	g.stake(bob, tokens(100))
	require.NoError(t, g.do(alice, sysaction.ActionTransfer, sysaction.TransferPayload{To: bob, Amount: tokens(1000)}))

	supply := g.e.Status().GlorySupply
	require.NoError(t, g.do(carol, sysaction.ActionExecuteBuyback, nil))

	// 3 DUMP of fees at the default 1% rate buys 0.03 GLORY.
	burned := new(big.Int).Quo(tokens(3), big.NewInt(100))
	status := g.e.Status()
	assert.Equal(t, burned, status.FeePot.TotalGloryBurned)
	assert.Equal(t, new(big.Int).Sub(supply, burned), status.GlorySupply)
	assert.Equal(t, 1, rules.GlorySupply.Cmp(status.GlorySupply))
	assert.Equal(t, rules.BugBountyReserve, status.BugBountyReserve)
}

func TestFailedActionLeavesNoTrace(t *testing.T) {
	g := newTestGame(t)
	g.stake(alice, tokens(100))
	root := g.e.Root()

	err := g.do(alice, sysaction.ActionTransfer, sysaction.TransferPayload{To: carol, Amount: tokens(1)})
	require.ErrorIs(t, err, participant.ErrNotActiveParticipant)
	assert.Equal(t, root, g.e.Root())
	assert.Equal(t, tokens(9_900), g.e.BalanceOf(alice))

	last, err := g.jr.Last(1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.True(t, last[0].Failed())
	assert.Equal(t, string(sysaction.ActionTransfer), last[0].Action)

	err = g.do(alice, "NOT_AN_ACTION", nil)
	assert.Error(t, err)
	_, err = g.e.Apply(Message{From: alice, Data: []byte("{")})
	assert.ErrorIs(t, err, sysaction.ErrInvalidSysAction)
}

func TestNonceChecked(t *testing.T) {
	g := newTestGame(t)
	data, err := sysaction.MakeSysAction(sysaction.ActionStake, sysaction.AmountPayload{Amount: tokens(100)})
	require.NoError(t, err)

	_, err = g.e.Apply(Message{From: alice, Nonce: 1, CheckNonce: true, Data: data})
	require.ErrorIs(t, err, ErrInvalidNonce)

	_, err = g.e.Apply(Message{From: alice, Nonce: 0, CheckNonce: true, Data: data})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), g.e.Nonce(alice))

	// A rejected action still consumes the nonce.
	bad, err := sysaction.MakeSysAction(sysaction.ActionStake, sysaction.AmountPayload{Amount: tokens(1_000_000)})
	require.NoError(t, err)
	_, err = g.e.Apply(Message{From: alice, Nonce: 1, CheckNonce: true, Data: bad})
	require.ErrorIs(t, err, dump.ErrInsufficientBalance)
	assert.Equal(t, uint64(2), g.e.Nonce(alice))
	assert.Equal(t, tokens(100), g.e.StakedAmount(alice))
}

func TestEpochLifecycle(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()
	g.stake(alice, tokens(100))
	g.stake(bob, tokens(100))
	require.NoError(t, g.do(owner, sysaction.ActionAllocate, sysaction.TransferPayload{To: alice, Amount: tokens(5_000)}))

	err := g.do(carol, sysaction.ActionFinalizeEpoch, nil)
	require.ErrorIs(t, err, epoch.ErrEpochNotReady)
	err = g.doValue(alice, rules.MaxJoinFee, sysaction.ActionSignup, nil)
	require.ErrorIs(t, err, epoch.ErrSignupClosed)

	g.clock.Advance(rules.EpochDuration)
	assert.Zero(t, g.e.EpochTimeRemaining())
	require.NoError(t, g.do(carol, sysaction.ActionFinalizeEpoch, nil))
	require.ErrorIs(t, g.do(carol, sysaction.ActionFinalizeEpoch, nil), epoch.ErrEpochAlreadyFinalized)

	// Alice held more on average, so she ranks last in ascending order.
	assert.Equal(t, []common.Address{bob, alice}, g.e.Leaderboard())
	assert.Equal(t, 1, g.e.UserRank(alice))
	snapshot := g.e.EpochLeaderboard(1)
	require.Len(t, snapshot, 2)
	assert.Equal(t, alice, snapshot[1].Address)
	assert.Equal(t, uint64(genesisTime+rules.EpochDuration), g.e.EpochInfo(1).FinalizedAt)

	err = g.do(alice, sysaction.ActionTransfer, sysaction.TransferPayload{To: bob, Amount: tokens(1)})
	require.ErrorIs(t, err, epoch.ErrGameNotStarted)

	// Signup fee scales with time in the waiting phase.
	assert.Equal(t, rules.BaseJoinFee, g.e.RequiredJoinFee())
	g.clock.Advance(rules.WaitingPeriod / 2)
	fee := g.e.RequiredJoinFee()
	assert.Equal(t, 1, fee.Cmp(rules.BaseJoinFee))
	assert.Equal(t, -1, fee.Cmp(rules.MaxJoinFee))

	err = g.doValue(alice, rules.BaseJoinFee, sysaction.ActionSignup, nil)
	require.ErrorIs(t, err, epoch.ErrInsufficientFee)
	require.NoError(t, g.doValue(alice, fee, sysaction.ActionSignup, nil))
	require.ErrorIs(t, g.doValue(alice, fee, sysaction.ActionSignup, nil), participant.ErrAlreadySignedUp)
	require.ErrorIs(t, g.doValue(carol, fee, sysaction.ActionSignup, nil), participant.ErrInsufficientStake)
	assert.Equal(t, fee, g.e.FeePot().JoinFees)

	require.ErrorIs(t, g.do(carol, sysaction.ActionStartNextEpoch, nil), epoch.ErrWaitingPeriodNotOver)
	g.clock.Advance(rules.WaitingPeriod / 2)
	require.NoError(t, g.do(carol, sysaction.ActionStartNextEpoch, nil))

	assert.Equal(t, uint64(2), g.e.CurrentEpoch())
	assert.True(t, g.e.IsActiveParticipant(alice))
	assert.False(t, g.e.IsActiveParticipant(bob))
	assert.Equal(t, rules.EpochSupply, g.e.BalanceOf(alice))
	assert.Zero(t, g.e.BalanceOf(bob).Sign())
	assert.Equal(t, dump.Cooldowns{}, g.e.Cooldowns(alice))
	assert.Zero(t, g.e.AverageDumpHeld(alice).Sign())

	// The previous epoch's final ranking stays readable.
	assert.Equal(t, []common.Address{bob, alice}, g.e.Leaderboard())
}

func TestRolloverSplitsSupply(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()
	g.stake(alice, tokens(100))
	g.stake(bob, tokens(100))

	g.clock.Advance(rules.EpochDuration)
	require.NoError(t, g.do(carol, sysaction.ActionFinalizeEpoch, nil))
	require.NoError(t, g.doValue(alice, rules.BaseJoinFee, sysaction.ActionSignup, nil))
	require.NoError(t, g.doValue(bob, rules.BaseJoinFee, sysaction.ActionSignup, nil))
	g.clock.Advance(rules.WaitingPeriod)
	require.NoError(t, g.do(carol, sysaction.ActionStartNextEpoch, nil))

	half := new(big.Int).Quo(rules.EpochSupply, big.NewInt(2))
	assert.Equal(t, half, g.e.BalanceOf(alice))
	assert.Equal(t, half, g.e.BalanceOf(bob))
	assert.True(t, g.e.IsActiveParticipant(bob))
}

func TestReopenRestoresState(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()
	g.stake(alice, tokens(100))
	g.stake(bob, tokens(500))
	g.clock.Advance(rules.EpochDuration)
	require.NoError(t, g.do(carol, sysaction.ActionFinalizeEpoch, nil))
	root := g.e.Root()
	ranked := g.e.Leaderboard()

	g.open()
	assert.Equal(t, root, g.e.Root())
	assert.Equal(t, ranked, g.e.Leaderboard())
	assert.Equal(t, epoch.Waiting.String(), g.e.Status().Phase)
	assert.Equal(t, tokens(100), g.e.StakedAmount(alice))
}

func TestLegacyAdmission(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	rules := testRules()
	rules.Admission = params.AdmissionLegacy
	_, err := Init(db, rules)
	require.NoError(t, err)
	clock := NewManualClock(genesisTime)
	e, err := New(db, Config{Clock: clock, Entropy: fixedEntropy(1)})
	require.NoError(t, err)

	apply := func(from common.Address, value *big.Int, kind sysaction.ActionKind, payload interface{}) error {
		data, err := sysaction.MakeSysAction(kind, payload)
		require.NoError(t, err)
		_, err = e.Apply(Message{From: from, Value: value, Data: data})
		return err
	}
	stake := sysaction.AmountPayload{Amount: tokens(100)}
	require.NoError(t, apply(alice, nil, sysaction.ActionStake, stake))
	require.ErrorIs(t, apply(bob, rules.MaxJoinFee, sysaction.ActionStake, stake), sysaction.ErrUnexpectedValue)

	clock.Advance(rules.EpochDuration)
	require.NoError(t, apply(carol, nil, sysaction.ActionFinalizeEpoch, nil))
	require.ErrorIs(t, apply(alice, rules.MaxJoinFee, sysaction.ActionSignup, nil), participant.ErrSignupDisabled)

	clock.Advance(rules.WaitingPeriod)
	require.NoError(t, apply(carol, nil, sysaction.ActionStartNextEpoch, nil))
	assert.True(t, e.IsActiveParticipant(alice))
	assert.Equal(t, rules.EpochSupply, e.BalanceOf(alice))

	// Staking alone admits a newcomer mid-game.
	require.NoError(t, apply(bob, nil, sysaction.ActionStake, stake))
	assert.True(t, e.IsActiveParticipant(bob))
}

func TestAverageResetsForUnregisteredHolders(t *testing.T) {
	g := newTestGame(t)
	rules := g.e.Rules()

	// carol holds DUMP without ever staking and is touched late in epoch 1.
	g.clock.Advance(rules.EpochDuration - params.SecondsPerHour)
	require.NoError(t, g.do(bob, sysaction.ActionApplyDemurrage, sysaction.AddressPayload{Address: carol}))
	require.False(t, participant.IsRegistered(g.e.state, carol))
	touched := g.e.CurrentBalance(carol)

	g.clock.Advance(params.SecondsPerHour)
	require.NoError(t, g.do(bob, sysaction.ActionFinalizeEpoch, nil))
	g.clock.Advance(rules.WaitingPeriod)
	require.NoError(t, g.do(bob, sysaction.ActionStartNextEpoch, nil))
	require.Equal(t, 1, g.e.CurrentBalance(carol).Sign())

	g.clock.Advance(params.SecondsPerDay)
	avg := g.e.AverageDumpHeld(carol)
	assert.LessOrEqual(t, avg.Cmp(touched), 0, "average %v above held balance %v", avg, touched)
	assert.GreaterOrEqual(t, avg.Cmp(g.e.CurrentBalance(carol)), 0)
}
