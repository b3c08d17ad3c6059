package pricing

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/dumpglory/params"
)

func dump(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Dump))
}

const (
	epoch = params.DefaultEpochDuration
	day   = params.SecondsPerDay
	hour  = params.SecondsPerHour
)

func TestCooldownMonotonic(t *testing.T) {
	base := params.DefaultCooldownBase
	theftBase := params.DefaultTheftCooldownBase
	assert.Equal(t, 0, ComputeCooldown(big.NewInt(0), base).Cmp(scaledBase(base)))
	assert.Equal(t, base, CooldownSeconds(ComputeCooldown(nil, base)))

	tenth := new(big.Int).Quo(dump(1), big.NewInt(10))
	tests := []struct {
		name  string
		small *big.Int
		large *big.Int
	}{
		{"one wei apart at the bottom", big.NewInt(1), big.NewInt(2)},
		{"wei vs a tenth", big.NewInt(1), tenth},
		{"one vs five tokens", dump(1), dump(5)},
		{"100 vs 105 tokens", dump(100), dump(105)},
		{"one wei above 100 tokens", dump(100), new(big.Int).Add(dump(100), big.NewInt(1))},
		{"one wei above a million tokens", dump(1_000_000), new(big.Int).Add(dump(1_000_000), big.NewInt(1))},
		{"10 vs 100000 tokens", dump(10), dump(100_000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 1, ComputeCooldown(tt.large, base).Cmp(ComputeCooldown(tt.small, base)))
			assert.Equal(t, 1, ComputeTheftCooldown(tt.large, theftBase).Cmp(ComputeTheftCooldown(tt.small, theftBase)))
		})
	}

	prev := ComputeCooldown(big.NewInt(1), base)
	prevTheft := ComputeTheftCooldown(big.NewInt(1), theftBase)
	for amount := big.NewInt(7); amount.Cmp(dump(10_000_000)) < 0; amount.Mul(amount, big.NewInt(7)) {
		cd := ComputeCooldown(amount, base)
		tcd := ComputeTheftCooldown(amount, theftBase)
		require.Equalf(t, 1, cd.Cmp(prev), "cooldown not increasing at %v", amount)
		require.Equalf(t, 1, tcd.Cmp(prevTheft), "theft cooldown not increasing at %v", amount)
		prev, prevTheft = cd, tcd
	}
}

func TestCooldownSeconds(t *testing.T) {
	base := params.DefaultCooldownBase
	assert.Equal(t, base, CooldownSeconds(ComputeCooldown(big.NewInt(0), base)))
	assert.Equal(t, base+1, CooldownSeconds(ComputeCooldown(big.NewInt(1), base)))
	// 1000 tokens: 100s linear + 10s quadratic
	assert.Equal(t, base+110, CooldownSeconds(ComputeCooldown(dump(1000), base)))
	assert.Equal(t, params.DefaultTheftCooldownBase+220,
		CooldownSeconds(ComputeTheftCooldown(dump(1000), params.DefaultTheftCooldownBase)))
	assert.Equal(t, uint64(1_000+base+110), CooldownEnd(1_000, ComputeCooldown(dump(1000), base)))

	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	assert.Equal(t, uint64(math.MaxUint64), CooldownEnd(1_000, ComputeCooldown(huge, base)))
}

func TestCooldownConvex(t *testing.T) {
	base := params.DefaultCooldownBase
	a := ComputeCooldown(dump(10_000), base)
	b := ComputeCooldown(dump(20_000), base)
	c := ComputeCooldown(dump(30_000), base)
	assert.Equal(t, 1, new(big.Int).Sub(c, b).Cmp(new(big.Int).Sub(b, a)))
}

func TestTheftCooldownExceedsGiveCooldown(t *testing.T) {
	amount := dump(1000)
	assert.Equal(t, 1, ComputeTheftCooldown(amount, params.DefaultTheftCooldownBase).
		Cmp(ComputeCooldown(amount, params.DefaultCooldownBase)))
}

func TestTheftMultiplierBoundaries(t *testing.T) {
	p := Precision
	tests := []struct {
		name      string
		remaining uint64
		want      *big.Int
	}{
		{"epoch start", epoch, new(big.Int).Set(p)},
		{"one week", params.SecondsPerWeek, new(big.Int).Quo(new(big.Int).Mul(p, big.NewInt(3)), big.NewInt(2))},
		{"one day", day, new(big.Int).Mul(p, big.NewInt(3))},
		{"one hour", hour, new(big.Int).Mul(p, big.NewInt(10))},
		{"epoch end", 0, new(big.Int).Mul(p, big.NewInt(10240))},
	}
	for _, tc := range tests {
		m, err := TheftMultiplier(tc.remaining, epoch)
		require.NoError(t, err, tc.name)
		assert.Equalf(t, 0, m.Cmp(tc.want), "%s: have %v want %v", tc.name, m, tc.want)
	}
}

func TestTheftCostIncreasesTowardsEpochEnd(t *testing.T) {
	amount := dump(1000)
	// Day 1, two weeks in, last week, last day, last hour, last minute.
	checkpoints := []uint64{epoch - day, epoch - 15*day, 7 * day, day, hour, 60}
	var prev *big.Int
	for _, r := range checkpoints {
		cost, err := CalculateTheftCost(amount, r, epoch, params.DefaultTheftBaseBps)
		require.NoError(t, err)
		if prev != nil {
			require.Equalf(t, 1, cost.Cmp(prev), "cost at r=%d (%v) not above %v", r, cost, prev)
		}
		prev = cost
	}
	// Strictly increasing second by second through the final hour.
	prev = nil
	for r := int64(hour); r >= 0; r-- {
		cost, err := CalculateTheftCost(amount, uint64(r), epoch, params.DefaultTheftBaseBps)
		require.NoError(t, err)
		if prev != nil {
			require.Equalf(t, 1, cost.Cmp(prev), "cost not increasing at r=%d", r)
		}
		prev = cost
	}
}

func TestTheftCostBaseRate(t *testing.T) {
	cost, err := CalculateTheftCost(dump(1000), epoch, epoch, params.DefaultTheftBaseBps)
	require.NoError(t, err)
	assert.Equal(t, 0, cost.Cmp(dump(100)), "10%% of 1000 at epoch start, have %v", cost)

	zero, err := CalculateTheftCost(big.NewInt(0), 0, epoch, params.DefaultTheftBaseBps)
	require.NoError(t, err)
	assert.Zero(t, zero.Sign())
}

func TestTheftCostDegenerateEpoch(t *testing.T) {
	_, err := CalculateTheftCost(dump(1), 0, 0, params.DefaultTheftBaseBps)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	_, err = TheftMultiplier(0, params.SecondsPerWeek)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestTransferFee(t *testing.T) {
	fee := TransferFee(dump(1000), params.DefaultTransferFeeBps)
	assert.Equal(t, 0, fee.Cmp(dump(3)))
	assert.Zero(t, TransferFee(big.NewInt(333), params.DefaultTransferFeeBps).Sign())
}

func TestDecay(t *testing.T) {
	bal := dump(1000)
	rate := params.DefaultDemurrageBpsPerDay

	assert.Equal(t, 0, Decay(bal, 0, rate).Cmp(bal), "no time, no decay")
	assert.Equal(t, 0, Decay(bal, day, rate).Cmp(dump(990)), "one day at 1%%")
	assert.Equal(t, 0, Decay(bal, 2*day, rate).Cmp(new(big.Int).Mul(big.NewInt(9801), big.NewInt(1e17))))
	assert.Equal(t, 0, Decay(bal, day/2, rate).Cmp(dump(995)), "half a day is linear")

	one := Decay(big.NewInt(1), 1, rate)
	assert.Zero(t, one.Sign(), "one second on one wei still decays")

	prev := bal
	for _, dt := range []uint64{1, 60, hour, day, 30 * day, 365 * day} {
		got := Decay(bal, dt, rate)
		require.Equalf(t, -1, got.Cmp(prev), "decay after %ds not below previous", dt)
		prev = got
	}
	assert.Zero(t, Decay(bal, 20_000*day, rate).Sign())
	assert.Zero(t, Decay(big.NewInt(0), day, rate).Sign())
}
