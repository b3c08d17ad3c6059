// Package pricing holds the pure functions that price gameplay: give and
// theft cooldowns, the epoch-weighted theft cost, the transfer fee and the
// demurrage decay of a balance. Nothing here touches state.
package pricing

import (
	"errors"
	"math"
	"math/big"

	"github.com/tos-network/dumpglory/params"
)

// ErrDivisionByZero is returned when the theft cost curve is evaluated for a
// degenerate epoch length.
var ErrDivisionByZero = errors.New("pricing: division by zero in theft cost curve")

// Precision is the fixed-point scale of theft cost multipliers.
var Precision = big.NewInt(1e18)

var (
	bigBasisPoints = new(big.Int).SetUint64(params.BasisPoints)
	bigDaySeconds  = new(big.Int).SetUint64(params.SecondsPerDay)

	// cooldownQuadraticDivisor maps wei^2 to CooldownPrecision units so that
	// the quadratic term is tokens^2/100000 seconds.
	cooldownQuadraticDivisor = new(big.Int).Exp(big.NewInt(10), big.NewInt(22), nil)

	// demurrageCutoffDays bounds the exponent of the decay factor. At the
	// smallest non-zero rate the factor is below 1e-43 by then.
	demurrageCutoffDays = uint64(10_000)
)

func saturateUint64(v *big.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// CooldownPrecision is the fixed-point scale of cooldown durations: one
// second is CooldownPrecision units. At this scale one wei of amount adds
// exactly one unit, i.e. one second per 10 whole tokens.
var CooldownPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)

// cooldownTerms returns the linear and quadratic components of the cooldown
// for amount, in CooldownPrecision units. The linear term is amount itself so
// the sum is strictly increasing in wei.
func cooldownTerms(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int)
	}
	quad := new(big.Int).Mul(amount, amount)
	quad.Quo(quad, cooldownQuadraticDivisor)
	return quad.Add(quad, amount)
}

func scaledBase(base uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(base), CooldownPrecision)
}

// ComputeCooldown returns the give cooldown imposed on a sender of amount,
// scaled by CooldownPrecision: base + tokens/10 + tokens^2/100000 seconds.
func ComputeCooldown(amount *big.Int, base uint64) *big.Int {
	terms := cooldownTerms(amount)
	return terms.Add(terms, scaledBase(base))
}

// ComputeTheftCooldown returns the cooldown imposed on a thief after
// stealing amount, scaled by CooldownPrecision. Variable terms weigh twice
// as much as for gives.
func ComputeTheftCooldown(amount *big.Int, base uint64) *big.Int {
	terms := cooldownTerms(amount)
	terms.Lsh(terms, 1)
	return terms.Add(terms, scaledBase(base))
}

// CooldownSeconds rounds a scaled cooldown up to whole seconds.
func CooldownSeconds(d *big.Int) uint64 {
	secs, rem := new(big.Int).QuoRem(d, CooldownPrecision, new(big.Int))
	if rem.Sign() > 0 {
		secs.Add(secs, big.NewInt(1))
	}
	return saturateUint64(secs)
}

// CooldownEnd returns the timestamp at which a cooldown of d started at now
// expires.
func CooldownEnd(now uint64, d *big.Int) uint64 {
	return addSaturating(now, CooldownSeconds(d))
}

// TheftMultiplier returns the cost multiplier, scaled by Precision, for a
// theft with remaining seconds left in an epoch of the given duration.
//
//	remaining >= 1 week : 1 -> 1.5 linear over the bulk of the epoch
//	1 day .. 1 week     : 1.5 -> 3 linear
//	1 hour .. 1 day     : 3 -> 10 quadratic
//	below 1 hour        : 10 -> 10240, doubling every 6 minutes
//
// At remaining == 0 the curve saturates at 10240.
func TheftMultiplier(remaining, duration uint64) (*big.Int, error) {
	if duration <= params.SecondsPerWeek {
		return nil, ErrDivisionByZero
	}
	if remaining > duration {
		remaining = duration
	}
	var (
		p    = Precision
		week = params.SecondsPerWeek
		day  = params.SecondsPerDay
		hour = params.SecondsPerHour
		m    = new(big.Int)
	)
	switch {
	case remaining >= week:
		// 1 + 0.5 * (E - r) / (E - 7d)
		m.SetUint64(duration - remaining)
		m.Mul(m, p)
		m.Quo(m, new(big.Int).SetUint64(2*(duration-week)))
		m.Add(m, p)

	case remaining >= day:
		// 1.5 + 1.5 * (7d - r) / 6d
		m.SetUint64(week - remaining)
		m.Mul(m, big.NewInt(3))
		m.Mul(m, p)
		m.Quo(m, new(big.Int).SetUint64(2*(week-day)))
		m.Add(m, new(big.Int).Quo(new(big.Int).Mul(p, big.NewInt(3)), big.NewInt(2)))

	case remaining >= hour:
		// 3 + 7 * x^2, x = (1d - r) / 23h
		x := new(big.Int).SetUint64(day - remaining)
		den := new(big.Int).SetUint64(day - hour)
		m.Mul(x, x)
		m.Mul(m, big.NewInt(7))
		m.Mul(m, p)
		m.Quo(m, den.Mul(den, den))
		m.Add(m, new(big.Int).Mul(p, big.NewInt(3)))

	default:
		// 10 * 2^k * (1 + f), k + f = 10 * (1h - r) / 1h
		u := 10 * (hour - remaining)
		k := u / hour
		frac := u % hour
		m.Mul(p, big.NewInt(10))
		m.Lsh(m, uint(k))
		m.Mul(m, new(big.Int).SetUint64(hour+frac))
		m.Quo(m, new(big.Int).SetUint64(hour))
	}
	return m, nil
}

// CalculateTheftCost returns what a thief pays, on top of the stolen amount,
// to steal amount with remaining seconds left in the epoch.
func CalculateTheftCost(amount *big.Int, remaining, duration, baseBps uint64) (*big.Int, error) {
	m, err := TheftMultiplier(remaining, duration)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int), nil
	}
	cost := new(big.Int).Mul(amount, new(big.Int).SetUint64(baseBps))
	cost.Mul(cost, m)
	return cost.Quo(cost, new(big.Int).Mul(bigBasisPoints, Precision)), nil
}

// TransferFee returns the fee withheld from a gameplay transfer of amount.
func TransferFee(amount *big.Int, feeBps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	return fee.Quo(fee, bigBasisPoints)
}

// Decay returns balance after elapsed seconds of demurrage at bpsPerDay.
// Whole days compound; the partial day decays linearly. Any positive elapsed
// time on a positive balance removes at least one wei.
func Decay(balance *big.Int, elapsed, bpsPerDay uint64) *big.Int {
	if balance.Sign() <= 0 || elapsed == 0 || bpsPerDay == 0 {
		return new(big.Int).Set(balance)
	}
	if bpsPerDay >= params.BasisPoints {
		return new(big.Int)
	}
	days := elapsed / params.SecondsPerDay
	if days >= demurrageCutoffDays {
		return new(big.Int)
	}
	secs := elapsed % params.SecondsPerDay

	rate := new(big.Int).SetUint64(bpsPerDay)
	dayDen := new(big.Int).Mul(bigBasisPoints, bigDaySeconds)

	num := new(big.Int).Exp(new(big.Int).Sub(bigBasisPoints, rate), new(big.Int).SetUint64(days), nil)
	partial := new(big.Int).Mul(rate, new(big.Int).SetUint64(secs))
	num.Mul(num, partial.Sub(dayDen, partial))

	den := new(big.Int).Exp(bigBasisPoints, new(big.Int).SetUint64(days), nil)
	den.Mul(den, dayDen)

	out := new(big.Int).Mul(balance, num)
	out.Quo(out, den)
	if out.Cmp(balance) >= 0 {
		out.Sub(balance, big.NewInt(1))
	}
	return out
}
