package feepot

import (
	"math/big"

	"github.com/tos-network/dumpglory/params"
)

// FixedRateSwapper prices DUMP at a constant GLORY rate. It stands in for
// the external liquidity venue when none is configured.
type FixedRateSwapper struct {
	RateBps uint64 // GLORY received per DUMP, in basis points
}

// SwapForGlory implements sysaction.Swapper.
func (s FixedRateSwapper) SwapForGlory(dumpIn *big.Int) (*big.Int, error) {
	out := new(big.Int).Mul(dumpIn, new(big.Int).SetUint64(s.RateBps))
	return out.Quo(out, new(big.Int).SetUint64(params.BasisPoints)), nil
}
