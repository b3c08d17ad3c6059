package game

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tos-network/dumpglory/sysaction"
)

// KeccakEntropy derives rollover draws from keccak256(seed || epoch || addr).
type KeccakEntropy struct {
	Seed common.Hash
}

// Draw implements sysaction.Entropy.
func (k KeccakEntropy) Draw(epoch uint64, addr common.Address) uint64 {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], epoch)
	h := crypto.Keccak256(k.Seed[:], n[:], addr[:])
	return binary.BigEndian.Uint64(h[:8])
}

// weightRange bounds a single participant's rollover weight.
const weightRange = 1_000_000

// splitSupply divides supply between addrs in proportion to entropy-derived
// weights. Every share is at least one wei; rounding dust is not minted.
func splitSupply(supply *big.Int, epoch uint64, addrs []common.Address, src sysaction.Entropy) []*big.Int {
	if len(addrs) == 0 {
		return nil
	}
	weights := make([]*big.Int, len(addrs))
	sum := new(big.Int)
	for i, addr := range addrs {
		weights[i] = new(big.Int).SetUint64(src.Draw(epoch, addr)%weightRange + 1)
		sum.Add(sum, weights[i])
	}
	shares := make([]*big.Int, len(addrs))
	for i, w := range weights {
		s := new(big.Int).Mul(supply, w)
		s.Quo(s, sum)
		if s.Sign() == 0 {
			s.SetUint64(1)
		}
		shares[i] = s
	}
	return shares
}
