package glory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	token = params.GloryTokenAddress

	totalSupplySlot = slots.Named("glory\x00totalSupply")
)

func balanceSlot(addr common.Address) common.Hash { return slots.Field(addr, "glory") }

// BalanceOf returns the GLORY balance of addr.
func BalanceOf(db slots.StateReader, addr common.Address) *big.Int {
	return slots.ReadAmount(db, token, balanceSlot(addr))
}

// TotalSupply returns the GLORY in existence.
func TotalSupply(db slots.StateReader) *big.Int {
	return slots.ReadAmount(db, token, totalSupplySlot)
}

// Reserve returns the GLORY still escrowed for bug bounties.
func Reserve(db slots.StateReader) *big.Int {
	return BalanceOf(db, params.BugBountyAddress)
}

// Circulating returns the supply outside the bug bounty reserve.
func Circulating(db slots.StateReader) *big.Int {
	return new(big.Int).Sub(TotalSupply(db), Reserve(db))
}

// CheckBurn reports whether amount may be burned from the circulating supply.
func CheckBurn(db slots.StateReader, amount *big.Int) error {
	if amount.Cmp(Circulating(db)) > 0 {
		return ErrBurnExceedsSupply
	}
	return nil
}

// BurnSupply destroys amount of GLORY bought back on the external venue.
// The caller runs CheckBurn first.
func BurnSupply(db slots.StateWriter, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	slots.SubAmount(db, token, totalSupplySlot, amount)
}

// Genesis mints the fixed supply: the bounty reserve to the bounty ledger,
// the rest to the owner.
func Genesis(db slots.StateWriter, cfg *params.GameConfig) error {
	if TotalSupply(db).Sign() != 0 {
		return ErrAlreadyMinted
	}
	ownerShare := new(big.Int).Sub(cfg.GlorySupply, cfg.BugBountyReserve)
	slots.WriteAmount(db, token, balanceSlot(cfg.Owner), ownerShare)
	slots.WriteAmount(db, token, balanceSlot(params.BugBountyAddress), cfg.BugBountyReserve)
	slots.WriteAmount(db, token, totalSupplySlot, cfg.GlorySupply)
	return nil
}

// Move transfers amount from one holder to another. The caller checks the
// balance.
func Move(db slots.StateWriter, from, to common.Address, amount *big.Int) {
	slots.SubAmount(db, token, balanceSlot(from), amount)
	slots.AddAmount(db, token, balanceSlot(to), amount)
}
