package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/dump"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
)

var (
	headRootKey   = []byte("dumpglory-head-root")
	gameConfigKey = []byte("dumpglory-config")

	// ErrNoGenesis is returned when opening a database that was never
	// initialised.
	ErrNoGenesis = errors.New("game: database not initialised")
	// ErrAllocExceedsSupply is returned when genesis allocations need more
	// DUMP than the initial supply.
	ErrAllocExceedsSupply = errors.New("game: genesis allocations exceed initial supply")
)

// StateDB is the state surface genesis writes to.
type StateDB interface {
	slots.StateWriter
	AddBalance(common.Address, *big.Int)
}

// SetupGenesis writes the genesis state described by cfg: epoch 1 opens at
// the genesis time, the initial DUMP supply goes to the owner less any
// explicit allocations, and the GLORY supply is minted.
func SetupGenesis(st StateDB, cfg *params.GameConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	allocated := new(big.Int)
	for _, acc := range cfg.Alloc {
		if acc.Dump != nil {
			if err := slots.CheckAmount(acc.Dump); err != nil {
				return fmt.Errorf("alloc %s: %w", acc.Address, err)
			}
			allocated.Add(allocated, acc.Dump)
		}
		if acc.Balance != nil {
			if err := slots.CheckAmount(acc.Balance); err != nil {
				return fmt.Errorf("alloc %s: %w", acc.Address, err)
			}
		}
		if params.IsSystemAddress(acc.Address) {
			return fmt.Errorf("alloc %s: system address", acc.Address)
		}
	}
	if allocated.Cmp(cfg.InitialDumpSupply) > 0 {
		return ErrAllocExceedsSupply
	}

	epoch.Init(st, cfg.GenesisTime)
	if rest := new(big.Int).Sub(cfg.InitialDumpSupply, allocated); rest.Sign() > 0 {
		dump.Mint(st, cfg.Owner, rest, cfg.GenesisTime)
	}
	for _, acc := range cfg.Alloc {
		if acc.Dump != nil && acc.Dump.Sign() > 0 {
			dump.Mint(st, acc.Address, acc.Dump, cfg.GenesisTime)
		}
		if acc.Balance != nil && acc.Balance.Sign() > 0 {
			st.AddBalance(acc.Address, acc.Balance)
		}
	}
	if err := glory.Genesis(st, cfg); err != nil {
		return err
	}
	log.Info("Wrote game genesis", "owner", cfg.Owner, "dump", cfg.InitialDumpSupply, "glory", cfg.GlorySupply, "alloc", len(cfg.Alloc))
	return nil
}

// ReadGameConfig loads the rules stored at genesis.
func ReadGameConfig(db ethdb.KeyValueReader) (*params.GameConfig, error) {
	blob, err := db.Get(gameConfigKey)
	if err != nil || len(blob) == 0 {
		return nil, ErrNoGenesis
	}
	cfg := new(params.GameConfig)
	if err := json.Unmarshal(blob, cfg); err != nil {
		return nil, fmt.Errorf("game: invalid stored config: %w", err)
	}
	return cfg, nil
}

func writeGameConfig(db ethdb.KeyValueWriter, cfg *params.GameConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return db.Put(gameConfigKey, blob)
}

// ReadHeadRoot returns the state root of the latest applied action.
func ReadHeadRoot(db ethdb.KeyValueReader) (common.Hash, bool) {
	blob, err := db.Get(headRootKey)
	if err != nil || len(blob) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(blob), true
}

func writeHeadRoot(db ethdb.KeyValueWriter, root common.Hash) error {
	return db.Put(headRootKey, root[:])
}
