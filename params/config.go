// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AdmissionMode selects how accounts become active participants.
type AdmissionMode string

const (
	// AdmissionSignup requires a paid signup during the waiting phase for
	// every epoch after the first.
	AdmissionSignup AdmissionMode = "signup"
	// AdmissionLegacy activates an account as soon as it stakes.
	AdmissionLegacy AdmissionMode = "legacy"
)

// NormalizeAdmissionMode canonicalizes a user supplied admission mode.
func NormalizeAdmissionMode(mode string) (AdmissionMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", string(AdmissionSignup):
		return AdmissionSignup, nil
	case string(AdmissionLegacy), "stake":
		return AdmissionLegacy, nil
	default:
		return "", fmt.Errorf("unknown admission mode %q", mode)
	}
}

// GenesisAccount funds an account with native value at genesis.
type GenesisAccount struct {
	Address common.Address
	Balance *big.Int
	Dump    *big.Int `toml:",omitempty"`
}

// GameConfig is the core config which determines the game rules. It is
// persisted next to the state and loaded from TOML by the CLI.
type GameConfig struct {
	Owner       common.Address // Administrator identity for owner-gated actions.
	Bridge      common.Address `toml:",omitempty"` // Only caller allowed to record bridge transfers.
	GenesisTime uint64         // Start of epoch 1, unix seconds.
	Admission   AdmissionMode

	EpochDuration uint64
	WaitingPeriod uint64

	MinimumStake      *big.Int
	InitialDumpSupply *big.Int
	EpochSupply       *big.Int

	TransferFeeBps     uint64
	DemurrageBpsPerDay uint64
	TheftBaseBps       uint64
	CooldownBase       uint64
	TheftCooldownBase  uint64

	BaseJoinFee *big.Int
	MaxJoinFee  *big.Int

	GlorySupply      *big.Int
	BugBountyReserve *big.Int
	BountyLow        *big.Int
	BountyMedium     *big.Int
	BountyHigh       *big.Int
	BountyCritical   *big.Int

	BridgeUserEpochLimit *big.Int
	BridgeEpochLimit     *big.Int

	BuybackRateBps uint64
	EntropySeed    common.Hash

	Alloc []GenesisAccount `toml:",omitempty"`
}

func dumpUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(Dump))
}

// DefaultGameConfig returns the rules used when no configuration file is given.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Admission:          AdmissionSignup,
		EpochDuration:      DefaultEpochDuration,
		WaitingPeriod:      DefaultWaitingPeriod,
		MinimumStake:       dumpUnits(100),
		InitialDumpSupply:  dumpUnits(1_000_000),
		EpochSupply:        dumpUnits(1_000_000),
		TransferFeeBps:     DefaultTransferFeeBps,
		DemurrageBpsPerDay: DefaultDemurrageBpsPerDay,
		TheftBaseBps:       DefaultTheftBaseBps,
		CooldownBase:       DefaultCooldownBase,
		TheftCooldownBase:  DefaultTheftCooldownBase,
		BaseJoinFee:        big.NewInt(1e15), // 0.001 native
		MaxJoinFee:         big.NewInt(1e16), // 0.01 native
		GlorySupply:        dumpUnits(1_000_000),
		BugBountyReserve:   dumpUnits(50_000),
		BountyLow:          dumpUnits(500),
		BountyMedium:       dumpUnits(2_000),
		BountyHigh:         dumpUnits(10_000),
		BountyCritical:     dumpUnits(25_000),

		BridgeUserEpochLimit: dumpUnits(10_000),
		BridgeEpochLimit:     dumpUnits(1_000_000),

		BuybackRateBps: DefaultBuybackRateBps,
	}
}

// Legacy reports whether staking alone activates a participant.
func (c *GameConfig) Legacy() bool {
	return c.Admission == AdmissionLegacy
}

// Validate checks the rule set for values the state machine cannot work with.
func (c *GameConfig) Validate() error {
	if c == nil {
		return errors.New("missing game config")
	}
	if c.Owner == (common.Address{}) {
		return errors.New("owner address is required")
	}
	if IsSystemAddress(c.Owner) {
		return fmt.Errorf("owner %v is a system address", c.Owner)
	}
	if _, err := NormalizeAdmissionMode(string(c.Admission)); err != nil {
		return err
	}
	if c.EpochDuration <= SecondsPerWeek {
		return fmt.Errorf("epoch duration %ds must exceed one week", c.EpochDuration)
	}
	if c.WaitingPeriod == 0 {
		return errors.New("waiting period must be positive")
	}
	if c.TransferFeeBps >= BasisPoints {
		return fmt.Errorf("transfer fee %d bps out of range", c.TransferFeeBps)
	}
	if c.DemurrageBpsPerDay == 0 || c.DemurrageBpsPerDay >= BasisPoints {
		return fmt.Errorf("demurrage %d bps/day out of range", c.DemurrageBpsPerDay)
	}
	for name, v := range map[string]*big.Int{
		"MinimumStake":         c.MinimumStake,
		"InitialDumpSupply":    c.InitialDumpSupply,
		"EpochSupply":          c.EpochSupply,
		"BaseJoinFee":          c.BaseJoinFee,
		"MaxJoinFee":           c.MaxJoinFee,
		"GlorySupply":          c.GlorySupply,
		"BugBountyReserve":     c.BugBountyReserve,
		"BountyLow":            c.BountyLow,
		"BountyMedium":         c.BountyMedium,
		"BountyHigh":           c.BountyHigh,
		"BountyCritical":       c.BountyCritical,
		"BridgeUserEpochLimit": c.BridgeUserEpochLimit,
		"BridgeEpochLimit":     c.BridgeEpochLimit,
	} {
		if v == nil || v.Sign() < 0 {
			return fmt.Errorf("%s must be a non-negative amount", name)
		}
	}
	if c.MinimumStake.Sign() == 0 {
		return errors.New("minimum stake must be positive")
	}
	if c.MaxJoinFee.Cmp(c.BaseJoinFee) < 0 {
		return errors.New("max join fee below base join fee")
	}
	if c.BugBountyReserve.Cmp(c.GlorySupply) > 0 {
		return errors.New("bug bounty reserve exceeds GLORY supply")
	}
	return nil
}

// String implements fmt.Stringer.
func (c *GameConfig) String() string {
	return fmt.Sprintf("{Owner: %v Admission: %s Epoch: %ds Waiting: %ds MinStake: %v FeeBps: %d DemurrageBps: %d}",
		c.Owner, c.Admission, c.EpochDuration, c.WaitingPeriod, c.MinimumStake, c.TransferFeeBps, c.DemurrageBpsPerDay)
}
