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
	"github.com/ethereum/go-ethereum/common"
)

// System addresses: fixed, well-known accounts whose storage holds the state
// of each game component.
var (
	// DumpLedgerAddress stores DUMP balances, cooldowns and supply counters.
	DumpLedgerAddress = common.HexToAddress("0x0000000000000000000000000000000044554D50") // "DUMP"

	// EpochClockAddress stores the epoch number, phase and phase timing.
	EpochClockAddress = common.HexToAddress("0x0000000000000000000000000000000045504F43") // "EPOC"

	// ParticipantRegistryAddress stores stakes, activity flags and the
	// per-epoch average holdings accumulators.
	ParticipantRegistryAddress = common.HexToAddress("0x0000000000000000000000000000000050415254") // "PART"

	// FeePotAddress accumulates transfer fees, theft costs and join fees.
	FeePotAddress = common.HexToAddress("0x0000000000000000000000000000000046454550") // "FEEP"

	// GloryTokenAddress stores GLORY balances and finalized leaderboards.
	GloryTokenAddress = common.HexToAddress("0x00000000000000000000000000000000474C4F52") // "GLOR"

	// BugBountyAddress stores bug reports and holds the bounty reserve.
	BugBountyAddress = common.HexToAddress("0x0000000000000000000000000000000042554742") // "BUGB"

	// BridgeGatekeeperAddress stores per-epoch bridge transfer totals.
	BridgeGatekeeperAddress = common.HexToAddress("0x0000000000000000000000000000000042524447") // "BRDG"
)

// SystemAddresses lists every system account. Their balances are exempt from
// demurrage and they can never be participants.
var SystemAddresses = []common.Address{
	DumpLedgerAddress,
	EpochClockAddress,
	ParticipantRegistryAddress,
	FeePotAddress,
	GloryTokenAddress,
	BugBountyAddress,
	BridgeGatekeeperAddress,
}

// IsSystemAddress reports whether addr is one of the component accounts.
func IsSystemAddress(addr common.Address) bool {
	for _, sys := range SystemAddresses {
		if sys == addr {
			return true
		}
	}
	return false
}
