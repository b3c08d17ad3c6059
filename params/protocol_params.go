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

const (
	BasisPoints uint64 = 10_000 // Denominator of every *Bps parameter.

	SecondsPerMinute uint64 = 60
	SecondsPerHour   uint64 = 3_600
	SecondsPerDay    uint64 = 86_400
	SecondsPerWeek   uint64 = 7 * SecondsPerDay

	DefaultEpochDuration uint64 = 28 * SecondsPerDay // Length of the ACTIVE phase.
	DefaultWaitingPeriod uint64 = SecondsPerDay      // Length of the signup window.

	DefaultTransferFeeBps     uint64 = 30   // 0.3% of every gameplay transfer.
	DefaultDemurrageBpsPerDay uint64 = 100  // 1% decay per day.
	DefaultTheftBaseBps       uint64 = 1000 // Theft cost before the epoch multiplier.

	DefaultCooldownBase      uint64 = SecondsPerMinute // Floor of every give cooldown.
	DefaultTheftCooldownBase uint64 = SecondsPerHour   // Floor of every theft cooldown.

	// DefaultBuybackRateBps is the GLORY-per-DUMP rate of the built-in swapper.
	DefaultBuybackRateBps uint64 = 100

	// MaxDescriptionLength caps bug report text fields (bytes).
	MaxDescriptionLength = 16 * 1024
)
