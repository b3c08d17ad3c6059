package game

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/bounty"
	"github.com/tos-network/dumpglory/bridge"
	"github.com/tos-network/dumpglory/dump"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/feepot"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/leaderboard"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/pricing"
)

// Status is a summary of the whole game.
type Status struct {
	Epoch            uint64        `json:"epoch"`
	Phase            string        `json:"phase"`
	StartTime        uint64        `json:"startTime"`
	EndTime          uint64        `json:"endTime"`
	TimeRemaining    uint64        `json:"timeRemaining"`
	WaitingPeriodEnd uint64        `json:"waitingPeriodEnd"`
	RequiredJoinFee  *big.Int      `json:"requiredJoinFee"`
	Participants     uint64        `json:"participants"`
	Ranked           int           `json:"ranked"`
	DumpSupply       *big.Int      `json:"dumpSupply"`
	DumpBurned       *big.Int      `json:"dumpBurned"`
	GlorySupply      *big.Int      `json:"glorySupply"`
	BugBountyReserve *big.Int      `json:"bugBountyReserve"`
	BugReports       uint64        `json:"bugReports"`
	FeePot           feepot.Status `json:"feePot"`
	Root             common.Hash   `json:"root"`
	Time             uint64        `json:"time"`
}

// Account is everything the game knows about one address.
type Account struct {
	participant.Record
	Balance         *big.Int       `json:"balance"`
	CurrentBalance  *big.Int       `json:"currentBalance"`
	AverageDumpHeld *big.Int       `json:"averageDumpHeld"`
	LastDemurrage   uint64         `json:"lastDemurrage"`
	Cooldowns       dump.Cooldowns `json:"cooldowns"`
	Rank            int            `json:"rank"`
	GloryBalance    *big.Int       `json:"gloryBalance"`
	BountiesPaid    uint64         `json:"bountiesPaid"`
	NativeBalance   *big.Int       `json:"nativeBalance"`
	Nonce           uint64         `json:"nonce"`
}

// view runs fn with the state lock held.
func (e *Engine) view(fn func(now uint64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.clock.Now())
}

// Status summarises the game at the current time.
func (e *Engine) Status() Status {
	var s Status
	e.view(func(now uint64) {
		ep := epoch.Read(e.state)
		s = Status{
			Epoch:            ep.Number,
			Phase:            ep.Phase.String(),
			StartTime:        ep.StartTime,
			EndTime:          ep.EndTime(e.rules.EpochDuration),
			TimeRemaining:    ep.TimeRemaining(now, e.rules.EpochDuration),
			WaitingPeriodEnd: ep.WaitingPeriodEnd,
			RequiredJoinFee:  ep.RequiredJoinFee(now, e.rules.BaseJoinFee, e.rules.MaxJoinFee),
			Participants:     participant.Count(e.state),
			Ranked:           e.board.Len(),
			DumpSupply:       dump.TotalSupply(e.state),
			DumpBurned:       dump.TotalBurned(e.state),
			GlorySupply:      glory.TotalSupply(e.state),
			BugBountyReserve: glory.Reserve(e.state),
			BugReports:       bounty.Count(e.state),
			FeePot:           feepot.Read(e.state),
			Root:             e.root,
			Time:             now,
		}
	})
	return s
}

// Account returns the full view of addr.
func (e *Engine) Account(addr common.Address) Account {
	var a Account
	e.view(func(now uint64) {
		ep := epoch.Read(e.state)
		a = Account{
			Record:          participant.Read(e.state, addr),
			Balance:         dump.ReadBalance(e.state, addr),
			CurrentBalance:  dump.CurrentBalance(e.state, e.rules, addr, now),
			AverageDumpHeld: dump.AverageHeld(e.state, e.rules, ep, addr, now),
			LastDemurrage:   dump.LastDemurrageTime(e.state, addr),
			Cooldowns:       dump.ReadCooldowns(e.state, addr),
			Rank:            e.board.Rank(addr),
			GloryBalance:    glory.BalanceOf(e.state, addr),
			BountiesPaid:    bounty.ReporterTotalBounties(e.state, addr),
			NativeBalance:   e.state.GetBalance(addr),
			Nonce:           e.state.GetNonce(addr),
		}
	})
	return a
}

// CurrentBalance projects addr's balance with pending demurrage applied.
func (e *Engine) CurrentBalance(addr common.Address) *big.Int {
	var b *big.Int
	e.view(func(now uint64) { b = dump.CurrentBalance(e.state, e.rules, addr, now) })
	return b
}

// BalanceOf returns addr's stored balance.
func (e *Engine) BalanceOf(addr common.Address) *big.Int {
	var b *big.Int
	e.view(func(uint64) { b = dump.ReadBalance(e.state, addr) })
	return b
}

// UserRank returns addr's 0-based leaderboard position, -1 if unranked.
func (e *Engine) UserRank(addr common.Address) int { return e.board.Rank(addr) }

// Leaderboard returns the ranked addresses, ascending by score.
func (e *Engine) Leaderboard() []common.Address { return e.board.Ranked() }

// AverageDumpHeld returns addr's time-weighted average for the current epoch.
func (e *Engine) AverageDumpHeld(addr common.Address) *big.Int {
	var avg *big.Int
	e.view(func(now uint64) {
		avg = dump.AverageHeld(e.state, e.rules, epoch.Read(e.state), addr, now)
	})
	return avg
}

// CurrentEpoch returns the current epoch number.
func (e *Engine) CurrentEpoch() uint64 {
	var n uint64
	e.view(func(uint64) { n = epoch.Read(e.state).Number })
	return n
}

// EpochTimeRemaining returns the seconds left in the active phase.
func (e *Engine) EpochTimeRemaining() uint64 {
	var r uint64
	e.view(func(now uint64) { r = epoch.Read(e.state).TimeRemaining(now, e.rules.EpochDuration) })
	return r
}

// EpochInfo returns the timing of epoch n.
func (e *Engine) EpochInfo(n uint64) epoch.Info {
	var info epoch.Info
	e.view(func(uint64) { info = epoch.ReadInfo(e.state, n, e.rules.EpochDuration) })
	return info
}

// EpochLeaderboard returns the final ranking of a finalized epoch.
func (e *Engine) EpochLeaderboard(n uint64) []leaderboard.Entry {
	var entries []leaderboard.Entry
	e.view(func(uint64) { entries = glory.ReadSnapshot(e.state, n) })
	return entries
}

// RequiredJoinFee returns the signup fee at the current time.
func (e *Engine) RequiredJoinFee() *big.Int {
	var fee *big.Int
	e.view(func(now uint64) {
		fee = epoch.Read(e.state).RequiredJoinFee(now, e.rules.BaseJoinFee, e.rules.MaxJoinFee)
	})
	return fee
}

// ComputeCooldown returns the give cooldown for amount, scaled by
// pricing.CooldownPrecision.
func (e *Engine) ComputeCooldown(amount *big.Int) *big.Int {
	return pricing.ComputeCooldown(amount, e.rules.CooldownBase)
}

// ComputeTheftCooldown returns the theft cooldown for amount, scaled by
// pricing.CooldownPrecision.
func (e *Engine) ComputeTheftCooldown(amount *big.Int) *big.Int {
	return pricing.ComputeTheftCooldown(amount, e.rules.TheftCooldownBase)
}

// CalculateTheftCost prices stealing amount at the current time.
func (e *Engine) CalculateTheftCost(amount *big.Int) (*big.Int, error) {
	var (
		cost *big.Int
		err  error
	)
	e.view(func(now uint64) {
		remaining := epoch.Read(e.state).TimeRemaining(now, e.rules.EpochDuration)
		cost, err = pricing.CalculateTheftCost(amount, remaining, e.rules.EpochDuration, e.rules.TheftBaseBps)
	})
	return cost, err
}

// CooldownEndTime returns when addr may give again.
func (e *Engine) CooldownEndTime(addr common.Address) uint64 {
	var end uint64
	e.view(func(uint64) { end = dump.ReadCooldowns(e.state, addr).Give })
	return end
}

// Cooldowns returns all cooldown ends of addr.
func (e *Engine) Cooldowns(addr common.Address) dump.Cooldowns {
	var c dump.Cooldowns
	e.view(func(uint64) { c = dump.ReadCooldowns(e.state, addr) })
	return c
}

// IsActiveParticipant reports whether addr may play.
func (e *Engine) IsActiveParticipant(addr common.Address) bool {
	var ok bool
	e.view(func(uint64) { ok = participant.IsActive(e.state, addr) })
	return ok
}

// StakedAmount returns addr's stake.
func (e *Engine) StakedAmount(addr common.Address) *big.Int {
	var s *big.Int
	e.view(func(uint64) { s = participant.ReadStake(e.state, addr) })
	return s
}

// MinimumStake returns the stake needed to participate.
func (e *Engine) MinimumStake() *big.Int { return new(big.Int).Set(e.rules.MinimumStake) }

// FeePot returns the fee pot status.
func (e *Engine) FeePot() feepot.Status {
	var s feepot.Status
	e.view(func(uint64) { s = feepot.Read(e.state) })
	return s
}

// GloryBalanceOf returns addr's GLORY.
func (e *Engine) GloryBalanceOf(addr common.Address) *big.Int {
	var b *big.Int
	e.view(func(uint64) { b = glory.BalanceOf(e.state, addr) })
	return b
}

// BugBountyReserve returns the GLORY left for bounties.
func (e *Engine) BugBountyReserve() *big.Int {
	var r *big.Int
	e.view(func(uint64) { r = glory.Reserve(e.state) })
	return r
}

// AllBugReports returns every report id in submission order.
func (e *Engine) AllBugReports() []uint64 {
	var ids []uint64
	e.view(func(uint64) { ids = bounty.IDs(e.state) })
	return ids
}

// BugReport returns report id.
func (e *Engine) BugReport(id uint64) (bounty.Report, error) {
	var (
		r  bounty.Report
		ok bool
	)
	e.view(func(uint64) {
		if ok = bounty.Exists(e.state, id); ok {
			r = bounty.Read(e.state, id)
		}
	})
	if !ok {
		return r, bounty.ErrReportNotFound
	}
	return r, nil
}

// ReporterTotalBounties returns how many of addr's reports were paid.
func (e *Engine) ReporterTotalBounties(addr common.Address) uint64 {
	var n uint64
	e.view(func(uint64) { n = bounty.ReporterTotalBounties(e.state, addr) })
	return n
}

// CanTransfer reports whether the bridge may move amount for user now.
func (e *Engine) CanTransfer(user common.Address, amount *big.Int) bool {
	var ok bool
	e.view(func(uint64) {
		ok = bridge.CanTransfer(e.state, e.rules, epoch.Read(e.state).Number, user, amount)
	})
	return ok
}

// EpochTransferStats returns the DUMP bridged during epoch n.
func (e *Engine) EpochTransferStats(n uint64) *big.Int {
	var total *big.Int
	e.view(func(uint64) { total = bridge.EpochTransferStats(e.state, n) })
	return total
}

// Nonce returns the next action nonce of addr.
func (e *Engine) Nonce(addr common.Address) uint64 {
	var n uint64
	e.view(func(uint64) { n = e.state.GetNonce(addr) })
	return n
}
