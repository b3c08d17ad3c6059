// Package rpcapi exposes the game over JSON-RPC (namespace "dump") and HTTP.
package rpcapi

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	lru "github.com/hashicorp/golang-lru"
	"github.com/tos-network/dumpglory/bounty"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/game"
	"github.com/tos-network/dumpglory/leaderboard"
)

// GameAPI implements the dump_* RPC namespace.
type GameAPI struct {
	engine *game.Engine
	boards *lru.Cache // epoch number -> []LeaderboardEntry, finalized epochs only
}

// NewGameAPI creates a GameAPI backed by engine, caching up to cacheSize
// finalized leaderboards.
func NewGameAPI(engine *game.Engine, cacheSize int) *GameAPI {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	boards, _ := lru.New(cacheSize)
	return &GameAPI{engine: engine, boards: boards}
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Address common.Address `json:"address"`
	Score   *hexutil.Big   `json:"score"`
}

// EpochInfo is the timing of one epoch.
type EpochInfo struct {
	Number      hexutil.Uint64 `json:"number"`
	StartTime   hexutil.Uint64 `json:"startTime"`
	EndTime     hexutil.Uint64 `json:"endTime"`
	FinalizedAt hexutil.Uint64 `json:"finalizedAt"`
}

// SendResult is returned by SendAction.
type SendResult struct {
	Action string         `json:"action"`
	From   common.Address `json:"from"`
	Root   common.Hash    `json:"root"`
	Time   hexutil.Uint64 `json:"time"`
	Seq    hexutil.Uint64 `json:"seq"`
}

func toEntries(in []leaderboard.Entry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(in))
	for i, e := range in {
		out[i] = LeaderboardEntry{Address: e.Address, Score: (*hexutil.Big)(e.Score)}
	}
	return out
}

// GetCurrentBalance returns the balance with pending demurrage applied.
func (api *GameAPI) GetCurrentBalance(_ context.Context, addr common.Address) *hexutil.Big {
	return (*hexutil.Big)(api.engine.CurrentBalance(addr))
}

// BalanceOf returns the stored balance.
func (api *GameAPI) BalanceOf(_ context.Context, addr common.Address) *hexutil.Big {
	return (*hexutil.Big)(api.engine.BalanceOf(addr))
}

// GetUserRank returns the 0-based rank of addr, -1 if unranked.
func (api *GameAPI) GetUserRank(_ context.Context, addr common.Address) int {
	return api.engine.UserRank(addr)
}

// GetLeaderboard returns ranked addresses, ascending by score.
func (api *GameAPI) GetLeaderboard(_ context.Context) []common.Address {
	return api.engine.Leaderboard()
}

// GetUserAverageDumpHeld returns the time-weighted average holding.
func (api *GameAPI) GetUserAverageDumpHeld(_ context.Context, addr common.Address) *hexutil.Big {
	return (*hexutil.Big)(api.engine.AverageDumpHeld(addr))
}

func (api *GameAPI) CurrentEpoch(_ context.Context) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.CurrentEpoch())
}

func (api *GameAPI) GetEpochTimeRemaining(_ context.Context) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.EpochTimeRemaining())
}

func (api *GameAPI) ComputeCooldown(_ context.Context, amount hexutil.Big) *hexutil.Big {
	return (*hexutil.Big)(api.engine.ComputeCooldown(amount.ToInt()))
}

func (api *GameAPI) ComputeTheftCooldown(_ context.Context, amount hexutil.Big) *hexutil.Big {
	return (*hexutil.Big)(api.engine.ComputeTheftCooldown(amount.ToInt()))
}

// CalculateTheftCost prices a theft of amount at the current time.
func (api *GameAPI) CalculateTheftCost(_ context.Context, amount hexutil.Big) (*hexutil.Big, error) {
	cost, err := api.engine.CalculateTheftCost(amount.ToInt())
	if err != nil {
		return nil, toAPIError(err)
	}
	return (*hexutil.Big)(cost), nil
}

func (api *GameAPI) CooldownEndTime(_ context.Context, addr common.Address) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.CooldownEndTime(addr))
}

func (api *GameAPI) IsActiveParticipant(_ context.Context, addr common.Address) bool {
	return api.engine.IsActiveParticipant(addr)
}

func (api *GameAPI) GetMinimumStake(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(api.engine.MinimumStake())
}

func (api *GameAPI) TotalFeesCollected(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(api.engine.FeePot().TotalFeesCollected)
}

func (api *GameAPI) TotalGloryBurned(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(api.engine.FeePot().TotalGloryBurned)
}

func (api *GameAPI) EmergencyPaused(_ context.Context) bool {
	return api.engine.FeePot().EmergencyPaused
}

func (api *GameAPI) GetBugBountyReserve(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(api.engine.BugBountyReserve())
}

// GetAllBugReports returns report ids in submission order.
func (api *GameAPI) GetAllBugReports(_ context.Context) []hexutil.Uint64 {
	ids := api.engine.AllBugReports()
	out := make([]hexutil.Uint64, len(ids))
	for i, id := range ids {
		out[i] = hexutil.Uint64(id)
	}
	return out
}

// GetBugReport returns one report.
func (api *GameAPI) GetBugReport(_ context.Context, id hexutil.Uint64) (*bounty.Report, error) {
	r, err := api.engine.BugReport(uint64(id))
	if err != nil {
		return nil, toAPIError(err)
	}
	return &r, nil
}

func (api *GameAPI) RequiredJoinFee(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(api.engine.RequiredJoinFee())
}

func (api *GameAPI) GloryBalanceOf(_ context.Context, addr common.Address) *hexutil.Big {
	return (*hexutil.Big)(api.engine.GloryBalanceOf(addr))
}

func (api *GameAPI) ReporterTotalBounties(_ context.Context, addr common.Address) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.ReporterTotalBounties(addr))
}

func (api *GameAPI) CanTransfer(_ context.Context, user common.Address, amount hexutil.Big) bool {
	return api.engine.CanTransfer(user, amount.ToInt())
}

func (api *GameAPI) EpochTransferStats(_ context.Context, n hexutil.Uint64) *hexutil.Big {
	return (*hexutil.Big)(api.engine.EpochTransferStats(uint64(n)))
}

func (api *GameAPI) EpochInfo(_ context.Context, n hexutil.Uint64) EpochInfo {
	info := api.engine.EpochInfo(uint64(n))
	return toEpochInfo(info)
}

func toEpochInfo(info epoch.Info) EpochInfo {
	return EpochInfo{
		Number:      hexutil.Uint64(info.Number),
		StartTime:   hexutil.Uint64(info.StartTime),
		EndTime:     hexutil.Uint64(info.EndTime),
		FinalizedAt: hexutil.Uint64(info.FinalizedAt),
	}
}

// EpochLeaderboard returns the final ranking of a finalized epoch.
func (api *GameAPI) EpochLeaderboard(_ context.Context, n hexutil.Uint64) []LeaderboardEntry {
	if cached, ok := api.boards.Get(uint64(n)); ok {
		return cached.([]LeaderboardEntry)
	}
	entries := toEntries(api.engine.EpochLeaderboard(uint64(n)))
	if len(entries) > 0 {
		api.boards.Add(uint64(n), entries)
	}
	return entries
}

func (api *GameAPI) StakedAmount(_ context.Context, addr common.Address) *hexutil.Big {
	return (*hexutil.Big)(api.engine.StakedAmount(addr))
}

// ParticipantInfo returns everything known about addr.
func (api *GameAPI) ParticipantInfo(_ context.Context, addr common.Address) game.Account {
	return api.engine.Account(addr)
}

func (api *GameAPI) Nonce(_ context.Context, addr common.Address) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.Nonce(addr))
}

// Status returns a summary of the game.
func (api *GameAPI) Status(_ context.Context) game.Status {
	return api.engine.Status()
}

// SendAction verifies and applies a signed action.
func (api *GameAPI) SendAction(_ context.Context, args SignedAction) (*SendResult, error) {
	from, err := args.Sender()
	if err != nil {
		return nil, toAPIError(err)
	}
	receipt, err := api.engine.Apply(game.Message{
		From:       from,
		Nonce:      uint64(args.Nonce),
		CheckNonce: true,
		Value:      args.value(),
		Data:       args.Data,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SendResult{
		Action: string(receipt.Action),
		From:   from,
		Root:   receipt.Root,
		Time:   hexutil.Uint64(receipt.Time),
		Seq:    hexutil.Uint64(receipt.Seq),
	}, nil
}
