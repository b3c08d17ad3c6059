package main

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/tos-network/dumpglory/game"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/tos-network/dumpglory/journal"
	"github.com/tos-network/dumpglory/leaderboard"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/urfave/cli/v2"
)

var (
	historyLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Number of journal entries to show",
		Value: 20,
	}
	leaderboardTopFlag = &cli.IntFlag{
		Name:  "top",
		Usage: "Number of leaderboard entries to show (0 = all)",
		Value: 10,
	}
)

var (
	initCommand = &cli.Command{
		Action:    initGame,
		Name:      "init",
		Usage:     "Bootstrap and initialize a new game",
		ArgsUsage: " ",
		Flags:     flags.Merge(utils.DatabaseFlags, utils.GameFlags),
		Category:  "GAME COMMANDS",
		Description: `
The init command writes the genesis state of a new game into the data
directory. The rules are taken from --config and the game flags; the owner
address is mandatory. This is a destructive action: it fails if the data
directory already holds a game.`,
	}
	statusCommand = &cli.Command{
		Action:    status,
		Name:      "status",
		Usage:     "Show the epoch, supplies and fee pot, or one account",
		ArgsUsage: "[<address>]",
		Flags:     flags.Merge(utils.DatabaseFlags, []cli.Flag{utils.EndpointFlag}),
		Category:  "GAME COMMANDS",
	}
	leaderboardCommand = &cli.Command{
		Action:    showLeaderboard,
		Name:      "leaderboard",
		Usage:     "Show the current ranking or a finalized epoch's snapshot",
		ArgsUsage: "[<epoch>]",
		Flags:     flags.Merge(utils.DatabaseFlags, []cli.Flag{leaderboardTopFlag}),
		Category:  "GAME COMMANDS",
	}
	historyCommand = &cli.Command{
		Action:    history,
		Name:      "history",
		Usage:     "Show the most recent entries of the action journal",
		ArgsUsage: " ",
		Flags:     flags.Merge(utils.DatabaseFlags, []cli.Flag{historyLimitFlag}),
		Category:  "GAME COMMANDS",
	}
)

// initGame will initialise a new game, writing the genesis state and rules.
func initGame(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	rules := cfg.Game
	if rules.GenesisTime == 0 {
		rules.GenesisTime = uint64(time.Now().Unix())
	}
	if rules.EntropySeed == (common.Hash{}) {
		if _, err := crand.Read(rules.EntropySeed[:]); err != nil {
			utils.Fatalf("Failed to generate entropy seed: %v", err)
		}
	}
	if err := rules.Validate(); err != nil {
		utils.Fatalf("Invalid game rules: %v", err)
	}
	db := utils.MakeStateDatabase(ctx, false)
	defer db.Close()

	root, err := game.Init(db, rules)
	if err != nil {
		utils.Fatalf("Failed to write genesis state: %v", err)
	}
	log.Info("Successfully wrote genesis state", "root", root, "owner", rules.Owner,
		"admission", rules.Admission, "start", time.Unix(int64(rules.GenesisTime), 0))
	return nil
}

// openEngine opens the game stored in the data directory. The returned
// function releases the databases.
func openEngine(ctx *cli.Context, readonly bool) (*game.Engine, func()) {
	db := utils.MakeStateDatabase(ctx, readonly)
	jr := utils.MakeJournal(ctx)
	engine, err := game.New(db, game.Config{Journal: jr})
	if err != nil {
		jr.Close()
		db.Close()
		utils.Fatalf("Failed to open game: %v", err)
	}
	return engine, func() {
		if err := jr.Close(); err != nil {
			log.Error("Failed to close action journal", "err", err)
		}
		db.Close()
	}
}

func status(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return showAccount(ctx, utils.MakeAddress("address", ctx.Args().First()))
	}
	var s game.Status
	if endpoint := ctx.String(utils.EndpointFlag.Name); endpoint != "" {
		client, err := rpc.DialContext(ctx.Context, endpoint)
		if err != nil {
			utils.Fatalf("Failed to connect to %s: %v", endpoint, err)
		}
		defer client.Close()
		if err := client.CallContext(ctx.Context, &s, rpcapi.Namespace+"_status"); err != nil {
			return err
		}
	} else {
		engine, release := openEngine(ctx, true)
		defer release()
		s = engine.Status()
	}
	printStatus(s)
	return nil
}

func printStatus(s game.Status) {
	phase := color.GreenString(s.Phase)
	if s.Phase != "ACTIVE" {
		phase = color.YellowString(s.Phase)
	}
	paused := "no"
	if s.FeePot.EmergencyPaused {
		paused = color.RedString("yes")
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Epoch", strconv.FormatUint(s.Epoch, 10)},
		{"Phase", phase},
		{"Started", formatTime(s.StartTime)},
		{"Ends", formatTime(s.EndTime)},
		{"Time remaining", (time.Duration(s.TimeRemaining) * time.Second).String()},
		{"Waiting period end", formatTime(s.WaitingPeriodEnd)},
		{"Join fee", formatAmount(s.RequiredJoinFee)},
		{"Participants", strconv.FormatUint(s.Participants, 10)},
		{"Ranked", strconv.Itoa(s.Ranked)},
		{"DUMP supply", formatAmount(s.DumpSupply)},
		{"DUMP burned", formatAmount(s.DumpBurned)},
		{"GLORY supply", formatAmount(s.GlorySupply)},
		{"Bug bounty reserve", formatAmount(s.BugBountyReserve)},
		{"Bug reports", strconv.FormatUint(s.BugReports, 10)},
		{"Fees collected", formatAmount(s.FeePot.TotalFeesCollected)},
		{"Pending buyback", formatAmount(s.FeePot.Pending)},
		{"GLORY burned", formatAmount(s.FeePot.TotalGloryBurned)},
		{"Join fees", formatAmount(s.FeePot.JoinFees)},
		{"Emergency paused", paused},
		{"State root", s.Root.Hex()},
	})
	table.Render()
}

func showAccount(ctx *cli.Context, addr common.Address) error {
	engine, release := openEngine(ctx, true)
	defer release()

	a := engine.Account(addr)
	active := color.RedString("no")
	if a.Active {
		active = color.GreenString("yes")
	}
	rank := "-"
	if a.Rank >= 0 {
		rank = strconv.Itoa(a.Rank + 1)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Address", addr.Hex()},
		{"Active", active},
		{"Staked", formatAmount(a.Stake)},
		{"Balance", formatAmount(a.Balance)},
		{"Balance after demurrage", formatAmount(a.CurrentBalance)},
		{"Average held", formatAmount(a.AverageDumpHeld)},
		{"Rank", rank},
		{"Transfer cooldown until", formatTime(a.Cooldowns.Give)},
		{"Theft cooldown until", formatTime(a.Cooldowns.Theft)},
		{"GLORY", formatAmount(a.GloryBalance)},
		{"Bounties paid", strconv.FormatUint(a.BountiesPaid, 10)},
		{"Native balance", formatAmount(a.NativeBalance)},
		{"Nonce", strconv.FormatUint(a.Nonce, 10)},
	})
	table.Render()
	return nil
}

func showLeaderboard(ctx *cli.Context) error {
	engine, release := openEngine(ctx, true)
	defer release()

	var (
		entries []leaderboard.Entry
		title   string
	)
	if ctx.NArg() > 0 {
		n, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
		if err != nil {
			utils.Fatalf("Invalid epoch number %q: %v", ctx.Args().First(), err)
		}
		entries = engine.EpochLeaderboard(n)
		title = fmt.Sprintf("Epoch %d final ranking", n)
	} else {
		entries = engine.Board().Entries()
		title = fmt.Sprintf("Ranking (epoch %d)", engine.CurrentEpoch())
	}
	if top := ctx.Int(leaderboardTopFlag.Name); top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	fmt.Println(color.New(color.Bold).Sprint(title))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Address", "Average DUMP held"})
	for i, entry := range entries {
		table.Append([]string{strconv.Itoa(i + 1), entry.Address.Hex(), formatAmount(entry.Score)})
	}
	table.Render()
	return nil
}

func history(ctx *cli.Context) error {
	jr := utils.MakeJournal(ctx)
	defer jr.Close()

	entries, err := jr.Last(ctx.Int(historyLimitFlag.Name))
	if err != nil {
		utils.Fatalf("Failed to read action journal: %v", err)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Time", "From", "Action", "Result", "Root"})
	for _, e := range entries {
		table.Append(historyRow(e))
	}
	table.Render()
	return nil
}

func historyRow(e *journal.Entry) []string {
	result := color.GreenString("ok")
	if e.Failed() {
		result = color.RedString(e.Err)
	}
	return []string{
		strconv.FormatUint(e.Seq, 10),
		formatTime(e.Time),
		e.From.Hex(),
		e.Action,
		result,
		e.Root.TerminalString(),
	}
}

// formatAmount renders an 18 decimal token amount with four fractional digits.
func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	f := new(big.Float).SetInt(v)
	f.Quo(f, new(big.Float).SetInt64(params.Dump))
	return f.Text('f', 4)
}

func formatTime(ts uint64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
