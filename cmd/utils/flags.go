// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.


// Package utils contains internal helper functions for dumpglory commands.
package utils

import (
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"runtime"
	godebug "runtime/debug"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	gopsutil "github.com/shirou/gopsutil/mem"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/tos-network/dumpglory/journal"
	"github.com/tos-network/dumpglory/metrics"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.PathFlag{
		Name:     "datadir",
		Usage:    "Data directory for the state database and action journal",
		Value:    DefaultDataDir(),
		Category: flags.StateCategory,
	}
	ConfigFileFlag = &cli.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the state database",
		Value:    128,
		Category: flags.StateCategory,
	}
	FDLimitFlag = &cli.IntFlag{
		Name:     "fdlimit",
		Usage:    "Raise the open file descriptor resource limit (default = system fd limit)",
		Category: flags.StateCategory,
	}
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}

	// Game rules, only consulted by init
	OwnerFlag = &cli.StringFlag{
		Name:     "game.owner",
		Usage:    "Administrator address for owner-gated actions",
		Category: flags.GameCategory,
	}
	BridgeFlag = &cli.StringFlag{
		Name:     "game.bridge",
		Usage:    "Address allowed to record bridge transfers",
		Category: flags.GameCategory,
	}
	AdmissionFlag = &cli.StringFlag{
		Name:     "game.admission",
		Usage:    "Participant admission mode (signup, legacy)",
		Value:    string(params.AdmissionSignup),
		Category: flags.GameCategory,
	}
	GenesisTimeFlag = &cli.Uint64Flag{
		Name:     "game.genesis",
		Usage:    "Start of epoch 1 in unix seconds (default = now)",
		Category: flags.GameCategory,
	}
	EpochDurationFlag = &cli.Uint64Flag{
		Name:     "game.epoch",
		Usage:    "Epoch duration in seconds",
		Value:    params.DefaultEpochDuration,
		Category: flags.GameCategory,
	}
	WaitingPeriodFlag = &cli.Uint64Flag{
		Name:     "game.waiting",
		Usage:    "Waiting period between epochs in seconds",
		Value:    params.DefaultWaitingPeriod,
		Category: flags.GameCategory,
	}
	EntropySeedFlag = &cli.StringFlag{
		Name:     "game.seed",
		Usage:    "Hex seed for the epoch supply split",
		Category: flags.GameCategory,
	}

	// Account settings
	KeyFileFlag = &cli.PathFlag{
		Name:     "keyfile",
		Usage:    "Encrypted key file used to sign actions",
		Category: flags.AccountCategory,
	}
	PasswordFileFlag = &cli.PathFlag{
		Name:     "password",
		Usage:    "Password file to use for non-interactive password input",
		Category: flags.AccountCategory,
	}

	// API settings
	HTTPHostFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP-RPC server listening interface",
		Value:    rpcapi.DefaultConfig.Host,
		Category: flags.APICategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP-RPC server listening port",
		Value:    rpcapi.DefaultConfig.Port,
		Category: flags.APICategory,
	}
	HTTPCORSDomainFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Value:    strings.Join(rpcapi.DefaultConfig.CorsOrigins, ","),
		Category: flags.APICategory,
	}
	HTTPRateLimitFlag = &cli.Float64Flag{
		Name:     "http.ratelimit",
		Usage:    "Maximum JSON-RPC requests per second (0 = unlimited)",
		Value:    rpcapi.DefaultConfig.RateLimit,
		Category: flags.APICategory,
	}
	HTTPRateBurstFlag = &cli.IntFlag{
		Name:     "http.rateburst",
		Usage:    "JSON-RPC request burst allowance",
		Value:    rpcapi.DefaultConfig.RateBurst,
		Category: flags.APICategory,
	}
	LeaderboardCacheFlag = &cli.IntFlag{
		Name:     "http.leaderboards",
		Usage:    "Number of finalized epoch leaderboards kept in memory",
		Value:    rpcapi.DefaultConfig.CacheSize,
		Category: flags.APICategory,
	}
	EndpointFlag = &cli.StringFlag{
		Name:     "endpoint",
		Usage:    "JSON-RPC endpoint to send actions to (default = apply to the local database)",
		Category: flags.APICategory,
	}

	// Metrics flags
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	MetricsEnabledExpensiveFlag = &cli.BoolFlag{
		Name:     "metrics.expensive",
		Usage:    "Enable expensive metrics collection and reporting",
		Category: flags.MetricsCategory,
	}

	// MetricsHTTPFlag defines the endpoint for a stand-alone metrics HTTP endpoint.
	// Since the pprof service enables sensitive/vulnerable behavior, this allows a user
	// to enable a public-OK metrics endpoint without having to worry about ALSO exposing
	// other profiling behavior or information.
	MetricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Enable stand-alone metrics HTTP server listening interface",
		Value:    metrics.DefaultConfig.HTTP,
		Category: flags.MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics HTTP server listening port",
		Value:    metrics.DefaultConfig.Port,
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBFlag = &cli.BoolFlag{
		Name:     "metrics.influxdb",
		Usage:    "Enable metrics export/push to an external InfluxDB database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBEndpointFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.endpoint",
		Usage:    "InfluxDB API endpoint to report metrics to",
		Value:    metrics.DefaultConfig.InfluxDBEndpoint,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBDatabaseFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.database",
		Usage:    "InfluxDB database name to push reported metrics to",
		Value:    metrics.DefaultConfig.InfluxDBDatabase,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBUsernameFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.username",
		Usage:    "Username to authorize access to the database",
		Value:    metrics.DefaultConfig.InfluxDBUsername,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBPasswordFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.password",
		Usage:    "Password to authorize access to the database",
		Value:    metrics.DefaultConfig.InfluxDBPassword,
		Category: flags.MetricsCategory,
	}
	// Tags are part of every measurement sent to InfluxDB. Queries on tags are faster in InfluxDB.
	// For example `host` tag could be used so that we can group all nodes and average a measurement
	// across all of them, but also so that we can select a specific node and inspect its measurements.
	// https://docs.influxdata.com/influxdb/v1.4/concepts/key_concepts/#tag-key
	MetricsInfluxDBTagsFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.tags",
		Usage:    "Comma-separated InfluxDB tags (key/values) attached to all measurements",
		Value:    metrics.DefaultConfig.InfluxDBTags,
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBV2Flag = &cli.BoolFlag{
		Name:     "metrics.influxdbv2",
		Usage:    "Enable metrics export/push to an external InfluxDB v2 database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBTokenFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.token",
		Usage:    "Token to authorize access to the database (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBToken,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBBucketFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.bucket",
		Usage:    "InfluxDB bucket name to push reported metrics to (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBBucket,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBOrganizationFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.organization",
		Usage:    "InfluxDB organization name (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBOrganization,
		Category: flags.MetricsCategory,
	}
)

var (
	// DatabaseFlags is the flag group of all state database flags.
	DatabaseFlags = []cli.Flag{
		DataDirFlag,
		CacheFlag,
		FDLimitFlag,
	}

	// GameFlags is the flag group of the genesis rule overrides.
	GameFlags = []cli.Flag{
		OwnerFlag,
		BridgeFlag,
		AdmissionFlag,
		GenesisTimeFlag,
		EpochDurationFlag,
		WaitingPeriodFlag,
		EntropySeedFlag,
	}

	// RPCFlags is the flag group of the HTTP endpoint.
	RPCFlags = []cli.Flag{
		HTTPHostFlag,
		HTTPPortFlag,
		HTTPCORSDomainFlag,
		HTTPRateLimitFlag,
		HTTPRateBurstFlag,
		LeaderboardCacheFlag,
	}

	// MetricsFlags is the flag group of metrics collection and export.
	MetricsFlags = []cli.Flag{
		MetricsEnabledFlag,
		MetricsEnabledExpensiveFlag,
		MetricsHTTPFlag,
		MetricsPortFlag,
		MetricsEnableInfluxDBFlag,
		MetricsInfluxDBEndpointFlag,
		MetricsInfluxDBDatabaseFlag,
		MetricsInfluxDBUsernameFlag,
		MetricsInfluxDBPasswordFlag,
		MetricsInfluxDBTagsFlag,
		MetricsEnableInfluxDBV2Flag,
		MetricsInfluxDBTokenFlag,
		MetricsInfluxDBBucketFlag,
		MetricsInfluxDBOrganizationFlag,
	}
)

// DefaultDataDir is the default data directory to use for the databases.
func DefaultDataDir() string {
	home := flags.HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "DumpGlory")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "DumpGlory")
	default:
		return filepath.Join(home, ".dumpglory")
	}
}

// MakeDataDir retrieves the currently requested data directory, terminating
// if none (or the empty string) is specified.
func MakeDataDir(ctx *cli.Context) string {
	if path := ctx.Path(DataDirFlag.Name); path != "" {
		return flags.ExpandPath(path)
	}
	Fatalf("Cannot determine default data directory, please set manually (--datadir)")
	return ""
}

// MakeDatabaseHandles raises out the number of allowed file handles per process
// and returns half of the allowance to assign to the database.
func MakeDatabaseHandles(max int) int {
	limit, err := fdlimit.Maximum()
	if err != nil {
		Fatalf("Failed to retrieve file descriptor allowance: %v", err)
	}
	switch {
	case max == 0:
		// User didn't specify a meaningful value, use system limits
	case max < 128:
		// User specified something unhealthy, just use system defaults
		log.Error("File descriptor limit invalid (<128)", "had", max, "updated", limit)
	case max > limit:
		// User requested more than the OS allows, notify that we can't allocate it
		log.Warn("Requested file descriptors denied by OS", "req", max, "limit", limit)
	default:
		// User limit is meaningful and within allowed range, use that
		limit = max
	}
	raised, err := fdlimit.Raise(uint64(limit))
	if err != nil {
		Fatalf("Failed to raise file descriptor allowance: %v", err)
	}
	return int(raised / 2) // Leave half for the journal and the HTTP server
}

// MakeStateDatabase opens the LevelDB holding the game state using the flags
// passed to the client and will hard crash if it fails.
func MakeStateDatabase(ctx *cli.Context, readonly bool) ethdb.Database {
	var (
		dir     = filepath.Join(MakeDataDir(ctx), "chaindata")
		cache   = SanitizeCache(ctx.Int(CacheFlag.Name))
		handles = MakeDatabaseHandles(ctx.Int(FDLimitFlag.Name))
	)
	db, err := rawdb.NewLevelDBDatabase(dir, cache, handles, "dumpglory/db/chaindata/", readonly)
	if err != nil {
		Fatalf("Could not open database: %v", err)
	}
	return db
}

// SanitizeCache caps the database cache allowance to a third of the system
// memory and tunes the garbage collector for the remaining heap.
func SanitizeCache(cache int) int {
	mem, err := gopsutil.VirtualMemory()
	if err == nil {
		if 32<<(^uintptr(0)>>63) == 32 && mem.Total > 2*1024*1024*1024 {
			log.Warn("Lowering memory allowance on 32bit arch", "available", mem.Total/1024/1024, "addressable", 2*1024)
			mem.Total = 2 * 1024 * 1024 * 1024
		}
		allowance := int(mem.Total / 1024 / 1024 / 3)
		if cache > allowance {
			log.Warn("Sanitizing cache to Go's GC limits", "provided", cache, "updated", allowance)
			cache = allowance
		}
	}
	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cache)/1024)))

	log.Debug("Sanitizing Go's GC trigger", "percent", int(gogc))
	godebug.SetGCPercent(int(gogc))
	return cache
}

// MakeJournal opens the action journal inside the data directory.
func MakeJournal(ctx *cli.Context) *journal.Journal {
	j, err := journal.Open(filepath.Join(MakeDataDir(ctx), "journal"), 16, 16)
	if err != nil {
		Fatalf("Could not open action journal: %v", err)
	}
	return j
}

// MakeAddress parses a hex encoded address given on the command line.
func MakeAddress(flag, value string) common.Address {
	if !common.IsHexAddress(value) {
		Fatalf("Invalid address %q for --%s", value, flag)
	}
	return common.HexToAddress(value)
}

// SetGameConfig applies the genesis rule flags to the config.
func SetGameConfig(ctx *cli.Context, cfg *params.GameConfig) {
	if ctx.IsSet(OwnerFlag.Name) {
		cfg.Owner = MakeAddress(OwnerFlag.Name, ctx.String(OwnerFlag.Name))
	}
	if ctx.IsSet(BridgeFlag.Name) {
		cfg.Bridge = MakeAddress(BridgeFlag.Name, ctx.String(BridgeFlag.Name))
	}
	if ctx.IsSet(AdmissionFlag.Name) {
		mode, err := params.NormalizeAdmissionMode(ctx.String(AdmissionFlag.Name))
		if err != nil {
			Fatalf("Invalid --%s: %v", AdmissionFlag.Name, err)
		}
		cfg.Admission = mode
	}
	if ctx.IsSet(GenesisTimeFlag.Name) {
		cfg.GenesisTime = ctx.Uint64(GenesisTimeFlag.Name)
	}
	if ctx.IsSet(EpochDurationFlag.Name) {
		cfg.EpochDuration = ctx.Uint64(EpochDurationFlag.Name)
	}
	if ctx.IsSet(WaitingPeriodFlag.Name) {
		cfg.WaitingPeriod = ctx.Uint64(WaitingPeriodFlag.Name)
	}
	if ctx.IsSet(EntropySeedFlag.Name) {
		cfg.EntropySeed = common.HexToHash(ctx.String(EntropySeedFlag.Name))
	}
}

// SetRPCConfig applies the HTTP endpoint flags to the config.
func SetRPCConfig(ctx *cli.Context, cfg *rpcapi.Config) {
	if ctx.IsSet(HTTPHostFlag.Name) {
		cfg.Host = ctx.String(HTTPHostFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.Port = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(HTTPCORSDomainFlag.Name) {
		cfg.CorsOrigins = SplitAndTrim(ctx.String(HTTPCORSDomainFlag.Name))
	}
	if ctx.IsSet(HTTPRateLimitFlag.Name) {
		cfg.RateLimit = ctx.Float64(HTTPRateLimitFlag.Name)
	}
	if ctx.IsSet(HTTPRateBurstFlag.Name) {
		cfg.RateBurst = ctx.Int(HTTPRateBurstFlag.Name)
	}
	if ctx.IsSet(LeaderboardCacheFlag.Name) {
		cfg.CacheSize = ctx.Int(LeaderboardCacheFlag.Name)
	}
}

// SetMetricsConfig applies the metrics flags to the config.
func SetMetricsConfig(ctx *cli.Context, cfg *metrics.Config) {
	CheckExclusive(ctx, MetricsEnableInfluxDBFlag, MetricsEnableInfluxDBV2Flag)

	if ctx.Bool(MetricsEnableInfluxDBFlag.Name) {
		if ctx.IsSet(MetricsInfluxDBTokenFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBBucketFlag.Name) {
			Fatalf("Flags --metrics.influxdb.organization, --metrics.influxdb.token, --metrics.influxdb.bucket are only available for influxdb-v2")
		}
	}
	if ctx.Bool(MetricsEnableInfluxDBV2Flag.Name) {
		if ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBPasswordFlag.Name) {
			Fatalf("Flags --metrics.influxdb.username, --metrics.influxdb.password are only available for influxdb-v1")
		}
	}
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsEnabledExpensiveFlag.Name) {
		cfg.EnabledExpensive = ctx.Bool(MetricsEnabledExpensiveFlag.Name)
	}
	if ctx.IsSet(MetricsHTTPFlag.Name) {
		cfg.HTTP = ctx.String(MetricsHTTPFlag.Name)
	}
	if ctx.IsSet(MetricsPortFlag.Name) {
		cfg.Port = ctx.Int(MetricsPortFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBFlag.Name) {
		cfg.EnableInfluxDB = ctx.Bool(MetricsEnableInfluxDBFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBEndpointFlag.Name) {
		cfg.InfluxDBEndpoint = ctx.String(MetricsInfluxDBEndpointFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBDatabaseFlag.Name) {
		cfg.InfluxDBDatabase = ctx.String(MetricsInfluxDBDatabaseFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) {
		cfg.InfluxDBUsername = ctx.String(MetricsInfluxDBUsernameFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBPasswordFlag.Name) {
		cfg.InfluxDBPassword = ctx.String(MetricsInfluxDBPasswordFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTagsFlag.Name) {
		cfg.InfluxDBTags = ctx.String(MetricsInfluxDBTagsFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBV2Flag.Name) {
		cfg.EnableInfluxDBV2 = ctx.Bool(MetricsEnableInfluxDBV2Flag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTokenFlag.Name) {
		cfg.InfluxDBToken = ctx.String(MetricsInfluxDBTokenFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBBucketFlag.Name) {
		cfg.InfluxDBBucket = ctx.String(MetricsInfluxDBBucketFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) {
		cfg.InfluxDBOrganization = ctx.String(MetricsInfluxDBOrganizationFlag.Name)
	}
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// ParseAmount parses a decimal or 0x-prefixed integer amount in wei.
func ParseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

// CheckExclusive verifies that only a single instance of the provided flags was
// set by the user. Each flag might optionally be followed by a string type to
// specialize it further.
func CheckExclusive(ctx *cli.Context, args ...interface{}) {
	set := make([]string, 0, 1)
	for i := 0; i < len(args); i++ {
		// Make sure the next argument is a flag and skip if not set
		flag, ok := args[i].(cli.Flag)
		if !ok {
			panic(fmt.Sprintf("invalid argument, not cli.Flag type: %T", args[i]))
		}
		// Check if next arg extends current and expand its name if so
		name := flag.Names()[0]

		if i+1 < len(args) {
			switch option := args[i+1].(type) {
			case string:
				// Extended flag check, make sure value set doesn't conflict with passed in option
				if ctx.String(flag.Names()[0]) == option {
					name += "=" + option
					set = append(set, "--"+name)
				}
				// shift arguments and continue
				i++
				continue

			case cli.Flag:
			default:
				panic(fmt.Sprintf("invalid argument, not cli.Flag or string extension: %T", args[i+1]))
			}
		}
		// Mark the flag if it's set
		if ctx.IsSet(flag.Names()[0]) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		Fatalf("Flags %v can't be used at the same time", strings.Join(set, ", "))
	}
}
