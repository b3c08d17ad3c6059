// Copyright 2019 The go-ethereum Authors
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


package utils

import (
	"flag"
	"math/big"
	"reflect"
	godebug "runtime/debug"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/metrics"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, flags []cli.Flag, args []string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	app.Flags = flags

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cli.NewContext(app, set, nil)
}

func Test_SplitAndTrim(t *testing.T) {
	tests := []struct {
		name string
		args string
		want []string
	}{
		{"single", "http://localhost:3000", []string{"http://localhost:3000"}},
		{"spaces", " a.com , b.com ,, ", []string{"a.com", "b.com"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitAndTrim(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAndTrim() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want *big.Int
		fail bool
	}{
		{in: "1000", want: big.NewInt(1000)},
		{in: "0x10", want: big.NewInt(16)},
		{in: "-1", fail: true},
		{in: "ten", fail: true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.fail {
			if err == nil {
				t.Errorf("ParseAmount(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil || got.Cmp(tt.want) != 0 {
			t.Errorf("ParseAmount(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSetGameConfig(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	ctx := newContext(t, GameFlags, []string{
		"--game.owner=" + owner.Hex(),
		"--game.admission=legacy",
		"--game.genesis=1700000000",
		"--game.waiting=3600",
	})
	cfg := params.DefaultGameConfig()
	SetGameConfig(ctx, cfg)

	if cfg.Owner != owner {
		t.Fatalf("owner = %v, want %v", cfg.Owner, owner)
	}
	if cfg.Admission != params.AdmissionLegacy {
		t.Fatalf("admission = %q, want legacy", cfg.Admission)
	}
	if cfg.GenesisTime != 1700000000 || cfg.WaitingPeriod != 3600 {
		t.Fatalf("times = %d/%d", cfg.GenesisTime, cfg.WaitingPeriod)
	}
	if cfg.EpochDuration != params.DefaultEpochDuration {
		t.Fatalf("unset epoch duration overridden: %d", cfg.EpochDuration)
	}
}

func TestSetRPCConfig(t *testing.T) {
	ctx := newContext(t, RPCFlags, []string{
		"--http.port=9000",
		"--http.corsdomain=a.com,b.com",
		"--http.ratelimit=0",
	})
	cfg := rpcapi.DefaultConfig
	SetRPCConfig(ctx, &cfg)

	if cfg.Port != 9000 || cfg.Host != rpcapi.DefaultConfig.Host {
		t.Fatalf("endpoint = %s:%d", cfg.Host, cfg.Port)
	}
	if !reflect.DeepEqual(cfg.CorsOrigins, []string{"a.com", "b.com"}) {
		t.Fatalf("cors = %v", cfg.CorsOrigins)
	}
	if cfg.RateLimit != 0 || cfg.RateBurst != rpcapi.DefaultConfig.RateBurst {
		t.Fatalf("rate = %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
}

func TestSetMetricsConfig(t *testing.T) {
	ctx := newContext(t, MetricsFlags, []string{
		"--metrics",
		"--metrics.addr=0.0.0.0",
		"--metrics.influxdbv2",
		"--metrics.influxdb.bucket=game",
	})
	cfg := metrics.DefaultConfig
	SetMetricsConfig(ctx, &cfg)

	if !cfg.Enabled || cfg.HTTP != "0.0.0.0" || cfg.Port != metrics.DefaultConfig.Port {
		t.Fatalf("metrics endpoint = %v %s:%d", cfg.Enabled, cfg.HTTP, cfg.Port)
	}
	if !cfg.EnableInfluxDBV2 || cfg.EnableInfluxDB || cfg.InfluxDBBucket != "game" {
		t.Fatalf("influx = v1 %v v2 %v bucket %s", cfg.EnableInfluxDB, cfg.EnableInfluxDBV2, cfg.InfluxDBBucket)
	}
}

func TestSanitizeCache(t *testing.T) {
	defer godebug.SetGCPercent(100)
	if got := SanitizeCache(16); got != 16 {
		t.Fatalf("small cache changed: %d", got)
	}
	if got := SanitizeCache(1 << 40); got >= 1<<40 {
		t.Fatalf("cache not capped: %d", got)
	}
}
