package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/tos-network/dumpglory/metrics"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/urfave/cli/v2"
)

var dumpConfigCommand = &cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "[<file>]",
	Flags:       flags.Merge(utils.GameFlags, utils.RPCFlags, utils.MetricsFlags),
	Description: `The dumpconfig command shows configuration values.`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type dumpgloryConfig struct {
	Game    *params.GameConfig
	RPC     rpcapi.Config
	Metrics metrics.Config
}

func defaultConfig() dumpgloryConfig {
	rpc := rpcapi.DefaultConfig
	rpc.CorsOrigins = append([]string(nil), rpcapi.DefaultConfig.CorsOrigins...)
	return dumpgloryConfig{
		Game:    params.DefaultGameConfig(),
		RPC:     rpc,
		Metrics: metrics.DefaultConfig,
	}
}

func loadConfig(file string, cfg *dumpgloryConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the command
// line flags on top of it.
func makeConfig(ctx *cli.Context) dumpgloryConfig {
	cfg := defaultConfig()
	if file := ctx.Path(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}
	utils.SetGameConfig(ctx, cfg.Game)
	utils.SetRPCConfig(ctx, &cfg.RPC)
	utils.SetMetricsConfig(ctx, &cfg.Metrics)
	return cfg
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.Write(out)

	return nil
}
