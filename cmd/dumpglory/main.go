// dumpglory is the command line interface of the DUMP/GLORY game engine.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "dumpglory" // Client identifier to advertise over the network

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = flags.NewApp(gitCommit, gitDate, "the DUMP/GLORY game engine")
)

func init() {
	app.Action = serve
	app.Commands = []*cli.Command{
		initCommand,
		serveCommand,
		statusCommand,
		leaderboardCommand,
		historyCommand,
		dumpConfigCommand,
		actionCommand,
		keyCommand,
		versionCommand,
		licenseCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Flags = flags.Merge(
		[]cli.Flag{utils.ConfigFileFlag, utils.VerbosityFlag},
		utils.DatabaseFlags,
		serveFlags,
	)
	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		utils.SetupLogging(ctx.Int(utils.VerbosityFlag.Name))
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
