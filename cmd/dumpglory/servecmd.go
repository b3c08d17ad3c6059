package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/tos-network/dumpglory/metrics"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	keeperFlag = &cli.BoolFlag{
		Name:     "keeper",
		Usage:    "Finalize and start epochs automatically on behalf of the owner",
		Category: flags.GameCategory,
	}
	keeperIntervalFlag = &cli.DurationFlag{
		Name:     "keeper.interval",
		Usage:    "How often the keeper checks for a due epoch transition",
		Value:    15 * time.Second,
		Category: flags.GameCategory,
	}

	serveFlags = flags.Merge(utils.RPCFlags, utils.MetricsFlags, []cli.Flag{keeperFlag, keeperIntervalFlag})

	serveCommand = &cli.Command{
		Action:    serve,
		Name:      "serve",
		Usage:     "Serve the game over JSON-RPC",
		ArgsUsage: " ",
		Flags:     flags.Merge(utils.DatabaseFlags, serveFlags),
		Category:  "GAME COMMANDS",
		Description: `
The serve command opens the game in the data directory and exposes it on an
HTTP JSON-RPC endpoint under the "dump" namespace, together with /health and
/debug/metrics. It runs until interrupted.`,
	}
)

// serve is the main entry point into the system if no special subcommand is
// run. It opens the game, starts the HTTP endpoint and blocks until the
// process is interrupted.
func serve(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}
	cfg := makeConfig(ctx)
	if err := metrics.Setup(cfg.Metrics); err != nil {
		utils.Fatalf("Failed to set up metrics: %v", err)
	}
	engine, release := openEngine(ctx, false)
	defer release()

	handler, srv, err := rpcapi.NewHandler(engine, cfg.RPC)
	if err != nil {
		utils.Fatalf("Failed to create RPC handler: %v", err)
	}
	defer srv.Stop()

	addr := net.JoinHostPort(cfg.RPC.Host, fmt.Sprint(cfg.RPC.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		utils.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigctx)

	g.Go(func() error {
		log.Info("HTTP server started", "endpoint", "http://"+listener.Addr().String(), "cors", cfg.RPC.CorsOrigins)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("HTTP server stopping", "endpoint", listener.Addr().String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if ctx.Bool(keeperFlag.Name) {
		g.Go(func() error {
			return engine.RunKeeper(gctx, ctx.Duration(keeperIntervalFlag.Name))
		})
	}
	return g.Wait()
}
