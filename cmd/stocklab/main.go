// Package main is the stocklab command line tool.
//
// It computes return statistics for price CSV files or stored tickers, keeps
// the price and fundamentals store up to date, and values companies.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/stocklab/stocklab/internal/cli"
	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	// Logs go to stderr so reports on stdout stay clean
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander, cli.NewEnv(cfg, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Parse()
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
