// Package cli implements the stocklab subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/di"
)

const dateLayout = "2006-01-02"

// Env is the shared state handed to every command
type Env struct {
	Config *config.Config
	Log    zerolog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnv creates an environment writing to the process streams
func NewEnv(cfg *config.Config, log zerolog.Logger) *Env {
	return &Env{Config: cfg, Log: log, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Register adds every stocklab command to the commander
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&analyzeCmd{env: env}, "analysis")

	c.Register(&fetchCmd{env: env}, "data")
	c.Register(&financialsCmd{env: env}, "data")
	c.Register(&moversCmd{env: env}, "data")

	c.Register(&valuateCmd{env: env}, "valuation")

	c.Register(&initDBCmd{env: env}, "maintenance")
	c.Register(&backupCmd{env: env}, "maintenance")

	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
}

// wire opens the databases and services for commands that need the store
func (e *Env) wire(ctx context.Context) (*di.Container, error) {
	container, _, err := di.Wire(ctx, e.Config, e.Log)
	if err != nil {
		return nil, err
	}
	return container, nil
}

func (e *Env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(e.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(e.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

func (e *Env) closeContainer(c *di.Container) {
	if err := c.Close(); err != nil {
		e.Log.Warn().Err(err).Msg("Failed to close databases")
	}
}

// parseDate parses an optional YYYY-MM-DD flag value
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
