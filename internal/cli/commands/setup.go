// Package commands implements the leapplan subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapplan/internal/cli/config"
	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/internal/state"
	"github.com/leapstack-labs/leapplan/pkg/executor"
	"github.com/leapstack-labs/leapplan/pkg/pool"
	"github.com/leapstack-labs/leapplan/pkg/schema"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for command execution.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the context from the config stored on cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// Runtime wires the pool registry, executors and inspector for one command.
type Runtime struct {
	Registry  *pool.Registry
	Queries   *executor.QueryExecutor
	Plans     *executor.PlanExecutor
	Inspector *schema.Inspector
}

// NewRuntime builds a Runtime from cfg.
func NewRuntime(cfg *config.Config, logger *slog.Logger) *Runtime {
	registry := pool.NewRegistry(
		pool.WithLogger(logger),
		pool.WithPoolSize(cfg.Pool.Size),
		pool.WithIdleTimeout(cfg.Pool.IdleTimeout),
		pool.WithMaxLifetime(cfg.Pool.MaxLifetime),
	)

	queries := executor.NewQueryExecutor(registry,
		executor.WithMaxRows(cfg.Executor.MaxRows),
		executor.WithAcquireTimeout(cfg.Pool.AcquireTimeout),
		executor.WithStatementTimeout(cfg.Executor.StatementTimeout),
		executor.WithLogger(logger),
	)

	return &Runtime{
		Registry:  registry,
		Queries:   queries,
		Plans:     executor.NewPlanExecutor(queries, logger),
		Inspector: schema.NewInspector(registry, queries),
	}
}

// Close releases every pool.
func (rt *Runtime) Close() error {
	return rt.Registry.Close()
}

// openStore opens and migrates the run history database, creating its
// directory if needed.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// readPlan returns plan text from the file argument, or from stdin when the
// argument is "-" or absent and stdin is not a terminal.
func readPlan(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read plan: %w", err)
		}
		return string(content), nil
	}

	in := cmd.InOrStdin()
	if len(args) == 0 && output.IsTerminal(in) {
		return "", errors.New("no plan given\nHint: pass a file or pipe the plan on stdin")
	}

	content, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(content), nil
}
