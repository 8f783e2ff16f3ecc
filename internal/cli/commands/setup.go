package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/relnote-labs/relnote/internal/cli/config"
	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Tree     *loader.Tree
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the changelog tree loaded.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutTree(cmd)

	tree, err := loader.Load(cmd.Context(), cmdCtx.Cfg.ChangelogDir)
	if err != nil {
		return nil, err
	}
	cmdCtx.Tree = tree

	return cmdCtx, nil
}

// NewCommandContextWithoutTree creates a CommandContext without loading the
// changelog tree. Useful for commands that only touch the index database.
func NewCommandContextWithoutTree(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	changelogDir := getEnvOrDefault("RELNOTE_CHANGELOG_DIR", config.DefaultChangelogDir)
	statePath := getEnvOrDefault("RELNOTE_STATE_PATH", config.DefaultStateFile)
	series := os.Getenv("RELNOTE_SERIES")
	verbose := os.Getenv("RELNOTE_VERBOSE") == "true"
	outputFormat := getEnvOrDefault("RELNOTE_OUTPUT", config.DefaultOutput)

	return &config.Config{
		ChangelogDir: changelogDir,
		StatePath:    statePath,
		Series:       series,
		Verbose:      verbose,
		OutputFormat: outputFormat,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens the index database, creating its directory when needed.
// The caller must Close the returned store.
func openStore(cfg *config.Config) (*state.SQLiteStore, error) {
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
	}

	s := state.NewSQLiteStore()
	if err := s.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	return s, nil
}
