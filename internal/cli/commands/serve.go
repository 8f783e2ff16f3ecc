package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/relnote/internal/site"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live preview of unreleased changes",
		Long: `Start a local web server rendering the unreleased fragments of every
series as release notes. The page reloads automatically when fragment
files change.`,
		Example: `  # Serve on the default port
  relnote serve

  # Serve on a custom port without file watching
  relnote serve --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8712)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload on fragment changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	if _, err := os.Stat(cfg.ChangelogDir); os.IsNotExist(err) {
		return fmt.Errorf("changelog directory does not exist: %s", cfg.ChangelogDir)
	}

	port := cfg.ServePort()
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := cfg.ServeWatch()
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	var categories []string
	if cfg.Render != nil {
		categories = cfg.Render.Categories
	}

	server := site.NewServer(site.Config{
		ChangelogDir: cfg.ChangelogDir,
		Port:         port,
		Watch:        watch,
		Categories:   categories,
		Logger:       logger,
	})

	cmdCtx.Renderer.Println(fmt.Sprintf("Serving changelog preview on http://localhost:%d", port))
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}
