package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new changelog tree",
		Long: `Initialize a new relnote project with default directory structure
and configuration.

This creates:
  - changelog/unreleased/ directory for fragment files
  - changelog/releases.yaml release manifest
  - relnote.yaml configuration file

Use --example to create a working demo tree with sample fragments
across two series and a Starlark policy file.`,
		Example: `  # Initialize in current directory
  relnote init

  # Initialize with example fragments
  relnote init --example

  # Initialize in a new directory
  relnote init my-project

  # Force overwrite existing config
  relnote init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			if example {
				return runInitExample(r, dir, force)
			}
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create a working example tree with sample fragments")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "relnote.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("relnote.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("Changelog tree initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'relnote new' to add a fragment")
	r.Println("  2. Run 'relnote lint' to check the tree")
	r.Println("  3. Run 'relnote render' to preview release notes")

	return nil
}

func runInitExample(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "relnote.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("relnote.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("example", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("example")
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Header(2, "Changelog")
	for _, f := range groups["changelog"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Header(2, "Policy")
	for _, f := range groups["policy"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("Changelog tree initialized with example fragments!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  relnote list      View fragments by series")
	r.Println("  relnote lint      Check the tree")
	r.Println("  relnote render    Preview compiled release notes")
	r.Println("  relnote serve     Live preview in the browser")

	return nil
}
