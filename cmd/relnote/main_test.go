// Package main provides tests for the relnote CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relnote-labs/relnote/internal/cli"
	"github.com/relnote-labs/relnote/internal/cli/config"
)

// setupProject creates a minimal project tree and makes it the working
// directory for the test.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	unreleased := filepath.Join(root, "changelog", "unreleased")
	if err := os.MkdirAll(unreleased, 0o755); err != nil {
		t.Fatalf("failed to create changelog tree: %v", err)
	}

	fragment := `.. change::
    :tags: bug, orm
    :tickets: 4349

    Fixed regression where eager loads were dropped.
`
	if err := os.WriteFile(filepath.Join(unreleased, "4349.rst"), []byte(fragment), 0o644); err != nil {
		t.Fatalf("failed to write fragment: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "changelog", "releases.yaml"), []byte("releases: []\n"), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "relnote.yaml"), []byte("changelog_dir: changelog\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Chdir(root)
	config.ResetConfig()
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	setupProject(t)

	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "relnote") {
		t.Errorf("version output should contain 'relnote', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"init", "new", "lint", "rules", "list", "show", "render", "release", "index", "query", "serve", "import"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestLintCommand(t *testing.T) {
	setupProject(t)

	_, err := execute(t, "lint")
	if err != nil {
		t.Errorf("lint command error = %v", err)
	}
}

func TestLintCommandFindsIssues(t *testing.T) {
	root := setupProject(t)

	// A fragment without tags violates the required-tags rule.
	bad := ".. change::\n\n    Changed something.\n"
	if err := os.WriteFile(filepath.Join(root, "changelog", "unreleased", "untagged.rst"), []byte(bad), 0o644); err != nil {
		t.Fatalf("failed to write fragment: %v", err)
	}

	output, err := execute(t, "lint", "--fail-on", "warning")
	if err == nil {
		t.Errorf("lint should fail on an untagged fragment, got output: %s", output)
	}
}

func TestListCommand(t *testing.T) {
	setupProject(t)

	output, err := execute(t, "list")
	if err != nil {
		t.Errorf("list command error = %v", err)
	}
	if !strings.Contains(output, "4349") {
		t.Errorf("list output should contain the fragment ticket, got: %s", output)
	}
}

func TestRenderCommand(t *testing.T) {
	setupProject(t)

	output, err := execute(t, "render")
	if err != nil {
		t.Errorf("render command error = %v", err)
	}
	if !strings.Contains(output, "Fixed regression") {
		t.Errorf("render output should contain the change body, got: %s", output)
	}
	if !strings.Contains(output, "4349") {
		t.Errorf("render output should reference the ticket, got: %s", output)
	}
}

func TestIndexAndShowCommands(t *testing.T) {
	setupProject(t)

	if _, err := execute(t, "index"); err != nil {
		t.Fatalf("index command error = %v", err)
	}

	config.ResetConfig()
	output, err := execute(t, "show", "4349")
	if err != nil {
		t.Errorf("show command error = %v", err)
	}
	if !strings.Contains(output, "Fixed regression") {
		t.Errorf("show output should contain the change body, got: %s", output)
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			_, err := execute(t, "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "unknown-command")
	if err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
