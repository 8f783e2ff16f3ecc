package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote-labs/relnote/internal/cli/config"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/lint"
)

func TestNewLintCommand(t *testing.T) {
	cmd := NewLintCommand()

	assert.Equal(t, "lint [path]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"format", "disable", "severity", "rule", "fail-on", "skip-policy"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestBuildLintConfig(t *testing.T) {
	t.Run("empty options", func(t *testing.T) {
		opts := &LintOptions{}
		cfg := buildLintConfig(nil, opts)

		require.NotNil(t, cfg)
		assert.False(t, cfg.IsDisabled("CH03"))
	})

	t.Run("disable rules", func(t *testing.T) {
		opts := &LintOptions{
			Disable: []string{"CH03", "CP01"},
		}
		cfg := buildLintConfig(nil, opts)

		require.NotNil(t, cfg)
		assert.True(t, cfg.IsDisabled("CH03"))
		assert.True(t, cfg.IsDisabled("CP01"))
		assert.False(t, cfg.IsDisabled("CH02"))
	})

	t.Run("enable only specific rules", func(t *testing.T) {
		opts := &LintOptions{
			Rules: []string{"CH02", "CH03"},
		}
		cfg := buildLintConfig(nil, opts)

		require.NotNil(t, cfg)
		assert.False(t, cfg.IsDisabled("CH02"))
		assert.False(t, cfg.IsDisabled("CH03"))
		// Everything else, including the parse pseudo-rule, is off.
		assert.True(t, cfg.IsDisabled(lint.ParseRuleID))
		for _, r := range lint.Rules() {
			if r.ID() != "CH02" && r.ID() != "CH03" {
				assert.True(t, cfg.IsDisabled(r.ID()), "rule %q should be disabled", r.ID())
			}
		}
	})

	t.Run("project config disabled rules", func(t *testing.T) {
		base := &config.LintConfig{
			Disabled: []string{"CH09", "CP03"},
		}
		opts := &LintOptions{}
		cfg := buildLintConfig(base, opts)

		require.NotNil(t, cfg)
		assert.True(t, cfg.IsDisabled("CH09"))
		assert.True(t, cfg.IsDisabled("CP03"))
		assert.False(t, cfg.IsDisabled("CH02"))
	})

	t.Run("project config severity overrides", func(t *testing.T) {
		base := &config.LintConfig{
			Severity: map[string]string{
				"CH09": "error",
				"CH03": "hint",
			},
		}
		opts := &LintOptions{}
		cfg := buildLintConfig(base, opts)

		sev, ok := cfg.SeverityFor("CH09")
		require.True(t, ok)
		assert.Equal(t, core.SeverityError, sev)

		sev, ok = cfg.SeverityFor("CH03")
		require.True(t, ok)
		assert.Equal(t, core.SeverityHint, sev)

		_, ok = cfg.SeverityFor("CH02")
		assert.False(t, ok)
	})

	t.Run("project config rule options", func(t *testing.T) {
		base := &config.LintConfig{
			Rules: map[string]config.RuleOptions{
				"CH04": {"known_tags": []string{"bug", "feature"}},
			},
		}
		opts := &LintOptions{}
		cfg := buildLintConfig(base, opts)

		ruleOpts := cfg.OptionsFor("CH04")
		require.NotNil(t, ruleOpts)
		assert.Equal(t, []string{"bug", "feature"}, ruleOpts["known_tags"])
	})
}

func TestMatchesPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		filter string
		want   bool
	}{
		{"no filter", "unreleased/4349.rst", "", true},
		{"exact file", "unreleased/4349.rst", "unreleased/4349.rst", true},
		{"directory prefix", "unreleased_14/5001.rst", "unreleased_14", true},
		{"cwd-relative filter", "unreleased/4349.rst", "changelog/unreleased", true},
		{"different series", "unreleased_14/5001.rst", "unreleased", false},
		{"unrelated path", "unreleased/4349.rst", "docs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPath(tt.path, tt.filter))
		})
	}
}

func TestSeverityLabelCoversAllLevels(t *testing.T) {
	r := newTestRenderer(t)
	for _, sev := range []core.Severity{core.SeverityError, core.SeverityWarning, core.SeverityInfo, core.SeverityHint} {
		assert.NotEmpty(t, severityLabel(r, sev))
	}
}

func TestPolicyScriptPath(t *testing.T) {
	cfg := &config.Config{ChangelogDir: "changelog"}
	assert.Equal(t, filepath.Join("changelog", "policy.star"), policyScriptPath(cfg))

	cfg.Policy = &config.PolicyConfig{Path: "hooks/policy.star"}
	assert.Equal(t, "hooks/policy.star", policyScriptPath(cfg))
}
