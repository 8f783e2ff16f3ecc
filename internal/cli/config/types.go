// Package config provides configuration management for the relnote CLI.
//
// Shared lint configuration types live in pkg/core so the lint engine can
// consume them without importing CLI packages; they are re-exported here
// via type aliases for convenience.
package config

import (
	"github.com/relnote-labs/relnote/pkg/core"
)

// LintConfig is an alias for the shared lint configuration.
type LintConfig = core.LintConfig

// RuleOptions is an alias for the shared rule options type.
type RuleOptions = core.RuleOptions

// RenderConfig holds settings for compiled release notes.
type RenderConfig struct {
	Format     string   `koanf:"format"`
	Categories []string `koanf:"categories"`
}

// ServeConfig holds settings for the preview server. Watch is a pointer so
// an omitted key keeps the default instead of reading as false.
type ServeConfig struct {
	Port  int   `koanf:"port"`
	Watch *bool `koanf:"watch"`
}

// PolicyConfig holds settings for Starlark policy hooks.
type PolicyConfig struct {
	Path string `koanf:"path"`
}

// DefaultServePort is the preview server port when none is configured.
const DefaultServePort = 8712

// ServePort returns the configured preview server port, defaulted.
func (c *Config) ServePort() int {
	if c.Serve == nil || c.Serve.Port == 0 {
		return DefaultServePort
	}
	return c.Serve.Port
}

// ServeWatch reports whether the preview server watches for file changes.
// Enabled unless the config turns it off explicitly.
func (c *Config) ServeWatch() bool {
	if c.Serve == nil || c.Serve.Watch == nil {
		return true
	}
	return *c.Serve.Watch
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string        `koanf:"-"`
	ChangelogDir string        `koanf:"changelog_dir"`
	StatePath    string        `koanf:"state_path"`
	Series       string        `koanf:"series"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Lint         *LintConfig   `koanf:"lint"`
	Render       *RenderConfig `koanf:"render"`
	Serve        *ServeConfig  `koanf:"serve"`
	Policy       *PolicyConfig `koanf:"policy"`
}

// Default configuration values.
const (
	DefaultChangelogDir = "changelog"
	DefaultStateFile    = ".relnote/index.db"
	DefaultRenderFormat = "rst"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
