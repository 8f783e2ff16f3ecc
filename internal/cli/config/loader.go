package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configExistsIn checks if a relnote config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"relnote.yaml", "relnote.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a relnote config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Infer from --changelog-dir (parent if it contains a config or is named "changelog")
//  2. Search upward from CWD for relnote.yaml
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil {
		if dir, _ := flags.GetString("changelog-dir"); dir != "" && flags.Changed("changelog-dir") {
			abs, err := filepath.Abs(dir)
			if err == nil {
				parent := filepath.Dir(abs)
				if configExistsIn(parent) {
					return parent
				}
				if filepath.Base(abs) == "changelog" {
					return parent
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Infer project root from flags before loading the config file. This
	// enables the anchor pattern where --changelog-dir testdata/changelog
	// implies the project root is testdata/.
	projectRoot := inferProjectRoot(flags)

	// Paths given as flags are relative to CWD, not the project root.
	// Resolve them now so they are not re-anchored below.
	var flagChangelogDir, flagStatePath string
	if flags != nil {
		if flags.Changed("changelog-dir") {
			if v, _ := flags.GetString("changelog-dir"); v != "" {
				flagChangelogDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" {
				if v == ":memory:" {
					flagStatePath = v
				} else {
					flagStatePath, _ = filepath.Abs(v)
				}
			}
		}
	}

	// An explicit config file anchors the project root at its directory,
	// unless a more specific hint was given via flags.
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"changelog_dir": DefaultChangelogDir,
		"state_path":    DefaultStateFile,
		"series":        "",
		"verbose":       false,
		"output":        DefaultOutput,
		"render.format": DefaultRenderFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		for _, name := range []string{"relnote.yaml", "relnote.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (RELNOTE_ prefix)
	// Transform: RELNOTE_CHANGELOG_DIR -> changelog_dir
	if err := k.Load(env.Provider("RELNOTE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RELNOTE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity; the config key is state_path.
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. WeaklyTypedInput lets env vars
	// populate bool and int fields from their string values.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths against it.
	cfg.ProjectRoot = projectRoot

	if flagChangelogDir != "" {
		cfg.ChangelogDir = flagChangelogDir
	} else {
		cfg.ChangelogDir = resolvePathRelativeTo(cfg.ChangelogDir, projectRoot)
	}
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	if cfg.Policy != nil {
		cfg.Policy.Path = resolvePathRelativeTo(cfg.Policy.Path, projectRoot)
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutput
	}

	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// Available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
