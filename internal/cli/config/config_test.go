package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultChangelogDir), cfg.ChangelogDir)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, "", cfg.Series)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	require.NotNil(t, cfg.Render)
	assert.Equal(t, DefaultRenderFormat, cfg.Render.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "relnote.yaml")
	cfgContent := `changelog_dir: notes
series: "14"
verbose: true
render:
  format: markdown
  categories:
    - bug
    - feature
lint:
  disabled:
    - CH04
  severity:
    CH02: error
  rules:
    CH05:
      categories:
        - bug
        - feature
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, tmpDir, cfg.ProjectRoot, "explicit config file anchors the project root")
	assert.Equal(t, filepath.Join(tmpDir, "notes"), cfg.ChangelogDir)
	assert.Equal(t, "14", cfg.Series)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "markdown", cfg.Render.Format)
	assert.Equal(t, []string{"bug", "feature"}, cfg.Render.Categories)

	require.NotNil(t, cfg.Lint)
	assert.True(t, cfg.Lint.IsDisabled("CH04"))
	assert.Equal(t, "error", cfg.Lint.Severity["CH02"])
	opts := cfg.Lint.OptionsFor("CH05")
	require.NotNil(t, opts)
	assert.Contains(t, opts, "categories")

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "relnote.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("series: from_file\n"), 0600))

	t.Setenv("RELNOTE_SERIES", "from_env")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Series, "env var should override config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "relnote.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("series: from_file\n"), 0600))

	t.Setenv("RELNOTE_SERIES", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("series", "", "series")
	require.NoError(t, flags.Set("series", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Series, "flag value should override config file and env var")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "relnote.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("series: from_file\n"), 0600))

	t.Setenv("RELNOTE_SERIES", "from_env")

	// Flag declared but never set, so Changed is false.
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("series", "", "series")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Series, "env var should be used when flag is not set")
}

func TestLoadConfig_ChangelogDirFlagIsCWDRelative(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "proj", "changelog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "proj", "relnote.yaml"), []byte("{}\n"), 0600))
	t.Chdir(tmpDir)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("changelog-dir", "", "changelog directory")
	require.NoError(t, flags.Set("changelog-dir", filepath.Join("proj", "changelog")))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.ChangelogDir))
	assert.True(t, strings.HasSuffix(cfg.ChangelogDir, filepath.Join("proj", "changelog")))
	assert.True(t, strings.HasSuffix(cfg.ProjectRoot, "proj"),
		"project root inferred from changelog dir parent")
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "relnote.yaml"), []byte("series: root\n"), 0600))
	nested := filepath.Join(tmpDir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.Series, "config found by upward search")
}

func TestLoadConfig_StateMemoryNotResolved(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state database path")
	require.NoError(t, flags.Set("state", ":memory:"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "relnote.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(":\n  - not valid"), 0600))

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestServeDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultServePort, cfg.ServePort())
	assert.True(t, cfg.ServeWatch())

	// A serve block that only sets the port keeps watching enabled.
	cfg = &Config{Serve: &ServeConfig{Port: 9000}}
	assert.Equal(t, 9000, cfg.ServePort())
	assert.True(t, cfg.ServeWatch())

	off := false
	cfg = &Config{Serve: &ServeConfig{Watch: &off}}
	assert.Equal(t, DefaultServePort, cfg.ServePort())
	assert.False(t, cfg.ServeWatch())
}
