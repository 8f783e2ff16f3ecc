package core

// RuleOptions holds rule-specific configuration options.
type RuleOptions map[string]any

// LintConfig holds lint configuration shared between the CLI and the analyzer.
type LintConfig struct {
	// Disabled lists rule IDs that should not run.
	Disabled []string `koanf:"disabled" yaml:"disabled"`

	// Severity maps rule IDs to severity override strings
	// ("error", "warning", "info", "hint").
	Severity map[string]string `koanf:"severity" yaml:"severity"`

	// Rules maps rule IDs to rule-specific options.
	Rules map[string]RuleOptions `koanf:"rules" yaml:"rules"`

	// FailOn is the minimum severity that causes a non-zero exit
	// ("error" by default).
	FailOn string `koanf:"fail_on" yaml:"fail_on"`
}

// IsDisabled reports whether the given rule ID is disabled.
func (c *LintConfig) IsDisabled(id string) bool {
	if c == nil {
		return false
	}
	for _, d := range c.Disabled {
		if d == id {
			return true
		}
	}
	return false
}

// OptionsFor returns the configured options for a rule, or nil.
func (c *LintConfig) OptionsFor(id string) RuleOptions {
	if c == nil || c.Rules == nil {
		return nil
	}
	return c.Rules[id]
}

// SeverityFor returns the severity override for a rule, if any.
func (c *LintConfig) SeverityFor(id string) (Severity, bool) {
	if c == nil || c.Severity == nil {
		return SeverityWarning, false
	}
	raw, ok := c.Severity[id]
	if !ok {
		return SeverityWarning, false
	}
	sev, valid := ParseSeverity(raw)
	return sev, valid
}
