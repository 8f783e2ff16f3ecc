package lint

import (
	"sort"

	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
)

// Analyzer applies registered rules with configuration layered on top.
type Analyzer struct {
	cfg *core.LintConfig
}

// NewAnalyzer creates an analyzer. A nil config means all rules run with
// their default severities.
func NewAnalyzer(cfg *core.LintConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// AnalyzeFile runs all enabled file rules against one parsed fragment file.
func (a *Analyzer) AnalyzeFile(f *fragment.File) []Diagnostic {
	var out []Diagnostic
	for _, rule := range FileRules() {
		if a.cfg.IsDisabled(rule.ID()) {
			continue
		}
		diags := rule.CheckFile(f, a.cfg.OptionsFor(rule.ID()))
		out = append(out, a.finalize(rule, diags)...)
	}
	return out
}

// AnalyzeTree runs all enabled tree rules against the changelog tree.
func (a *Analyzer) AnalyzeTree(ctx TreeContext) []Diagnostic {
	var out []Diagnostic
	for _, rule := range TreeRules() {
		if a.cfg.IsDisabled(rule.ID()) {
			continue
		}
		diags := rule.CheckTree(ctx, a.cfg.OptionsFor(rule.ID()))
		out = append(out, a.finalize(rule, diags)...)
	}
	return out
}

// finalize applies severity overrides and fills derived fields.
func (a *Analyzer) finalize(rule Rule, diags []Diagnostic) []Diagnostic {
	sev := rule.DefaultSeverity()
	if override, ok := a.cfg.SeverityFor(rule.ID()); ok {
		sev = override
	}
	for i := range diags {
		diags[i].Severity = sev
		diags[i].SeverityName = sev.String()
	}
	return diags
}

// Sort orders diagnostics by path, then position, then rule ID.
func Sort(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Path != diags[j].Path {
			return diags[i].Path < diags[j].Path
		}
		if diags[i].Pos.Line != diags[j].Pos.Line {
			return diags[i].Pos.Line < diags[j].Pos.Line
		}
		return diags[i].RuleID < diags[j].RuleID
	})
}

// FilterMin drops diagnostics below the given severity. SeverityError is the
// highest severity, so "below" means a numerically larger value.
func FilterMin(diags []Diagnostic, min core.Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity <= min {
			out = append(out, d)
		}
	}
	return out
}

// HasAtOrAbove reports whether any diagnostic is at or above the severity.
func HasAtOrAbove(diags []Diagnostic, sev core.Severity) bool {
	for _, d := range diags {
		if d.Severity <= sev {
			return true
		}
	}
	return false
}
