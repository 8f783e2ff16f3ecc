package lint

import (
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
)

// Rule is the base interface all lint rules implement.
type Rule interface {
	// ID returns the unique identifier, e.g., "CH01" or "CP01"
	ID() string

	// Name returns the human-readable name, e.g., "change.single-block"
	Name() string

	// Group returns the category, e.g., "change", "tickets", "tags"
	Group() string

	// Description returns a human-readable description
	Description() string

	// DefaultSeverity returns the default severity for this rule
	DefaultSeverity() core.Severity

	// ConfigKeys returns configuration keys this rule accepts
	ConfigKeys() []string

	// Documentation methods for richer rule documentation
	Rationale() string
	BadExample() string
	GoodExample() string
	Fix() string
}

// FileRule analyzes a single parsed fragment file.
type FileRule interface {
	Rule

	// CheckFile analyzes a file and returns diagnostics.
	CheckFile(f *fragment.File, opts core.RuleOptions) []Diagnostic
}

// TreeRule analyzes whole-tree concerns.
type TreeRule interface {
	Rule

	// CheckTree analyzes the changelog tree and returns diagnostics.
	CheckTree(ctx TreeContext, opts core.RuleOptions) []Diagnostic
}

// GetRuleInfo extracts metadata from a Rule for documentation/tooling.
func GetRuleInfo(r Rule) core.RuleInfo {
	info := core.RuleInfo{
		ID:              r.ID(),
		Name:            r.Name(),
		Group:           r.Group(),
		Description:     r.Description(),
		DefaultSeverity: r.DefaultSeverity(),
		ConfigKeys:      r.ConfigKeys(),
		Rationale:       r.Rationale(),
		BadExample:      r.BadExample(),
		GoodExample:     r.GoodExample(),
		Fix:             r.Fix(),
	}

	if _, ok := r.(FileRule); ok {
		info.Type = "file"
	} else if _, ok := r.(TreeRule); ok {
		info.Type = "tree"
	}

	return info
}

// =============================================================================
// Wrapped definitions
// =============================================================================

// wrappedRuleDef wraps a RuleDef to implement FileRule.
type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef wraps a RuleDef to implement the FileRule interface.
func WrapRuleDef(def RuleDef) FileRule {
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() string                     { return w.def.ID }
func (w *wrappedRuleDef) Name() string                   { return w.def.Name }
func (w *wrappedRuleDef) Group() string                  { return w.def.Group }
func (w *wrappedRuleDef) Description() string            { return w.def.Description }
func (w *wrappedRuleDef) DefaultSeverity() core.Severity { return w.def.Severity }
func (w *wrappedRuleDef) ConfigKeys() []string           { return w.def.ConfigKeys }
func (w *wrappedRuleDef) Rationale() string              { return w.def.Rationale }
func (w *wrappedRuleDef) BadExample() string             { return w.def.BadExample }
func (w *wrappedRuleDef) GoodExample() string            { return w.def.GoodExample }
func (w *wrappedRuleDef) Fix() string                    { return w.def.Fix }

func (w *wrappedRuleDef) CheckFile(f *fragment.File, opts core.RuleOptions) []Diagnostic {
	return w.def.Check(f, opts)
}

// wrappedTreeRuleDef wraps a TreeRuleDef to implement TreeRule.
type wrappedTreeRuleDef struct {
	def TreeRuleDef
}

// WrapTreeRuleDef wraps a TreeRuleDef to implement the TreeRule interface.
func WrapTreeRuleDef(def TreeRuleDef) TreeRule {
	return &wrappedTreeRuleDef{def: def}
}

func (w *wrappedTreeRuleDef) ID() string                     { return w.def.ID }
func (w *wrappedTreeRuleDef) Name() string                   { return w.def.Name }
func (w *wrappedTreeRuleDef) Group() string                  { return w.def.Group }
func (w *wrappedTreeRuleDef) Description() string            { return w.def.Description }
func (w *wrappedTreeRuleDef) DefaultSeverity() core.Severity { return w.def.Severity }
func (w *wrappedTreeRuleDef) ConfigKeys() []string           { return w.def.ConfigKeys }
func (w *wrappedTreeRuleDef) Rationale() string              { return w.def.Rationale }
func (w *wrappedTreeRuleDef) BadExample() string             { return w.def.BadExample }
func (w *wrappedTreeRuleDef) GoodExample() string            { return w.def.GoodExample }
func (w *wrappedTreeRuleDef) Fix() string                    { return w.def.Fix }

func (w *wrappedTreeRuleDef) CheckTree(ctx TreeContext, opts core.RuleOptions) []Diagnostic {
	return w.def.Check(ctx, opts)
}
