package lint

import (
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"github.com/relnote-labs/relnote/pkg/token"
)

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string         `json:"rule_id"`
	Severity core.Severity  `json:"-"`
	Path     string         `json:"path"`
	Pos      token.Position `json:"pos"`
	Message  string         `json:"message"`

	// SeverityName is the string form of Severity, for JSON output.
	SeverityName string `json:"severity"`
}

// ParseRuleID is the pseudo rule attributed to parser failures so that a
// broken file surfaces in lint output instead of aborting the run.
const ParseRuleID = "CH00"

// ParseDiagnostic converts a parse error into a Diagnostic.
func ParseDiagnostic(err *fragment.ParseError) Diagnostic {
	return Diagnostic{
		RuleID:       ParseRuleID,
		Severity:     core.SeverityError,
		SeverityName: core.SeverityError.String(),
		Path:         err.Path,
		Pos:          err.Pos,
		Message:      err.Msg,
	}
}

// =============================================================================
// Rule definitions
// =============================================================================

// CheckFunc analyzes one parsed fragment file and returns diagnostics.
// The opts parameter carries rule-specific options from configuration.
type CheckFunc func(f *fragment.File, opts core.RuleOptions) []Diagnostic

// TreeCheckFunc analyzes the whole changelog tree.
type TreeCheckFunc func(ctx TreeContext, opts core.RuleOptions) []Diagnostic

// RuleDef is a data-driven file rule definition. Rules are stateless - all
// context comes via the Check function parameters.
type RuleDef struct {
	ID          string        // Unique identifier, e.g., "CH02"
	Name        string        // Human-readable name, e.g., "tickets.numeric"
	Group       string        // Category, e.g., "tickets", "tags", "body"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
	ConfigKeys  []string      // Configuration keys this rule accepts

	// Documentation fields for richer rule documentation
	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// TreeRuleDef is a data-driven tree rule definition.
type TreeRuleDef struct {
	ID          string
	Name        string
	Group       string
	Description string
	Severity    core.Severity
	Check       TreeCheckFunc
	ConfigKeys  []string

	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// =============================================================================
// Tree context
// =============================================================================

// TreeContext provides access to the whole changelog tree for tree rules.
// Implemented by the loader's Tree; an interface here avoids an import cycle
// between lint and loader.
type TreeContext interface {
	// Files returns all parsed fragment files, in stable path order.
	Files() []*fragment.File

	// KnownVersions returns the versions recorded in the release manifest.
	// An empty slice means no manifest is present and version checks are
	// skipped.
	KnownVersions() []string
}
