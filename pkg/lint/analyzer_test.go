package lint

import (
	"testing"

	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"github.com/relnote-labs/relnote/pkg/token"
)

// Synthetic rules for analyzer behavior tests. IDs are outside the CH/CP
// ranges so they do not collide with the built-in rules.
func init() {
	Register(WrapRuleDef(RuleDef{
		ID:          "ZZ01",
		Name:        "test.always",
		Group:       "test",
		Description: "always fires once per file",
		Severity:    core.SeverityWarning,
		Check: func(f *fragment.File, _ core.RuleOptions) []Diagnostic {
			return []Diagnostic{{RuleID: "ZZ01", Path: f.Path, Message: "fired"}}
		},
	}))
	Register(WrapRuleDef(RuleDef{
		ID:          "ZZ02",
		Name:        "test.optioned",
		Group:       "test",
		Description: "fires when the option says so",
		Severity:    core.SeverityInfo,
		ConfigKeys:  []string{"fire"},
		Check: func(f *fragment.File, opts core.RuleOptions) []Diagnostic {
			if opts == nil || opts["fire"] != true {
				return nil
			}
			return []Diagnostic{{RuleID: "ZZ02", Path: f.Path, Message: "opted in"}}
		},
	}))
}

func testFile() *fragment.File {
	return &fragment.File{Path: "frag.rst"}
}

func countByID(diags []Diagnostic, id string) int {
	n := 0
	for _, d := range diags {
		if d.RuleID == id {
			n++
		}
	}
	return n
}

func TestAnalyzerAppliesDefaults(t *testing.T) {
	a := NewAnalyzer(nil)
	diags := a.AnalyzeFile(testFile())

	if countByID(diags, "ZZ01") != 1 {
		t.Fatalf("ZZ01 should fire once, got %d", countByID(diags, "ZZ01"))
	}
	for _, d := range diags {
		if d.RuleID == "ZZ01" {
			if d.Severity != core.SeverityWarning {
				t.Errorf("ZZ01 severity = %v, want warning", d.Severity)
			}
			if d.SeverityName != "warning" {
				t.Errorf("ZZ01 severity name = %q, want warning", d.SeverityName)
			}
		}
	}
}

func TestAnalyzerDisable(t *testing.T) {
	a := NewAnalyzer(&core.LintConfig{Disabled: []string{"ZZ01"}})
	diags := a.AnalyzeFile(testFile())
	if countByID(diags, "ZZ01") != 0 {
		t.Error("disabled rule should not fire")
	}
}

func TestAnalyzerSeverityOverride(t *testing.T) {
	a := NewAnalyzer(&core.LintConfig{Severity: map[string]string{"ZZ01": "error"}})
	for _, d := range a.AnalyzeFile(testFile()) {
		if d.RuleID == "ZZ01" && d.Severity != core.SeverityError {
			t.Errorf("severity override not applied, got %v", d.Severity)
		}
	}
}

func TestAnalyzerRuleOptions(t *testing.T) {
	a := NewAnalyzer(&core.LintConfig{Rules: map[string]core.RuleOptions{"ZZ02": {"fire": true}}})
	if countByID(a.AnalyzeFile(testFile()), "ZZ02") != 1 {
		t.Error("rule options should reach the check function")
	}

	a = NewAnalyzer(nil)
	if countByID(a.AnalyzeFile(testFile()), "ZZ02") != 0 {
		t.Error("rule should not fire without its option")
	}
}

func TestSeverityFiltering(t *testing.T) {
	diags := []Diagnostic{
		{RuleID: "A", Severity: core.SeverityError},
		{RuleID: "B", Severity: core.SeverityWarning},
		{RuleID: "C", Severity: core.SeverityHint},
	}

	got := FilterMin(diags, core.SeverityWarning)
	if len(got) != 2 {
		t.Fatalf("FilterMin(warning) = %d diagnostics, want 2", len(got))
	}

	if !HasAtOrAbove(diags, core.SeverityError) {
		t.Error("HasAtOrAbove(error) should be true")
	}
	if HasAtOrAbove(diags[1:], core.SeverityError) {
		t.Error("HasAtOrAbove(error) should be false without errors")
	}
}

func TestSortOrdersByPathLineRule(t *testing.T) {
	diags := []Diagnostic{
		{RuleID: "B", Path: "b.rst", Pos: token.Position{Line: 1}},
		{RuleID: "B", Path: "a.rst", Pos: token.Position{Line: 5}},
		{RuleID: "A", Path: "a.rst", Pos: token.Position{Line: 5}},
		{RuleID: "C", Path: "a.rst", Pos: token.Position{Line: 2}},
	}
	Sort(diags)

	want := []string{"C", "A", "B", "B"}
	for i, d := range diags {
		if d.RuleID != want[i] {
			t.Fatalf("sort order wrong at %d: got %s want %s", i, d.RuleID, want[i])
		}
	}
}

func TestParseDiagnostic(t *testing.T) {
	pe := &fragment.ParseError{Path: "x.rst", Pos: token.Position{Line: 3, Column: 1}, Msg: "tab character in indentation"}
	d := ParseDiagnostic(pe)
	if d.RuleID != ParseRuleID || d.Severity != core.SeverityError || d.Path != "x.rst" || d.Pos.Line != 3 {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}
