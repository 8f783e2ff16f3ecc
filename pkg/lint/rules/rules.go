// Package rules registers the built-in changelog lint rules.
//
// Import for side effects:
//
//	import _ "github.com/relnote-labs/relnote/pkg/lint/rules"
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"github.com/relnote-labs/relnote/pkg/lint"
)

// defaultCategories are the change categories accepted as a first tag.
var defaultCategories = []string{
	"bug", "feature", "usecase", "change", "performance",
	"deprecated", "removed", "moved",
}

// defaultVocabulary are tags accepted in any position. Category tags are
// always accepted; these cover subsystem and dialect labels.
var defaultVocabulary = []string{
	"orm", "engine", "sql", "schema", "pool", "ext", "declarative",
	"mssql", "mysql", "oracle", "postgresql", "sqlite", "firebird",
	"tests", "examples", "documentation", "regression", "installation",
}

// seealsoRole matches cross-reference roles like :ref:`change_4349`.
var seealsoRole = regexp.MustCompile("^:[a-z]+:`[^`]+`$")

func init() {
	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH01",
		Name:        "change.single-block",
		Group:       "change",
		Description: "Every fragment file contains exactly one top-level change block",
		Severity:    core.SeverityError,
		Check:       checkSingleBlock,
		Rationale:   "The release compiler treats one file as one change; extra or missing blocks are silently lost otherwise.",
		Fix:         "Split additional change blocks into their own files.",
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH02",
		Name:        "tickets.numeric",
		Group:       "tickets",
		Description: "Every :tickets: value is a numeric issue identifier",
		Severity:    core.SeverityError,
		Check:       checkTicketsNumeric,
		BadExample:  ":tickets: 4349, #4350",
		GoodExample: ":tickets: 4349, 4350",
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH03",
		Name:        "tags.required",
		Group:       "tags",
		Description: "A change carries at least one tag",
		Severity:    core.SeverityWarning,
		Check:       checkTagsRequired,
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH04",
		Name:        "tags.known",
		Group:       "tags",
		Description: "Tags are drawn from the configured vocabulary",
		Severity:    core.SeverityWarning,
		Check:       checkTagsKnown,
		ConfigKeys:  []string{"allowed"},
		Fix:         "Add project-specific tags to lint.rules.CH04.allowed in relnote.yaml.",
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH05",
		Name:        "tags.category",
		Group:       "tags",
		Description: "The first tag names a change category",
		Severity:    core.SeverityWarning,
		Check:       checkTagsCategory,
		ConfigKeys:  []string{"categories"},
		BadExample:  ":tags: orm, bug",
		GoodExample: ":tags: bug, orm",
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH06",
		Name:        "body.required",
		Group:       "body",
		Description: "A change has a non-empty body",
		Severity:    core.SeverityError,
		Check:       checkBodyRequired,
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH07",
		Name:        "seealso.target",
		Group:       "seealso",
		Description: "Every seealso entry is a cross-reference role or a URL",
		Severity:    core.SeverityWarning,
		Check:       checkSeeAlsoTargets,
		GoodExample: ":ref:`change_4349`",
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH08",
		Name:        "fields.known",
		Group:       "fields",
		Description: "A change uses only recognized field names",
		Severity:    core.SeverityWarning,
		Check:       checkFieldsKnown,
	}))

	lint.Register(lint.WrapRuleDef(lint.RuleDef{
		ID:          "CH09",
		Name:        "tickets.required",
		Group:       "tickets",
		Description: "A change references at least one ticket",
		Severity:    core.SeverityHint,
		Check:       checkTicketsRequired,
		ConfigKeys:  []string{"exempt_tags"},
	}))
}

func diag(f *fragment.File, id string, c *fragment.Change, format string, args ...any) lint.Diagnostic {
	d := lint.Diagnostic{
		RuleID:  id,
		Path:    f.Path,
		Message: fmt.Sprintf(format, args...),
	}
	if c != nil {
		d.Pos = c.Span.Start
	}
	return d
}

func checkSingleBlock(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	switch n := len(f.Changes); n {
	case 1:
		return nil
	case 0:
		return []lint.Diagnostic{diag(f, "CH01", nil, "file contains no change block")}
	default:
		return []lint.Diagnostic{diag(f, "CH01", f.Changes[1], "file contains %d change blocks, expected exactly one", n)}
	}
}

func checkTicketsNumeric(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, c := range f.Changes {
		for _, t := range c.Tickets {
			if !t.IsNumeric {
				out = append(out, diag(f, "CH02", c, "ticket %q is not numeric", t.Raw))
			}
		}
	}
	return out
}

func checkTagsRequired(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, c := range f.Changes {
		if len(c.Tags) == 0 {
			out = append(out, diag(f, "CH03", c, "change has no tags"))
		}
	}
	return out
}

func checkTagsKnown(f *fragment.File, opts core.RuleOptions) []lint.Diagnostic {
	known := make(map[string]struct{})
	for _, t := range defaultCategories {
		known[t] = struct{}{}
	}
	for _, t := range defaultVocabulary {
		known[t] = struct{}{}
	}
	for _, t := range stringSliceOpt(opts, "allowed") {
		known[t] = struct{}{}
	}

	var out []lint.Diagnostic
	for _, c := range f.Changes {
		for _, tag := range c.Tags {
			if _, ok := known[tag]; !ok {
				out = append(out, diag(f, "CH04", c, "unknown tag %q", tag))
			}
		}
	}
	return out
}

func checkTagsCategory(f *fragment.File, opts core.RuleOptions) []lint.Diagnostic {
	categories := stringSliceOpt(opts, "categories")
	if len(categories) == 0 {
		categories = defaultCategories
	}
	catSet := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		catSet[c] = struct{}{}
	}

	var out []lint.Diagnostic
	for _, c := range f.Changes {
		if len(c.Tags) == 0 {
			continue // CH03 reports missing tags
		}
		if _, ok := catSet[c.Category()]; !ok {
			out = append(out, diag(f, "CH05", c,
				"first tag %q is not a change category (expected one of %s)",
				c.Category(), strings.Join(categories, ", ")))
		}
	}
	return out
}

func checkBodyRequired(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, c := range f.Changes {
		if strings.TrimSpace(c.Body) == "" {
			out = append(out, diag(f, "CH06", c, "change has an empty body"))
		}
	}
	return out
}

func checkSeeAlsoTargets(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, c := range f.Changes {
		for _, entry := range c.SeeAlso {
			if seealsoRole.MatchString(entry) {
				continue
			}
			if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") {
				continue
			}
			out = append(out, diag(f, "CH07", c, "seealso entry %q is neither a cross-reference role nor a URL", entry))
		}
	}
	return out
}

func checkFieldsKnown(f *fragment.File, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, c := range f.Changes {
		for _, fld := range c.Extra {
			d := diag(f, "CH08", c, "unrecognized field %q", fld.Name)
			d.Pos = fld.Pos
			out = append(out, d)
		}
	}
	return out
}

func checkTicketsRequired(f *fragment.File, opts core.RuleOptions) []lint.Diagnostic {
	exempt := make(map[string]struct{})
	for _, t := range stringSliceOpt(opts, "exempt_tags") {
		exempt[t] = struct{}{}
	}

	var out []lint.Diagnostic
	for _, c := range f.Changes {
		if len(c.Tickets) > 0 {
			continue
		}
		if _, ok := exempt[c.Category()]; ok {
			continue
		}
		out = append(out, diag(f, "CH09", c, "change references no ticket"))
	}
	return out
}

// stringSliceOpt reads a list option that may arrive as []string or []any
// depending on the config source.
func stringSliceOpt(opts core.RuleOptions, key string) []string {
	if opts == nil {
		return nil
	}
	switch v := opts[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
