package rules

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/lint"
)

func init() {
	lint.Register(lint.WrapTreeRuleDef(lint.TreeRuleDef{
		ID:          "CP01",
		Name:        "tickets.duplicate",
		Group:       "tickets",
		Description: "A ticket is referenced by at most one unreleased fragment",
		Severity:    core.SeverityWarning,
		Check:       checkDuplicateTickets,
		Rationale:   "Two fragments for the same ticket usually means a rebased branch left a stale file behind.",
	}))

	lint.Register(lint.WrapTreeRuleDef(lint.TreeRuleDef{
		ID:          "CP02",
		Name:        "versions.known",
		Group:       "versions",
		Description: "Every :versions: value names a release in the manifest",
		Severity:    core.SeverityWarning,
		Check:       checkVersionsKnown,
	}))

	lint.Register(lint.WrapTreeRuleDef(lint.TreeRuleDef{
		ID:          "CP03",
		Name:        "filename.convention",
		Group:       "files",
		Description: "A fragment file is named after its first ticket",
		Severity:    core.SeverityHint,
		Check:       checkFilenameConvention,
		GoodExample: "4349.rst",
	}))
}

func checkDuplicateTickets(ctx lint.TreeContext, _ core.RuleOptions) []lint.Diagnostic {
	firstSeen := make(map[int]string) // ticket -> path
	var out []lint.Diagnostic
	for _, f := range ctx.Files() {
		for _, c := range f.Changes {
			for _, ticket := range c.NumericTickets() {
				prev, ok := firstSeen[ticket]
				if !ok {
					firstSeen[ticket] = f.Path
					continue
				}
				if prev == f.Path {
					continue
				}
				out = append(out, lint.Diagnostic{
					RuleID:  "CP01",
					Path:    f.Path,
					Pos:     c.Span.Start,
					Message: fmt.Sprintf("ticket %d is also referenced by %s", ticket, prev),
				})
			}
		}
	}
	return out
}

func checkVersionsKnown(ctx lint.TreeContext, _ core.RuleOptions) []lint.Diagnostic {
	versions := ctx.KnownVersions()
	if len(versions) == 0 {
		return nil // no manifest, nothing to check against
	}
	known := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		known[v] = struct{}{}
	}

	var out []lint.Diagnostic
	for _, f := range ctx.Files() {
		for _, c := range f.Changes {
			for _, v := range c.Versions {
				if _, ok := known[v]; !ok {
					out = append(out, lint.Diagnostic{
						RuleID:  "CP02",
						Path:    f.Path,
						Pos:     c.Span.Start,
						Message: fmt.Sprintf("version %q is not in the release manifest", v),
					})
				}
			}
		}
	}
	return out
}

func checkFilenameConvention(ctx lint.TreeContext, _ core.RuleOptions) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, f := range ctx.Files() {
		c := f.Change()
		if c == nil {
			continue
		}
		tickets := c.NumericTickets()
		if len(tickets) == 0 {
			continue
		}
		base := filepath.Base(f.Path)
		if strings.Contains(base, strconv.Itoa(tickets[0])) {
			continue
		}
		out = append(out, lint.Diagnostic{
			RuleID:  "CP03",
			Path:    f.Path,
			Pos:     c.Span.Start,
			Message: fmt.Sprintf("file name %q does not mention ticket %d", base, tickets[0]),
		})
	}
	return out
}
