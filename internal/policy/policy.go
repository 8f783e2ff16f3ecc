// Package policy runs user-supplied Starlark policy scripts against parsed
// changelog fragments.
//
// A policy script defines a check(change) function. It is called once per
// fragment and may return None (no finding), a string, a list of strings, or
// a dict with "message" and optional "severity" keys. Each finding becomes a
// CS01 diagnostic. A missing script means no policy is in force.
package policy

import (
	"fmt"
	"os"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"github.com/relnote-labs/relnote/pkg/lint"
)

// RuleID is the diagnostic identifier attributed to policy findings.
const RuleID = "CS01"

// CheckFunc is the function name a policy script must export.
const CheckFunc = "check"

// Check executes the policy script at scriptPath against the given fragment
// files and returns the resulting diagnostics. A missing script yields no
// diagnostics: the policy hook is optional.
func Check(scriptPath string, files []*fragment.File) ([]lint.Diagnostic, error) {
	src, err := os.ReadFile(scriptPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy script: %w", err)
	}

	thread := &starlark.Thread{
		Name: "policy",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(os.Stderr, msg)
		},
	}

	globals, err := starlark.ExecFile(thread, scriptPath, src, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, fmt.Errorf("policy script failed: %w", err)
	}

	checkFn, ok := globals[CheckFunc]
	if !ok {
		return nil, fmt.Errorf("policy script %s does not define %s(change)", scriptPath, CheckFunc)
	}
	callable, ok := checkFn.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("policy script %s: %s is not callable", scriptPath, CheckFunc)
	}

	var diags []lint.Diagnostic
	for _, f := range files {
		change := f.Change()
		if change == nil {
			// Structural problems are the lint rules' concern.
			continue
		}

		result, err := starlark.Call(thread, callable, starlark.Tuple{changeValue(f.Path, change)}, nil)
		if err != nil {
			return nil, fmt.Errorf("policy check failed for %s: %w", f.Path, err)
		}

		fileDiags, err := diagnosticsFromResult(f, change, result)
		if err != nil {
			return nil, fmt.Errorf("policy check for %s: %w", f.Path, err)
		}
		diags = append(diags, fileDiags...)
	}

	return diags, nil
}

// changeValue converts a parsed change into the Starlark struct handed to
// check(change).
func changeValue(path string, c *fragment.Change) starlark.Value {
	tags := make([]starlark.Value, len(c.Tags))
	for i, t := range c.Tags {
		tags[i] = starlark.String(t)
	}

	numeric := c.NumericTickets()
	tickets := make([]starlark.Value, len(numeric))
	for i, n := range numeric {
		tickets[i] = starlark.MakeInt(n)
	}

	return starlarkstruct.FromStringDict(starlark.String("change"), starlark.StringDict{
		"path":     starlark.String(path),
		"tags":     starlark.NewList(tags),
		"tickets":  starlark.NewList(tickets),
		"body":     starlark.String(c.Body),
		"title":    starlark.String(c.Title()),
		"category": starlark.String(c.Category()),
	})
}

// diagnosticsFromResult interprets the value returned by check(change).
func diagnosticsFromResult(f *fragment.File, c *fragment.Change, v starlark.Value) ([]lint.Diagnostic, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return []lint.Diagnostic{newDiagnostic(f, c, string(val), core.SeverityWarning)}, nil

	case *starlark.List:
		var diags []lint.Diagnostic
		for i := 0; i < val.Len(); i++ {
			sub, err := diagnosticsFromResult(f, c, val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			diags = append(diags, sub...)
		}
		return diags, nil

	case *starlark.Dict:
		msg, sev, err := decodeFinding(val)
		if err != nil {
			return nil, err
		}
		return []lint.Diagnostic{newDiagnostic(f, c, msg, sev)}, nil

	default:
		return nil, fmt.Errorf("%s must return None, a string, a list or a dict, got %s", CheckFunc, v.Type())
	}
}

// decodeFinding extracts message and severity from a dict finding.
func decodeFinding(d *starlark.Dict) (string, core.Severity, error) {
	msgVal, found, err := d.Get(starlark.String("message"))
	if err != nil || !found {
		return "", 0, fmt.Errorf("finding dict needs a \"message\" key")
	}
	msg, ok := msgVal.(starlark.String)
	if !ok {
		return "", 0, fmt.Errorf("finding message must be a string, got %s", msgVal.Type())
	}

	sev := core.SeverityWarning
	if sevVal, found, _ := d.Get(starlark.String("severity")); found {
		name, ok := sevVal.(starlark.String)
		if !ok {
			return "", 0, fmt.Errorf("finding severity must be a string, got %s", sevVal.Type())
		}
		parsed, ok := core.ParseSeverity(string(name))
		if !ok {
			return "", 0, fmt.Errorf("unknown severity %q", string(name))
		}
		sev = parsed
	}

	return string(msg), sev, nil
}

func newDiagnostic(f *fragment.File, c *fragment.Change, msg string, sev core.Severity) lint.Diagnostic {
	return lint.Diagnostic{
		RuleID:       RuleID,
		Severity:     sev,
		SeverityName: sev.String(),
		Path:         f.Path,
		Pos:          c.Span.Start,
		Message:      msg,
	}
}
