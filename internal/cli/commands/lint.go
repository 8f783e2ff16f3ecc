package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/relnote-labs/relnote/internal/cli/config"
	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/policy"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/lint"
	_ "github.com/relnote-labs/relnote/pkg/lint/rules" // register rules
	"github.com/spf13/cobra"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Path       string   // Restrict to one file or directory
	Format     string   // Output format: text, markdown, json
	Disable    []string // Rule IDs to disable
	Severity   string   // Minimum severity to report: error, warning, info, hint
	Rules      []string // Run only specific rules
	FailOn     string   // Minimum severity that causes a non-zero exit
	SkipPolicy bool     // Skip Starlark policy checks
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Run lint rules on changelog fragments",
		Long: `Analyze changelog fragments for potential issues.

Checks each fragment file for structural problems (missing tags,
non-numeric tickets, empty bodies) and the tree as a whole for
duplicate tickets and unknown versions. Rules can be configured
in relnote.yaml.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint all fragments
  relnote lint

  # Lint one series directory
  relnote lint changelog/unreleased_14

  # Output as JSON
  relnote lint --format json

  # Disable specific rules
  relnote lint --disable CH04,CP03

  # Only report errors
  relnote lint --severity error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "hint", "Minimum severity to report: error, warning, info, hint")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Minimum severity that fails the command (default: error)")
	cmd.Flags().BoolVar(&opts.SkipPolicy, "skip-policy", false, "Skip Starlark policy checks")

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	diags, err := collectDiagnostics(cmdCtx, opts)
	if err != nil {
		return err
	}

	// Display threshold
	minSev, ok := core.ParseSeverity(opts.Severity)
	if !ok {
		minSev = core.SeverityHint
	}
	diags = lint.FilterMin(diags, minSev)
	lint.Sort(diags)

	renderLintResults(r, diags)

	// Exit threshold
	failOn := opts.FailOn
	if failOn == "" && cfg.Lint != nil {
		failOn = cfg.Lint.FailOn
	}
	failSev, ok := core.ParseSeverity(failOn)
	if !ok {
		failSev = core.SeverityError
	}
	if lint.HasAtOrAbove(diags, failSev) {
		return fmt.Errorf("lint issues found")
	}
	return nil
}

// collectDiagnostics runs parse, file, tree and policy checks over the tree.
func collectDiagnostics(cmdCtx *CommandContext, opts *LintOptions) ([]lint.Diagnostic, error) {
	cfg := cmdCtx.Cfg
	tree := cmdCtx.Tree

	lintCfg := buildLintConfig(cfg.Lint, opts)
	analyzer := lint.NewAnalyzer(lintCfg)

	var diags []lint.Diagnostic

	// Parse failures surface as CH00 diagnostics.
	if !lintCfg.IsDisabled(lint.ParseRuleID) {
		for _, pe := range tree.ParseFailures() {
			if matchesPath(pe.Path, opts.Path) {
				diags = append(diags, lint.ParseDiagnostic(pe))
			}
		}
	}

	for _, f := range tree.Files() {
		if !matchesPath(f.Path, opts.Path) {
			continue
		}
		diags = append(diags, analyzer.AnalyzeFile(f)...)
	}

	// Tree rules only run over the full tree; a path filter narrows the
	// report, not the analysis.
	treeDiags := analyzer.AnalyzeTree(tree)
	for _, d := range treeDiags {
		if matchesPath(d.Path, opts.Path) {
			diags = append(diags, d)
		}
	}

	if !opts.SkipPolicy {
		policyDiags, err := policy.Check(policyScriptPath(cfg), tree.Files())
		if err != nil {
			return nil, fmt.Errorf("policy check failed: %w", err)
		}
		for _, d := range policyDiags {
			if matchesPath(d.Path, opts.Path) {
				diags = append(diags, d)
			}
		}
	}

	return diags, nil
}

// policyScriptPath resolves the policy script location: the configured
// policy.path, or policy.star at the changelog root when unconfigured.
// Check treats a missing script as a no-op, so the default is safe.
func policyScriptPath(cfg *config.Config) string {
	if cfg.Policy != nil && cfg.Policy.Path != "" {
		return cfg.Policy.Path
	}
	return filepath.Join(cfg.ChangelogDir, "policy.star")
}

// buildLintConfig layers CLI flags over the project lint config.
func buildLintConfig(base *config.LintConfig, opts *LintOptions) *core.LintConfig {
	cfg := &core.LintConfig{}
	if base != nil {
		cfg.Disabled = append(cfg.Disabled, base.Disabled...)
		cfg.Severity = base.Severity
		cfg.Rules = base.Rules
		cfg.FailOn = base.FailOn
	}

	for _, id := range opts.Disable {
		cfg.Disabled = append(cfg.Disabled, strings.TrimSpace(id))
	}

	// If --rule is given, disable everything else.
	if len(opts.Rules) > 0 {
		enabled := make(map[string]bool)
		for _, id := range opts.Rules {
			enabled[strings.TrimSpace(id)] = true
		}
		for _, rule := range lint.Rules() {
			if !enabled[rule.ID()] {
				cfg.Disabled = append(cfg.Disabled, rule.ID())
			}
		}
		if !enabled[lint.ParseRuleID] {
			cfg.Disabled = append(cfg.Disabled, lint.ParseRuleID)
		}
	}

	return cfg
}

// matchesPath reports whether a diagnostic path falls under the filter.
// Paths are relative to the changelog root.
func matchesPath(path, filter string) bool {
	if filter == "" {
		return true
	}
	filter = filepath.ToSlash(filepath.Clean(filter))
	path = filepath.ToSlash(path)

	// Accept filters given relative to CWD, e.g. "changelog/unreleased".
	for _, candidate := range []string{path, "changelog/" + path} {
		if candidate == filter || strings.HasPrefix(candidate, filter+"/") {
			return true
		}
	}
	return strings.HasSuffix(filter, path)
}

func renderLintResults(r *output.Renderer, diags []lint.Diagnostic) {
	if len(diags) == 0 {
		if r.EffectiveMode() == output.ModeJSON {
			_ = r.JSON(output.LintOutput{Files: []output.LintFileResult{}})
			return
		}
		r.Success("No lint issues found")
		return
	}

	// Group per file, preserving sorted order.
	var paths []string
	byPath := make(map[string][]lint.Diagnostic)
	for _, d := range diags {
		if _, seen := byPath[d.Path]; !seen {
			paths = append(paths, d.Path)
		}
		byPath[d.Path] = append(byPath[d.Path], d)
	}

	summary := output.LintSummary{FilesAnalyzed: len(paths), TotalIssues: len(diags)}
	for _, d := range diags {
		switch d.Severity {
		case core.SeverityError:
			summary.Errors++
		case core.SeverityWarning:
			summary.Warnings++
		case core.SeverityInfo:
			summary.Info++
		case core.SeverityHint:
			summary.Hints++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		doc := output.LintOutput{Summary: summary}
		for _, path := range paths {
			fileResult := output.LintFileResult{Path: path}
			for _, d := range byPath[path] {
				fileResult.Diagnostics = append(fileResult.Diagnostics, output.LintDiagnostic{
					RuleID:   d.RuleID,
					Severity: d.Severity.String(),
					Message:  d.Message,
					Line:     d.Pos.Line,
					Column:   d.Pos.Column,
				})
			}
			doc.Files = append(doc.Files, fileResult)
		}
		_ = r.JSON(doc)
		return
	}

	for _, path := range paths {
		r.Println(r.Styles().FragmentPath.Render(path))
		for _, d := range byPath[path] {
			loc := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
			if d.Pos.Line == 0 {
				loc = "-"
			}
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-5s", loc)),
				severityLabel(r, d.Severity),
				r.Styles().Bold.Render(d.RuleID),
				d.Message,
			)
		}
		r.Println("")
	}

	summaryParts := []string{fmt.Sprintf("%d issues", summary.TotalIssues)}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d errors", summary.Errors))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d warnings", summary.Warnings))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d info", summary.Info))
	}
	if summary.Hints > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d hints", summary.Hints))
	}
	r.Printf("Summary: %s in %d files\n", strings.Join(summaryParts, ", "), summary.FilesAnalyzed)
}

func severityLabel(r *output.Renderer, sev core.Severity) string {
	switch sev {
	case core.SeverityError:
		return r.Styles().Error.Render("error  ")
	case core.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case core.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	case core.SeverityHint:
		return r.Styles().Muted.Render("hint   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}
