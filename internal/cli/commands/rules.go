package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/lint"
	_ "github.com/relnote-labs/relnote/pkg/lint/rules" // register rules
	"github.com/spf13/cobra"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Type    string // Filter by type: file, tree
	Verbose bool   // Show full documentation
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List all available lint rules with their documentation.

Rules are organized by type (file or tree) and group (e.g., tags,
tickets, body). Use --verbose to see full documentation including
examples and fix guidance.`,
		Example: `  # List all rules
  relnote rules

  # Show details for a specific rule
  relnote rules CH02

  # List file rules only
  relnote rules --type file

  # List rules in the tickets group
  relnote rules --group tickets

  # Output as JSON
  relnote rules --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Filter by type: file, tree")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	rules := filterRulesByOptions(lint.RuleInfos(), opts)

	// Sort by type, then group, then ID
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Type != rules[j].Type {
			return rules[i].Type < rules[j].Type
		}
		if rules[i].Group != rules[j].Group {
			return rules[i].Group < rules[j].Group
		}
		return rules[i].ID < rules[j].ID
	})

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, rules)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, rules, opts.Verbose)
	default:
		return listRulesText(r, rules, opts.Verbose)
	}
}

func filterRulesByOptions(rules []core.RuleInfo, opts *RulesOptions) []core.RuleInfo {
	if opts.Group == "" && opts.Type == "" {
		return rules
	}

	var filtered []core.RuleInfo
	for _, r := range rules {
		if opts.Group != "" && r.Group != opts.Group {
			continue
		}
		if opts.Type != "" && r.Type != opts.Type {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	var rule *core.RuleInfo
	for _, ri := range lint.RuleInfos() {
		if ri.ID == ruleID {
			rule = &ri
			break
		}
	}
	if rule == nil {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(rule)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, rule)
	default:
		return showRuleText(r, rule)
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []core.RuleInfo, verbose bool) error {
	styles := r.Styles()

	fileCount, treeCount := 0, 0
	for _, rule := range rules {
		if rule.Type == "file" {
			fileCount++
		} else {
			treeCount++
		}
	}

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Lint Rules (%d file, %d tree)", fileCount, treeCount)))
	r.Println("")

	currentType := ""
	currentGroup := ""

	for _, rule := range rules {
		if rule.Type != currentType {
			currentType = rule.Type
			currentGroup = ""
			typeLabel := "File Rules"
			if currentType == "tree" {
				typeLabel = "Tree Rules"
			}
			r.Println(styles.Header2.Render(typeLabel))
			r.Println("")
		}

		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Bold.Render("  " + capitalizeFirst(currentGroup)))
		}

		sevStyle := getSeverityStyle(styles, rule.DefaultSeverity)
		r.Printf("    %s  %s - %s\n",
			styles.Muted.Render(rule.ID),
			rule.Name,
			sevStyle.Render(rule.DefaultSeverity.String()),
		)

		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + truncateOneLine(rule.Rationale, 80)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'relnote rules <rule-id>' for detailed documentation"))
	r.Println("")

	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []core.RuleInfo, verbose bool) error {
	r.Println("# Lint Rules")
	r.Println("")

	currentType := ""
	currentGroup := ""

	for _, rule := range rules {
		if rule.Type != currentType {
			currentType = rule.Type
			currentGroup = ""
			typeLabel := "File Rules"
			if currentType == "tree" {
				typeLabel = "Tree Rules"
			}
			r.Println("## " + typeLabel)
			r.Println("")
		}

		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println("### " + capitalizeFirst(currentGroup))
			r.Println("")
		}

		r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, rule.DefaultSeverity.String())
		if verbose {
			r.Println("  " + rule.Description)
			if rule.Rationale != "" {
				r.Println("  > " + rule.Rationale)
			}
		}
	}

	r.Println("")
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []core.RuleInfo `json:"rules"`
	Count struct {
		File  int `json:"file"`
		Tree  int `json:"tree"`
		Total int `json:"total"`
	} `json:"count"`
}

// listRulesJSON outputs rules in JSON format.
func listRulesJSON(r *output.Renderer, rules []core.RuleInfo) error {
	jsonOutput := RulesJSONOutput{Rules: rules}
	for _, rule := range rules {
		if rule.Type == "file" {
			jsonOutput.Count.File++
		} else {
			jsonOutput.Count.Tree++
		}
	}
	jsonOutput.Count.Total = len(rules)

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput)
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule *core.RuleInfo) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Type"), rule.Type)
	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.DefaultSeverity.String())
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println(styles.Bold.Render("Bad Example"))
		for _, line := range strings.Split(rule.BadExample, "\n") {
			r.Println(styles.Muted.Render("  " + line))
		}
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println(styles.Bold.Render("Good Example"))
		for _, line := range strings.Split(rule.GoodExample, "\n") {
			r.Println(styles.Success.Render("  " + line))
		}
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}

	if len(rule.ConfigKeys) > 0 {
		r.Println(styles.Bold.Render("Configuration"))
		r.Printf("  Options: %s\n", strings.Join(rule.ConfigKeys, ", "))
		r.Println("")
	}

	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule *core.RuleInfo) error {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Type:** %s | **Group:** %s | **Severity:** `%s`\n\n", rule.Type, rule.Group, rule.DefaultSeverity.String())
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println("## Bad Example")
		r.Println("")
		r.Println(output.FormatCodeBlock("rst", rule.BadExample))
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println("## Good Example")
		r.Println("")
		r.Println(output.FormatCodeBlock("rst", rule.GoodExample))
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}

	if len(rule.ConfigKeys) > 0 {
		r.Println("## Configuration")
		r.Println("")
		r.Printf("Options: `%s`\n", strings.Join(rule.ConfigKeys, "`, `"))
		r.Println("")
	}

	return nil
}

// Helper functions

func getSeverityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return styles.Error
	case core.SeverityWarning:
		return styles.Warning
	case core.SeverityInfo:
		return styles.Info
	default:
		return styles.Muted
	}
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
