package output

// JSON output structures shared by commands.

// LintDiagnostic is one reported lint finding.
type LintDiagnostic struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// LintFileResult groups diagnostics per fragment file.
type LintFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
}

// LintSummary aggregates lint counts.
type LintSummary struct {
	FilesAnalyzed int `json:"files_analyzed"`
	TotalIssues   int `json:"total_issues"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	Info          int `json:"info"`
	Hints         int `json:"hints"`
}

// LintOutput is the JSON document printed by the lint command.
type LintOutput struct {
	Summary LintSummary      `json:"summary"`
	Files   []LintFileResult `json:"files"`
}

// FragmentInfo describes one changelog fragment for list/show output.
type FragmentInfo struct {
	Path    string   `json:"path"`
	Series  string   `json:"series"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Tickets []int    `json:"tickets"`
}

// ListSummary aggregates list counts.
type ListSummary struct {
	Fragments int `json:"fragments"`
	Series    int `json:"series"`
}

// ListOutput is the JSON document printed by the list command.
type ListOutput struct {
	Fragments []FragmentInfo `json:"fragments"`
	Summary   ListSummary    `json:"summary"`
}

// ReleaseInfo describes a cut release.
type ReleaseInfo struct {
	Version   string `json:"version"`
	Date      string `json:"date"`
	Series    string `json:"series"`
	Path      string `json:"path,omitempty"`
	Fragments int    `json:"fragments,omitempty"`
}

// IndexOutput is the JSON document printed by the index command.
type IndexOutput struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Fragments int    `json:"fragments"`
	StatePath string `json:"state_path"`
}
