// Package lint provides the rule engine for changelog fragment linting.
//
// Rules come in two kinds: file rules check a single parsed fragment file,
// tree rules check cross-file concerns over the whole changelog tree
// (duplicate tickets, unknown versions). Rules are registered in a
// process-wide registry, typically from an init function in pkg/lint/rules,
// and applied by an Analyzer that layers configuration on top: disabled
// rules, per-rule severity overrides and rule-specific options.
package lint
