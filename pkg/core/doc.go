// Package core holds shared types used across relnote packages.
//
// Types here are deliberately free of behavior beyond trivial accessors so
// that pkg/lint, internal/state and internal/cli can share them without
// import cycles.
package core
