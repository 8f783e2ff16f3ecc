package lint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relnote-labs/relnote/pkg/core"
)

// registry holds all registered rules keyed by ID.
type registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

var defaultRegistry = &registry{rules: make(map[string]Rule)}

// Register adds a rule to the default registry. It panics on duplicate IDs,
// which indicates a programming error at init time.
func Register(r Rule) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.rules[r.ID()]; exists {
		panic(fmt.Sprintf("lint: duplicate rule ID %q", r.ID()))
	}
	defaultRegistry.rules[r.ID()] = r
}

// Get returns the rule with the given ID, or nil.
func Get(id string) Rule {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	return defaultRegistry.rules[id]
}

// Rules returns all registered rules sorted by ID.
func Rules() []Rule {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	out := make([]Rule, 0, len(defaultRegistry.rules))
	for _, r := range defaultRegistry.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// FileRules returns all registered file rules sorted by ID.
func FileRules() []FileRule {
	var out []FileRule
	for _, r := range Rules() {
		if fr, ok := r.(FileRule); ok {
			out = append(out, fr)
		}
	}
	return out
}

// TreeRules returns all registered tree rules sorted by ID.
func TreeRules() []TreeRule {
	var out []TreeRule
	for _, r := range Rules() {
		if tr, ok := r.(TreeRule); ok {
			out = append(out, tr)
		}
	}
	return out
}

// RuleInfos returns metadata for all registered rules, for the rules command.
func RuleInfos() []core.RuleInfo {
	rules := Rules()
	out := make([]core.RuleInfo, 0, len(rules))
	for _, r := range rules {
		out = append(out, GetRuleInfo(r))
	}
	return out
}
