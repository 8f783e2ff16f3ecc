package core

import "time"

// =============================================================================
// Index types
// =============================================================================

// IndexedFragment is a fragment row as stored in the state index.
type IndexedFragment struct {
	ID       string    // UUID assigned at index time
	Path     string    // Path relative to the changelog root
	Series   string    // Series the fragment belongs to (e.g., "1.4")
	Title    string    // First body line, used for listings
	Body     string    // Full dedented body text
	Hash     string    // SHA-256 of the source file
	Tags     []string  // Ordered tags
	Tickets  []int     // Ordered numeric tickets
	Indexed  time.Time // When this row was written
	Released string    // Version that consumed the fragment, empty if unreleased
}

// Release is a released version recorded in the manifest and index.
type Release struct {
	Version string    `yaml:"version"`
	Date    string    `yaml:"date"`
	Series  string    `yaml:"series,omitempty"`
	Created time.Time `yaml:"-"`
}

// IndexRunStatus is the lifecycle state of an index run.
type IndexRunStatus string

// Index run statuses.
const (
	IndexRunRunning   IndexRunStatus = "running"
	IndexRunCompleted IndexRunStatus = "completed"
	IndexRunFailed    IndexRunStatus = "failed"
)

// IndexRun records one full reindex of the changelog tree.
type IndexRun struct {
	ID          string
	Status      IndexRunStatus
	Fragments   int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// =============================================================================
// Store
// =============================================================================

// Store is the persistence interface for the changelog index.
// Implemented by state.SQLiteStore.
type Store interface {
	Open(path string) error
	Close() error

	// BeginIndexRun starts a new index run and returns it.
	BeginIndexRun() (*IndexRun, error)
	// FinishIndexRun marks a run completed or failed.
	FinishIndexRun(run *IndexRun, count int, runErr error) error

	// ReplaceFragments atomically replaces all unreleased fragment rows.
	ReplaceFragments(frags []*IndexedFragment) error

	// FragmentsByTicket returns fragments referencing the ticket.
	FragmentsByTicket(ticket int) ([]*IndexedFragment, error)
	// FragmentsByTag returns fragments carrying the tag.
	FragmentsByTag(tag string) ([]*IndexedFragment, error)

	// RecordRelease records a cut release.
	RecordRelease(rel *Release) error
	// Releases returns all recorded releases, newest first.
	Releases() ([]*Release, error)
}
