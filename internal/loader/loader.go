// Package loader walks a changelog tree and parses its fragment files.
//
// The expected layout mirrors the fragment trees of large database toolkits:
//
//	changelog/
//	    releases.yaml          release manifest
//	    unreleased/            fragments for the default series
//	    unreleased_14/         fragments for the "14" series
//	    1.3.0.rst              compiled per-version documents (output)
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/relnote-labs/relnote/internal/manifest"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"golang.org/x/sync/errgroup"
)

// DefaultSeries is the series name of the plain "unreleased" directory.
const DefaultSeries = "default"

// unreleasedPrefix marks fragment directories.
const unreleasedPrefix = "unreleased"

// parseConcurrency bounds the parse workers. Fragments are tiny; this is
// about directory walk latency, not CPU.
const parseConcurrency = 8

// Tree is a fully loaded changelog tree. It implements lint.TreeContext.
type Tree struct {
	Root     string
	Manifest *manifest.Manifest

	bySeries      map[string][]*fragment.File
	parseFailures []*fragment.ParseError
}

// Files returns all parsed fragment files across series, in path order.
func (t *Tree) Files() []*fragment.File {
	var out []*fragment.File
	for _, files := range t.bySeries {
		out = append(out, files...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// KnownVersions returns the versions recorded in the release manifest.
func (t *Tree) KnownVersions() []string {
	if t.Manifest == nil {
		return nil
	}
	return t.Manifest.Versions()
}

// SeriesNames returns the loaded series names, sorted.
func (t *Tree) SeriesNames() []string {
	out := make([]string, 0, len(t.bySeries))
	for name := range t.bySeries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SeriesFiles returns the fragment files of one series, in path order.
func (t *Tree) SeriesFiles(series string) []*fragment.File {
	files := append([]*fragment.File(nil), t.bySeries[series]...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// SeriesOf returns the series a loaded file belongs to.
func (t *Tree) SeriesOf(f *fragment.File) string {
	dir := filepath.Dir(f.Path)
	return seriesName(filepath.Base(dir))
}

// ParseFailures returns files that failed to parse, for lint reporting.
func (t *Tree) ParseFailures() []*fragment.ParseError {
	return t.parseFailures
}

// FragmentCount returns the number of successfully parsed files.
func (t *Tree) FragmentCount() int {
	n := 0
	for _, files := range t.bySeries {
		n += len(files)
	}
	return n
}

// Load walks the changelog tree rooted at root, parses all fragment files
// concurrently, and reads the release manifest. Parse failures do not abort
// the load; they are collected for lint reporting. IO failures do.
func Load(ctx context.Context, root string) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("changelog directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("changelog path is not a directory: %s", root)
	}

	m, err := manifest.Load(filepath.Join(root, manifest.FileName))
	if err != nil {
		return nil, err
	}

	tree := &Tree{
		Root:     root,
		Manifest: m,
		bySeries: make(map[string][]*fragment.File),
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog directory: %w", err)
	}

	var mu sync.Mutex
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(parseConcurrency)

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), unreleasedPrefix) {
			continue
		}
		series := seriesName(entry.Name())
		tree.bySeries[series] = nil // register the series even if empty

		dir := filepath.Join(root, entry.Name())
		paths, err := fragmentPaths(dir)
		if err != nil {
			return nil, err
		}

		for _, path := range paths {
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				rel, _ := filepath.Rel(root, path)

				data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from directory walk
				if err != nil {
					return fmt.Errorf("failed to read fragment %s: %w", rel, err)
				}

				f, err := fragment.Parse(rel, data)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					var pe *fragment.ParseError
					if errors.As(err, &pe) {
						tree.parseFailures = append(tree.parseFailures, pe)
						return nil
					}
					return err
				}
				tree.bySeries[series] = append(tree.bySeries[series], f)
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(tree.parseFailures, func(i, j int) bool {
		return tree.parseFailures[i].Path < tree.parseFailures[j].Path
	})
	return tree, nil
}

// seriesName maps a fragment directory name to its series.
func seriesName(dir string) string {
	if dir == unreleasedPrefix {
		return DefaultSeries
	}
	return strings.TrimPrefix(dir, unreleasedPrefix+"_")
}

// fragmentPaths lists the .rst files directly inside dir, skipping hidden
// files. Fragment directories are flat; nested directories are ignored.
func fragmentPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment directory %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".rst") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
