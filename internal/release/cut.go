package release

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/internal/manifest"
	"github.com/relnote-labs/relnote/pkg/core"
)

// CutOptions controls cutting a release from the fragment tree.
type CutOptions struct {
	Version string
	Date    string // YYYY-MM-DD
	Series  string
	Format  string // rst or markdown; rst by default
	Compile CompileOptions

	// DryRun compiles without touching the tree.
	DryRun bool
}

// CutResult summarizes a cut release.
type CutResult struct {
	Version   string
	Path      string // compiled notes file, relative to the changelog root
	Fragments int    // fragment files consumed
	Document  *Document
}

// Cut compiles the series' unreleased fragments into a versioned notes file,
// removes the consumed fragment files, and appends the version to the
// manifest. The caller is expected to have linted the tree first.
func Cut(tree *loader.Tree, opts CutOptions) (*CutResult, error) {
	if opts.Version == "" {
		return nil, fmt.Errorf("release version is required")
	}
	if tree.Manifest.Has(opts.Version) {
		return nil, fmt.Errorf("version %s is already released", opts.Version)
	}

	files := tree.SeriesFiles(opts.Series)
	if len(files) == 0 {
		return nil, fmt.Errorf("no unreleased fragments in series %q", opts.Series)
	}

	doc := Compile(files, opts.Version, opts.Date, opts.Series, opts.Compile)

	ext := ".rst"
	if opts.Format == FormatMarkdown || opts.Format == "md" {
		ext = ".md"
	}
	relPath := opts.Version + ext

	result := &CutResult{
		Version:   opts.Version,
		Path:      relPath,
		Fragments: len(files),
		Document:  doc,
	}
	if opts.DryRun {
		return result, nil
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf, opts.Format); err != nil {
		return nil, err
	}

	outPath := filepath.Join(tree.Root, relPath)
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: release notes are documentation
		return nil, fmt.Errorf("failed to write release notes: %w", err)
	}

	// Remove consumed fragments only after the notes file is on disk.
	for _, f := range files {
		if err := os.Remove(filepath.Join(tree.Root, f.Path)); err != nil {
			return nil, fmt.Errorf("failed to remove consumed fragment %s: %w", f.Path, err)
		}
	}

	tree.Manifest.Add(core.Release{
		Version: opts.Version,
		Date:    opts.Date,
		Series:  opts.Series,
	})
	if err := tree.Manifest.Save(filepath.Join(tree.Root, manifest.FileName)); err != nil {
		return nil, err
	}

	return result, nil
}
