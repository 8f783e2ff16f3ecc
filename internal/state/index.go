package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/pkg/core"
)

// RowsFromTree converts a loaded changelog tree into index rows.
// One row per fragment file; files with multiple change blocks (a lint
// error) are indexed with their fields merged so they remain findable.
func RowsFromTree(tree *loader.Tree) ([]*core.IndexedFragment, error) {
	var out []*core.IndexedFragment
	for _, f := range tree.Files() {
		data, err := os.ReadFile(filepath.Join(tree.Root, f.Path)) //nolint:gosec // G304: path comes from tree walk
		if err != nil {
			return nil, fmt.Errorf("failed to hash fragment %s: %w", f.Path, err)
		}
		sum := sha256.Sum256(data)

		row := &core.IndexedFragment{
			Path:   f.Path,
			Series: tree.SeriesOf(f),
			Hash:   hex.EncodeToString(sum[:]),
		}
		for _, c := range f.Changes {
			if row.Title == "" {
				row.Title = c.Title()
			}
			if row.Body == "" {
				row.Body = c.Body
			} else {
				row.Body += "\n\n" + c.Body
			}
			row.Tags = appendUnique(row.Tags, c.Tags)
			row.Tickets = append(row.Tickets, c.NumericTickets()...)
		}
		out = append(out, row)
	}
	return out, nil
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			dst = append(dst, s)
		}
	}
	return dst
}
