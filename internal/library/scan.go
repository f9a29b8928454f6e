package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tessro/spindle/internal/audio"
)

// ScanOptions controls a recursive scan.
type ScanOptions struct {
	ShowHidden bool
	// MaxDepth is the number of directory levels read, counting the root:
	// 1 reads only the root itself. 0 means unlimited.
	MaxDepth int
}

// Scan walks root and returns every audio file below it in path order.
// Unreadable subdirectories are skipped rather than failing the scan.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]string, error) {
	root = filepath.Clean(root)
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}

		if path != root && !opts.ShowHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if opts.MaxDepth > 0 && path != root && depth(root, path) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if audio.IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return files, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
