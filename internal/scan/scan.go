// Package scan expands the paths given on the command line into the
// ordered list of files a run will process.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"flacfixer/internal/flacfile"
)

// Entry is one file queued for processing, paired with the root argument
// it was found under so reporters can print paths relative to what the
// user asked for.
type Entry struct {
	Path string
	Root string
}

// Collect expands roots into files. File roots pass through as-is;
// directory roots are walked recursively and every regular file is
// included regardless of name, because whether something is a FLAC stream
// is decided at parse time, not by extension. A path reachable through
// more than one root is queued once. A root that cannot be read fails the
// run before any file is touched.
func Collect(roots []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(roots))
	seen := make(map[string]struct{})

	add := func(path, root string) error {
		key, err := filepath.Abs(path)
		if err != nil {
			return flacfile.Wrap(flacfile.ErrIO, "resolve path", err)
		}
		if _, ok := seen[key]; ok {
			return nil
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{Path: path, Root: root})
		return nil
	}

	for _, root := range roots {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil {
			return nil, flacfile.Wrap(flacfile.ErrIO, "stat root", err)
		}

		if !info.IsDir() {
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("%w: not a regular file or directory: %s", flacfile.ErrIO, root)
			}
			if err := add(root, filepath.Dir(root)); err != nil {
				return nil, err
			}
			continue
		}

		var files []string
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				// Symlinked files are processed through their target;
				// broken links are ignored.
				target, err := os.Stat(path)
				if err != nil || !target.Mode().IsRegular() {
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return nil, flacfile.Wrap(flacfile.ErrIO, "walk directory", walkErr)
		}

		sort.Strings(files)
		for _, path := range files {
			if err := add(path, root); err != nil {
				return nil, err
			}
		}
	}
	return entries, nil
}
