// Package discover finds notebook files under paths given on the command line.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// ErrNotExist is wrapped by errors for paths that do not exist.
var ErrNotExist = errors.New("not exists")

// NotExistError reports a path given by the user that does not exist.
type NotExistError struct {
	Path string
}

func (e *NotExistError) Error() string { return e.Path + " not exists!" }
func (e *NotExistError) Unwrap() error { return ErrNotExist }

// IsNotebook reports whether path names a notebook file. Names starting with
// a dot are skipped unless hidden is set.
func IsNotebook(path string, hidden bool) bool {
	name := filepath.Base(path)
	if filepath.Ext(name) != notebook.Suffix {
		return false
	}
	return hidden || !strings.HasPrefix(name, ".")
}

// Names returns the notebooks at path. A file is returned if it is a
// notebook; a directory is searched, descending into subdirectories when
// recursive is set. Hidden subdirectories are skipped unless hidden is set
// and directories whose name contains "checkpoint" are always skipped.
// An empty path means the current directory.
func Names(path string, recursive, hidden bool) ([]string, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotExistError{Path: path}
		}
		return nil, err
	}

	if !info.IsDir() {
		if IsNotebook(path, hidden) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var names []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == path {
				return nil
			}
			if !recursive || SkipDir(d.Name(), hidden) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsNotebook(p, hidden) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", path, err)
	}

	sort.Strings(names)
	return names, nil
}

// SkipDir reports whether a directory with the given name is left out of
// a search.
func SkipDir(name string, hidden bool) bool {
	if strings.HasPrefix(name, ".") && !hidden {
		return true
	}
	return strings.Contains(name, "checkpoint")
}

// NamesFromList collects the notebooks of every path in paths. Paths that
// cannot be searched are reported in errs and do not stop the search.
// No paths means the current directory. A notebook reached through more
// than one path is listed once, in the position it was first found.
func NamesFromList(paths []string, recursive, hidden bool) (names []string, errs []error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := make(map[string]bool)
	for _, path := range paths {
		found, err := Names(path, recursive, hidden)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, name := range found {
			key := fileKey(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, name)
		}
	}
	return names, errs
}

// fileKey identifies the file behind name independent of how the path was
// spelled.
func fileKey(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return filepath.Clean(name)
}
