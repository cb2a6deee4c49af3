// package files finds candidate audio files on disk and fingerprints their contents
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ibup/internal/models"
)

// CandidateSet is the set of absolute paths found by [Discover].
type CandidateSet map[string]struct{}

// Add inserts path into the set.
func (c CandidateSet) Add(path string) {
	c[path] = struct{}{}
}

// Has reports whether path was discovered.
func (c CandidateSet) Has(path string) bool {
	_, ok := c[path]
	return ok
}

// Sorted returns the paths in lexicographic order.
func (c CandidateSet) Sorted() []string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Options tunes discovery.
type Options struct {
	// SkipHidden excludes files and directories whose name starts with ".".
	SkipHidden bool
	// Logger receives warnings for entries that cannot be read. Defaults to a discarding logger.
	Logger *log.Logger
}

// Discover recursively lists every root and returns the regular files whose extension is in exts.
//
// Symbolic links are followed, to files and to directories, without cycle
// detection: a cyclic link is descended until the OS refuses the path, and
// that entry is logged and skipped. Unreadable entries are logged and skipped.
func Discover(roots []string, exts models.Extensions, opts Options) (CandidateSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	found := CandidateSet{}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			logger.Warn("skipping root", "path", abs, "error", err)
			continue
		}
		if !info.IsDir() {
			logger.Warn("skipping root, not a directory", "path", abs)
			continue
		}

		walk(abs, exts, opts.SkipHidden, found, logger)
	}

	return found, nil
}

func walk(dir string, exts models.Extensions, skipHidden bool, found CandidateSet, logger *log.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("skipping unreadable directory", "path", dir, "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if skipHidden && IsHidden(name) {
			continue
		}

		path := filepath.Join(dir, name)

		// Stat follows symlinks.
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("skipping entry", "path", path, "error", err)
			continue
		}

		switch {
		case info.IsDir():
			walk(path, exts, skipHidden, found, logger)
		case info.Mode().IsRegular():
			if exts.Has(Ext(name)) {
				found.Add(path)
			}
		}
	}
}

// Ext returns the extension of a file name, including the dot.
//
// Leading dots are part of the name, not an extension: ".mp3" has no
// extension and ".hidden.mp3" has ".mp3".
func Ext(name string) string {
	return filepath.Ext(strings.TrimLeft(name, "."))
}

// IsHidden reports whether a file name carries the hidden marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
