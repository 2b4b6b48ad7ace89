package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-project ignore file read from the scan root.
const IgnoreFileName = ".snapignore"

// defaultIgnorePatterns are always applied regardless of config or .snapignore.
var defaultIgnorePatterns = []string{IgnoreFileName, ".git/"}

type ignoreRule struct {
	glob     string
	anchored bool // match the whole relative path instead of the basename
	dirOnly  bool
	negate   bool
}

// IgnoreMatcher decides which paths a scan leaves out. It understands a
// subset of gitignore syntax:
//
//	name      basename match anywhere in the tree
//	a/b*.go   path match relative to the scan root
//	/name     basename match at the root only
//	name/     directories only
//	!name     re-include something an earlier rule excluded
//
// The last matching rule decides.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher builds a matcher from pattern lines.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var r ignoreRule
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			r.negate = true
			line = rest
		}
		if rest, ok := strings.CutSuffix(line, "/"); ok {
			r.dirOnly = true
			line = rest
		}
		if rest, ok := strings.CutPrefix(line, "/"); ok {
			r.anchored = true
			line = rest
		}
		if strings.Contains(line, "/") {
			r.anchored = true
		}
		if line == "" {
			continue
		}
		if _, err := path.Match(line, ""); err != nil {
			continue // malformed glob
		}
		r.glob = line
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether rel, a path relative to the scan root, is ignored.
// isDir says whether rel names a directory.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		target := base
		if r.anchored {
			target = rel
		}
		if ok, _ := path.Match(r.glob, target); ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// ReadIgnoreFile returns the pattern lines of an ignore file.
// A missing file yields no patterns and no error.
func ReadIgnoreFile(name string) ([]string, error) {
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), nil
}
