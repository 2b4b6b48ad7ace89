package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"snapstore/internal/snap"
)

// Scanner walks a project directory and describes every regular file it
// finds as a snap.FileEntry: slash-separated path prefixed with the project
// directory's name, SHA-256 content hash in lowercase hex, size in bytes.
type Scanner struct {
	ignore []string
}

// NewScanner creates a scanner that skips paths matching the given patterns
// in addition to the defaults and the root's .snapignore.
func NewScanner(ignore []string) *Scanner {
	return &Scanner{ignore: ignore}
}

// Scan returns the entries under root, ordered by path.
// Symlinks, devices and other non-regular files are skipped.
func (s *Scanner) Scan(root string) ([]snap.FileEntry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absRoot)
	}

	projectPatterns, err := ReadIgnoreFile(filepath.Join(absRoot, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := append(append(append([]string{}, defaultIgnorePatterns...), s.ignore...), projectPatterns...)
	matcher := NewIgnoreMatcher(patterns)

	prefix := filepath.Base(absRoot)
	var paths []string

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		if matcher.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	// Hash in parallel; each goroutine owns one slot of files.
	files := make([]snap.FileEntry, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range paths {
		g.Go(func() error {
			hash, size, err := hashFile(filepath.Join(absRoot, rel))
			if err != nil {
				return err
			}
			files[i] = snap.FileEntry{
				Path: path.Join(prefix, filepath.ToSlash(rel)),
				Hash: hash,
				Size: size,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ProjectName is the name a root snapshot of dir is recorded under.
func ProjectName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return filepath.Base(abs), nil
}

func hashFile(p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
