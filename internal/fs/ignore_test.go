package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		isDir    bool
		want     bool
	}{
		{"no patterns", nil, "main.go", false, false},
		{"basename glob at root", []string{"*.log"}, "debug.log", false, true},
		{"basename glob nested", []string{"*.log"}, "logs/2024/app.log", false, true},
		{"basename glob miss", []string{"*.log"}, "main.go", false, false},
		{"exact name matches dir", []string{"node_modules"}, "web/node_modules", true, true},
		{"path pattern", []string{"build/*.o"}, "build/main.o", false, true},
		{"path pattern is anchored", []string{"build/*.o"}, "sub/build/main.o", false, false},
		{"leading slash anchors basename", []string{"/TODO"}, "TODO", false, true},
		{"leading slash skips nested", []string{"/TODO"}, "docs/TODO", false, false},
		{"dir-only skips files", []string{"target/"}, "target", false, false},
		{"dir-only matches dirs", []string{"target/"}, "crates/target", true, true},
		{"negation re-includes", []string{"*.env", "!example.env"}, "example.env", false, false},
		{"negation leaves others", []string{"*.env", "!example.env"}, "prod.env", false, true},
		{"last rule wins", []string{"!keep.txt", "*.txt"}, "keep.txt", false, true},
		{"comments and blanks", []string{"# *.go", "", "   "}, "main.go", false, false},
		{"malformed glob dropped", []string{"[", "*.tmp"}, "x.tmp", false, true},
		{"os separators", []string{"a/b"}, filepath.Join("a", "b"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.rel, tt.isDir); got != tt.want {
				t.Errorf("Match(%q, %v) = %v, want %v", tt.rel, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestDefaultIgnorePatterns(t *testing.T) {
	m := NewIgnoreMatcher(defaultIgnorePatterns)

	if !m.Match(".git", true) {
		t.Error("expected .git directory to be ignored")
	}
	if !m.Match(IgnoreFileName, false) {
		t.Errorf("expected %s to be ignored", IgnoreFileName)
	}
	if m.Match(".gitignore", false) {
		t.Error(".gitignore should be kept")
	}
}

func TestReadIgnoreFile(t *testing.T) {
	t.Run("splits lines", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), IgnoreFileName)
		if err := os.WriteFile(name, []byte("*.log\r\ndist/\n# note"), 0644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadIgnoreFile(name)
		if err != nil {
			t.Fatalf("ReadIgnoreFile() error = %v", err)
		}
		want := []string{"*.log", "dist/", "# note"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ReadIgnoreFile() = %q, want %q", got, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		got, err := ReadIgnoreFile(filepath.Join(t.TempDir(), IgnoreFileName))
		if err != nil {
			t.Fatalf("ReadIgnoreFile() error = %v", err)
		}
		if got != nil {
			t.Errorf("ReadIgnoreFile() = %q, want nil", got)
		}
	})

	t.Run("unreadable path", func(t *testing.T) {
		if _, err := ReadIgnoreFile(t.TempDir()); err == nil {
			t.Error("ReadIgnoreFile() on a directory expected error")
		}
	})
}
