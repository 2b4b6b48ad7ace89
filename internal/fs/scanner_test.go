package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Run("describes every regular file", func(t *testing.T) {
		t.Parallel()
		root := filepath.Join(t.TempDir(), "MyProject")
		writeFile(t, filepath.Join(root, "README.md"), "hello")
		writeFile(t, filepath.Join(root, "src", "main.go"), "package main")
		writeFile(t, filepath.Join(root, "empty.txt"), "")

		files, err := NewScanner(nil).Scan(root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		want := []struct {
			path string
			hash string
			size int64
		}{
			{"MyProject/README.md", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", 5},
			{"MyProject/empty.txt", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", 0},
			{"MyProject/src/main.go", "", 12},
		}
		if len(files) != len(want) {
			t.Fatalf("got %d files, want %d: %+v", len(files), len(want), files)
		}
		for i, w := range want {
			if files[i].Path != w.path {
				t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, w.path)
			}
			if w.hash != "" && files[i].Hash != w.hash {
				t.Errorf("files[%d].Hash = %q, want %q", i, files[i].Hash, w.hash)
			}
			if files[i].Size != w.size {
				t.Errorf("files[%d].Size = %d, want %d", i, files[i].Size, w.size)
			}
		}
	})

	t.Run("applies default, configured and project ignores", func(t *testing.T) {
		t.Parallel()
		root := filepath.Join(t.TempDir(), "proj")
		writeFile(t, filepath.Join(root, "keep.txt"), "k")
		writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
		writeFile(t, filepath.Join(root, "node_modules", "x", "index.js"), "x")
		writeFile(t, filepath.Join(root, "debug.log"), "l")
		writeFile(t, filepath.Join(root, IgnoreFileName), "*.log\n")

		files, err := NewScanner([]string{"node_modules"}).Scan(root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(files) != 1 || files[0].Path != "proj/keep.txt" {
			t.Errorf("Scan() = %+v, want only proj/keep.txt", files)
		}
	})

	t.Run("skips symlinks", func(t *testing.T) {
		t.Parallel()
		root := filepath.Join(t.TempDir(), "proj")
		writeFile(t, filepath.Join(root, "real.txt"), "r")
		if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}

		files, err := NewScanner(nil).Scan(root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(files) != 1 {
			t.Errorf("got %d files, want 1", len(files))
		}
	})

	t.Run("empty directory gives empty list", func(t *testing.T) {
		t.Parallel()
		files, err := NewScanner(nil).Scan(t.TempDir())
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if files == nil || len(files) != 0 {
			t.Errorf("Scan() = %v, want empty slice", files)
		}
	})

	t.Run("rejects a file", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "f.txt")
		writeFile(t, p, "x")
		if _, err := NewScanner(nil).Scan(p); err == nil {
			t.Fatal("Scan() expected error for non-directory")
		}
	})

	t.Run("rejects a missing path", func(t *testing.T) {
		t.Parallel()
		if _, err := NewScanner(nil).Scan("/nonexistent/project"); err == nil {
			t.Fatal("Scan() expected error for missing path")
		}
	})
}

func TestProjectName(t *testing.T) {
	name, err := ProjectName(filepath.Join(t.TempDir(), "Demo"))
	if err != nil {
		t.Fatalf("ProjectName() error = %v", err)
	}
	if name != "Demo" {
		t.Errorf("ProjectName() = %q, want %q", name, "Demo")
	}
}
