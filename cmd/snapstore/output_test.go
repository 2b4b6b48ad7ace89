package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"snapstore/internal/snap"
)

func sampleVersions() []*snap.VersionSummary {
	parent := int64(1)
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []*snap.VersionSummary{
		{VersionID: 2, ParentVersionID: &parent, Timestamp: ts.Add(time.Minute), Description: "patch"},
		{VersionID: 1, Timestamp: ts, Description: "Initial snapshot of project: Proj"},
	}
}

func TestRenderVersions(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderVersions(&buf, "table", sampleVersions()); err != nil {
			t.Fatalf("renderVersions() error = %v", err)
		}
		out := strings.ToLower(buf.String())
		for _, want := range []string{"version", "patch", "initial snapshot of project: proj"} {
			if !strings.Contains(out, want) {
				t.Errorf("table output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderVersions(&buf, "json", sampleVersions()); err != nil {
			t.Fatalf("renderVersions() error = %v", err)
		}
		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decoding json: %v", err)
		}
		if len(got) != 2 || got[1]["parent_version_id"] != nil {
			t.Errorf("json output = %v", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderVersions(&buf, "yaml", sampleVersions()); err != nil {
			t.Fatalf("renderVersions() error = %v", err)
		}
		var got []map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decoding yaml: %v", err)
		}
		if len(got) != 2 || got[0]["version_id"] != 2 || got[0]["description"] != "patch" {
			t.Errorf("yaml output = %v", got)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderVersions(&buf, "table", nil); err != nil {
			t.Fatalf("renderVersions() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No versions recorded.") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := renderVersions(&bytes.Buffer{}, "xml", nil); err == nil {
			t.Fatal("renderVersions() expected error for unknown format")
		}
	})
}

func TestRenderFiles(t *testing.T) {
	files := []*snap.VersionFile{
		{ID: 1, VersionID: 1, Path: "Proj/a.txt", Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e", Size: 5},
		{ID: 2, VersionID: 1, Path: "Proj/b.txt", Hash: "h2", Size: 7},
	}

	var buf bytes.Buffer
	if err := renderFiles(&buf, "table", files); err != nil {
		t.Fatalf("renderFiles() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2cf24dba5fb0") || strings.Contains(out, "2cf24dba5fb0a") {
		t.Errorf("hash not shortened to 12 chars:\n%s", out)
	}
	if !strings.Contains(out, "Proj/b.txt") || !strings.Contains(strings.ToLower(out), "2 file(s)") {
		t.Errorf("table output incomplete:\n%s", out)
	}
}

func TestParseVersionID(t *testing.T) {
	if id, err := parseVersionID("42"); err != nil || id != 42 {
		t.Errorf("parseVersionID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := parseVersionID(bad); err == nil {
			t.Errorf("parseVersionID(%q) expected error", bad)
		}
	}
}
