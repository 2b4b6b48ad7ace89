package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"snapstore/internal/snap"
)

// writeStructured handles the json and yaml output formats.
// It returns false for the table format.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case "table":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func renderVersions(w io.Writer, format string, versions []*snap.VersionSummary) error {
	if done, err := writeStructured(w, format, versions); done {
		return err
	}

	if len(versions) == 0 {
		fmt.Fprintln(w, "No versions recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Parent", "Created", "Description"})
	for _, v := range versions {
		parent := "-"
		if v.ParentVersionID != nil {
			parent = strconv.FormatInt(*v.ParentVersionID, 10)
		}
		t.AppendRow(table.Row{
			v.VersionID,
			parent,
			v.Timestamp.Local().Format("2006-01-02 15:04:05"),
			v.Description,
		})
	}
	t.Render()
	return nil
}

func renderFiles(w io.Writer, format string, files []*snap.VersionFile) error {
	if done, err := writeStructured(w, format, files); done {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(w, "No files recorded.")
		return nil
	}

	var total int64
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Hash", "Size", "Path"})
	for _, f := range files {
		hash := f.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		t.AppendRow(table.Row{hash, f.Size, f.Path})
		total += f.Size
	}
	t.AppendFooter(table.Row{"", total, fmt.Sprintf("%d file(s)", len(files))})
	t.Render()
	return nil
}
