package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"snapstore/internal/snap"
)

// ReadFileList decodes a JSON array of {path, hash, size} objects. Every
// object must carry all three keys; unknown keys are rejected so typos do
// not silently drop data.
func ReadFileList(r io.Reader) ([]snap.FileEntry, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var descriptors []snap.FileDescriptor
	if err := dec.Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("%w: decoding file list: %w", snap.ErrMalformedInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after file list", snap.ErrMalformedInput)
	}
	return snap.EntriesFromDescriptors(descriptors)
}

// LoadFileList reads a file list from path, or from stdin when path is "-".
func LoadFileList(path string, stdin io.Reader) ([]snap.FileEntry, error) {
	if path == "-" {
		return ReadFileList(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file list: %w", err)
	}
	defer f.Close()

	files, err := ReadFileList(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return files, nil
}
