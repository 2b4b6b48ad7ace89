package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"snapstore/internal/snap"
)

// SHA256Hex returns the SHA-256 checksum of data as a lowercase hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// FileEntry builds an entry for path whose hash and size are derived from content.
func FileEntry(path, content string) snap.FileEntry {
	return snap.FileEntry{
		Path: path,
		Hash: SHA256Hex([]byte(content)),
		Size: int64(len(content)),
	}
}

// FileEntries returns n distinct entries: file-000.txt, file-001.txt, ...
func FileEntries(n int) []snap.FileEntry {
	files := make([]snap.FileEntry, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, FileEntry(fmt.Sprintf("file-%03d.txt", i), fmt.Sprintf("content %d", i)))
	}
	return files
}
