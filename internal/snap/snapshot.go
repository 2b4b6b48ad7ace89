package snap

import (
	"fmt"
	"time"
)

// DefaultDescription is reported for versions whose stored description is NULL.
const DefaultDescription = "No description"

// OperationType tags an OperationLog entry.
type OperationType string

const (
	OpSnapshotInitial    OperationType = "PROJECT_SNAPSHOT_INITIAL"
	OpSnapshotSubsequent OperationType = "PROJECT_SNAPSHOT_SUBSEQUENT"
)

// FileEntry is one file as reported by the scanner: a relative path, the
// caller-computed content hash and the size in bytes.
type FileEntry struct {
	Path string `json:"path" validate:"required"`
	Hash string `json:"hash" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

// FileDescriptor is a FileEntry as it arrives in a request body or file
// list. Pointer fields tell an absent key apart from a zero value.
type FileDescriptor struct {
	Path *string `json:"path" validate:"required"`
	Hash *string `json:"hash" validate:"required"`
	Size *int64  `json:"size" validate:"required"`
}

// VersionSummary describes one ProjectVersions row.
type VersionSummary struct {
	VersionID       int64     `json:"version_id" yaml:"version_id"`
	ParentVersionID *int64    `json:"parent_version_id" yaml:"parent_version_id"` // nil for a root version
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	Description     string    `json:"description" yaml:"description"`
}

// IsRoot reports whether the version starts a history.
func (v *VersionSummary) IsRoot() bool {
	return v.ParentVersionID == nil
}

// VersionFile is the recorded state of one file at one version.
type VersionFile struct {
	ID        int64  `json:"version_file_id" yaml:"version_file_id"`
	VersionID int64  `json:"version_id" yaml:"version_id"`
	Path      string `json:"path" yaml:"path"`
	Hash      string `json:"hash" yaml:"hash"`
	Size      int64  `json:"size" yaml:"size"`
}

// RootDescription is the description stored on the root version of a project.
func RootDescription(projectName string) string {
	return fmt.Sprintf("Initial snapshot of project: %s", projectName)
}
