package snap

import "context"

// Store provides persistent storage for project versions, their file records
// and the operation log. Implementations serialize all access through one
// shared connection and apply every multi-row write in a single transaction:
// a returned error guarantees nothing from that call is visible.
type Store interface {
	// Snapshot writes

	// CreateRootSnapshot records a version with no parent, one file row per
	// entry and an initial-snapshot log entry. Returns the new version ID.
	CreateRootSnapshot(ctx context.Context, projectName string, files []FileEntry) (int64, error)

	// CreateChildSnapshot records a version linked to parentID. files is the
	// complete listing at this point, not a delta. Fails with ErrParentNotFound
	// if the parent does not exist.
	CreateChildSnapshot(ctx context.Context, parentID int64, description string, files []FileEntry) (int64, error)

	// Reads

	// ListVersions returns every version, newest first.
	ListVersions(ctx context.Context) ([]*VersionSummary, error)

	// GetVersion returns a single version, or nil if it does not exist.
	GetVersion(ctx context.Context, versionID int64) (*VersionSummary, error)

	// ListVersionFiles returns the file records of a version ordered by path.
	ListVersionFiles(ctx context.Context, versionID int64) ([]*VersionFile, error)

	// Close closes the underlying connection.
	Close() error
}
