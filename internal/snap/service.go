package snap

import (
	"context"
	"fmt"
)

// SnapshotService is the layer the request handlers and the CLI call into.
// It validates input, delegates to the Store and logs the outcome. All
// persistence guarantees (atomicity, serialization) live in the Store.
type SnapshotService struct {
	store  Store
	logger Logger
}

// NewSnapshotService creates a new SnapshotService with the provided dependencies.
func NewSnapshotService(store Store, logger Logger) *SnapshotService {
	return &SnapshotService{
		store:  store,
		logger: logger,
	}
}

// CreateRootSnapshot records the first version of a project history.
// Calling it again for the same project starts another independent history;
// nothing here looks for an existing root.
func (s *SnapshotService) CreateRootSnapshot(ctx context.Context, projectName string, files []FileEntry) (int64, error) {
	if err := validateInput(&rootSnapshotInput{ProjectName: projectName, Files: files}); err != nil {
		return 0, err
	}

	versionID, err := s.store.CreateRootSnapshot(ctx, projectName, files)
	if err != nil {
		s.logger.Error("root snapshot failed", "project", projectName, "files", len(files), "error", err)
		return 0, fmt.Errorf("creating root snapshot: %w", err)
	}

	s.logger.Info("root snapshot created", "project", projectName, "version", versionID, "files", len(files))
	return versionID, nil
}

// CreateChildSnapshot records a new version linked to parentID.
// files must be the complete current listing, not a diff against the parent.
func (s *SnapshotService) CreateChildSnapshot(ctx context.Context, parentID int64, description string, files []FileEntry) (int64, error) {
	if err := validateInput(&childSnapshotInput{Files: files}); err != nil {
		return 0, err
	}

	versionID, err := s.store.CreateChildSnapshot(ctx, parentID, description, files)
	if err != nil {
		s.logger.Error("child snapshot failed", "parent", parentID, "files", len(files), "error", err)
		return 0, fmt.Errorf("creating child snapshot: %w", err)
	}

	s.logger.Info("child snapshot created", "parent", parentID, "version", versionID, "files", len(files))
	return versionID, nil
}

// ListVersions returns all versions, newest first.
func (s *SnapshotService) ListVersions(ctx context.Context) ([]*VersionSummary, error) {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	s.logger.Debug("versions listed", "count", len(versions))
	return versions, nil
}

// GetVersion returns one version or ErrVersionNotFound.
func (s *SnapshotService) GetVersion(ctx context.Context, versionID int64) (*VersionSummary, error) {
	version, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("getting version %d: %w", versionID, err)
	}
	if version == nil {
		return nil, fmt.Errorf("%w: %d", ErrVersionNotFound, versionID)
	}
	return version, nil
}

// ListVersionFiles returns the complete file listing recorded at a version.
func (s *SnapshotService) ListVersionFiles(ctx context.Context, versionID int64) ([]*VersionFile, error) {
	if _, err := s.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}

	files, err := s.store.ListVersionFiles(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("listing files of version %d: %w", versionID, err)
	}
	return files, nil
}
