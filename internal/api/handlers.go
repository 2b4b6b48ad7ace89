package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"snapstore/internal/snap"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
}

// InitialSnapshotRequest is the body of POST /api/snapshot/initial.
type InitialSnapshotRequest struct {
	ProjectRootName string                `json:"project_root_name"`
	Files           []snap.FileDescriptor `json:"files" validate:"required"`
}

// SubsequentSnapshotRequest is the body of POST /api/snapshot/create.
type SubsequentSnapshotRequest struct {
	ParentVersionID *int64                `json:"parent_version_id" validate:"required"`
	Description     string                `json:"description"`
	Files           []snap.FileDescriptor `json:"files" validate:"required"`
}

// SnapshotResponse is returned by both snapshot endpoints.
type SnapshotResponse struct {
	Message   string `json:"message"`
	VersionID int64  `json:"version_id"`
}

// APIError represents an error response
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("encoding JSON response", "error", err)
		}
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, APIError{Error: http.StatusText(status), Message: message})
}

// respondServiceError maps a service error onto a status code. Server-side
// failures are logged and their details withheld from the client.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.respondError(w, status, "snapshot store unavailable")
		return
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, snap.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, snap.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, snap.ErrIntegrity):
		return http.StatusConflict
	case errors.Is(err, snap.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into dst and checks required fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", snap.ErrMalformedInput, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", snap.ErrMalformedInput, err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return fmt.Errorf("%w: missing %s", snap.ErrMalformedInput, strings.Join(missing, ", "))
	}
	return nil
}

// decodeSnapshotBody decodes a snapshot request into dst and converts the
// descriptors it decoded into *descriptors.
func decodeSnapshotBody(w http.ResponseWriter, r *http.Request, dst any, descriptors *[]snap.FileDescriptor) ([]snap.FileEntry, error) {
	if err := decodeBody(w, r, dst); err != nil {
		return nil, err
	}
	return snap.EntriesFromDescriptors(*descriptors)
}

func versionIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "versionID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid version ID", snap.ErrMalformedInput)
	}
	return id, nil
}

// handleHealth returns the health status of the service
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleCreateInitialSnapshot(w http.ResponseWriter, r *http.Request) {
	var req InitialSnapshotRequest
	files, err := decodeSnapshotBody(w, r, &req, &req.Files)
	if err != nil {
		s.metrics.snapshots.WithLabelValues("root", outcome(err)).Inc()
		s.respondServiceError(w, r, err)
		return
	}

	id, err := s.svc.CreateRootSnapshot(r.Context(), req.ProjectRootName, files)
	s.metrics.snapshots.WithLabelValues("root", outcome(err)).Inc()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.snapshotFiles.Observe(float64(len(files)))

	s.respondJSON(w, http.StatusOK, SnapshotResponse{
		Message:   "Initial snapshot created successfully",
		VersionID: id,
	})
}

func (s *Server) handleCreateSubsequentSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SubsequentSnapshotRequest
	files, err := decodeSnapshotBody(w, r, &req, &req.Files)
	if err != nil {
		s.metrics.snapshots.WithLabelValues("child", outcome(err)).Inc()
		s.respondServiceError(w, r, err)
		return
	}

	id, err := s.svc.CreateChildSnapshot(r.Context(), *req.ParentVersionID, req.Description, files)
	s.metrics.snapshots.WithLabelValues("child", outcome(err)).Inc()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.snapshotFiles.Observe(float64(len(files)))

	s.respondJSON(w, http.StatusOK, SnapshotResponse{
		Message:   "Subsequent snapshot created successfully",
		VersionID: id,
	})
}

// handleListVersions returns every version, newest first.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.svc.ListVersions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if versions == nil {
		versions = []*snap.VersionSummary{}
	}
	s.respondJSON(w, http.StatusOK, versions)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := versionIDParam(r)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	version, err := s.svc.GetVersion(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, version)
}

func (s *Server) handleListVersionFiles(w http.ResponseWriter, r *http.Request) {
	id, err := versionIDParam(r)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	files, err := s.svc.ListVersionFiles(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if files == nil {
		files = []*snap.VersionFile{}
	}
	s.respondJSON(w, http.StatusOK, files)
}
