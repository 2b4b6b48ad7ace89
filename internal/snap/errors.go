package snap

import (
	"errors"
	"fmt"
)

// Error categories surfaced to the request layer. Storage implementations wrap
// engine errors in one of these so callers can branch with errors.Is.
var (
	// ErrIntegrity covers constraint violations: a missing parent version or a
	// path listed twice in one snapshot.
	ErrIntegrity = errors.New("integrity violation")

	// ErrStorageUnavailable covers a store that cannot be opened, locked or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedInput covers requests with missing or invalid fields.
	ErrMalformedInput = errors.New("malformed input")

	ErrParentNotFound  = fmt.Errorf("%w: parent version does not exist", ErrIntegrity)
	ErrVersionNotFound = errors.New("version not found")
)
