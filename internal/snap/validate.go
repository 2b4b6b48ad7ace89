package snap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request payload.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

type rootSnapshotInput struct {
	ProjectName string      `json:"project_name" validate:"required"`
	Files       []FileEntry `json:"files" validate:"dive"`
}

type childSnapshotInput struct {
	Files []FileEntry `json:"files" validate:"dive"`
}

type descriptorList struct {
	Files []FileDescriptor `json:"files" validate:"dive"`
}

// EntriesFromDescriptors converts decoded descriptors to FileEntries. A
// descriptor missing path, hash or size is ErrMalformedInput.
func EntriesFromDescriptors(ds []FileDescriptor) ([]FileEntry, error) {
	if err := validateInput(&descriptorList{Files: ds}); err != nil {
		return nil, err
	}
	files := make([]FileEntry, len(ds))
	for i, d := range ds {
		files[i] = FileEntry{Path: *d.Path, Hash: *d.Hash, Size: *d.Size}
	}
	return files, nil
}

// validateInput runs struct validation and converts failures to ErrMalformedInput.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrMalformedInput, strings.Join(problems, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "<struct>.files[0].path"; drop the Go type name.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Ptr {
			return fmt.Sprintf("%s is missing", field)
		}
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
