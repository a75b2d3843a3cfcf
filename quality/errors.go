package quality

import (
	"encoding/json"
	"fmt"

	"github.com/qualarr/qualarr/sonarr"
)

// FieldError is a validation error scoped to a single configuration field.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error
func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErrorf(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Err: fmt.Errorf(format, args...)}
}

// UnknownQualityError indicates a local reference to a quality that does
// not exist on the remote instance.
type UnknownQualityError struct {
	Name string
}

// Error implements the error interface
func (e *UnknownQualityError) Error() string {
	return fmt.Sprintf("quality %q is not known to the Sonarr instance", e.Name)
}

// UnknownFormatError indicates a local reference to a custom format that
// does not exist on the remote instance.
type UnknownFormatError struct {
	Name string
}

// Error implements the error interface
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("custom format %q is not known to the Sonarr instance", e.Name)
}

// InconsistentStateError indicates the remote instance reported a cutoff
// quality ID that is not present among its own profile items. This is a
// fault in the remote state, not a configuration problem, and is never
// retried. The raw items are carried for diagnostics.
type InconsistentStateError struct {
	Cutoff int64
	Items  []sonarr.ProfileItem
}

// Error implements the error interface
func (e *InconsistentStateError) Error() string {
	items, err := json.Marshal(e.Items)
	if err != nil {
		items = []byte(fmt.Sprintf("%+v", e.Items))
	}
	return fmt.Sprintf("inconsistent Sonarr instance state: cutoff quality ID %d not found in items: %s", e.Cutoff, items)
}
