package upload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, mapped to HTTP statuses by the API layer. Authorization
// failures always surface before any state mutation.
var (
	// ErrDisabled rejects requests while the upload field is disabled or readonly.
	ErrDisabled = errors.New("field is disabled or readonly")
	// ErrNotTracked rejects file ids the current session never uploaded or initiated.
	ErrNotTracked = errors.New("invalid file id")
	// ErrNotTemporary rejects reverts of files already promoted to a record.
	ErrNotTemporary = errors.New("file is not temporary")
	// ErrOwnerMismatch rejects promotion or deletion by anyone but the uploader.
	ErrOwnerMismatch = errors.New("failed to authenticate owner")
	// ErrTooLarge rejects a chunk that pushes the running transfer total past
	// the size limit. Range blobs already written are kept.
	ErrTooLarge = errors.New("upload exceeds the maximum allowed size")
	// ErrNoIdentity means a record could not be given a persisted identity
	// before attaching files to it.
	ErrNoIdentity = errors.New("record has no identity")
)

// ValidationError carries field-scoped messages the widget renders next to
// the input. Serialized as JSON in 400 responses.
type ValidationError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, strings.Join(e.Messages, "; "))
}

func validationError(field string, messages ...string) *ValidationError {
	return &ValidationError{Field: field, Messages: messages}
}
