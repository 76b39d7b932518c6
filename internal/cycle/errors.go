package cycle

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for workflow failures. The HTTP layer maps these onto
// response status codes with errors.Is.
var (
	// ErrAuth reports a passcode that unlocks nothing.
	ErrAuth = errors.New("authentication failure")
	// ErrValidation reports a submission missing a required value.
	ErrValidation = errors.New("validation error")
	// ErrMalformedForm reports a submission with tampered or unparseable fields.
	ErrMalformedForm = errors.New("malformed form")
	// ErrNotFound reports a request for an issue that does not exist yet.
	ErrNotFound = errors.New("not found")
	// ErrConfig reports a broken newsletter folder.
	ErrConfig = errors.New("configuration error")
)

// Wrap tags an error with a marker for later status classification while
// keeping operation context in the message. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "workflow failure"
	}
	return strings.Join(parts, ": ")
}
