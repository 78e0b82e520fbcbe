package writing

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed request field. Nothing
// has been written when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrUnknownLevel is returned when a level id is not in the catalogue.
var ErrUnknownLevel = errors.New("unknown level")
