package template

import (
	"errors"
	"fmt"
)

// ErrMalformedTemplate is matched by every compile failure.
var ErrMalformedTemplate = errors.New("template: malformed template")

// MalformedTemplateError describes where compilation failed. It is meant for
// the developer authoring the template, not for end users.
type MalformedTemplateError struct {
	Template string
	Offset   int
	Reason   string
	Err      error
}

func (e *MalformedTemplateError) Error() string {
	msg := fmt.Sprintf("template: malformed template at offset %d: %s", e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrMalformedTemplate and the underlying cause, if any.
func (e *MalformedTemplateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedTemplate}
	}
	return []error{ErrMalformedTemplate, e.Err}
}

func malformed(raw string, offset int, reason string, cause error) error {
	return &MalformedTemplateError{Template: raw, Offset: offset, Reason: reason, Err: cause}
}
