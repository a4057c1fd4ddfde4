package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTemplate is returned by New when no compiled template is set.
	ErrMissingTemplate = errors.New("resolver: template is required")
	// ErrAmbiguousLabel means several candidates render to the label.
	ErrAmbiguousLabel = errors.New("resolver: ambiguous label")
	// ErrNoDiscriminator means inversion was attempted without a usable
	// discriminator path.
	ErrNoDiscriminator = errors.New("resolver: no discriminator")
	// ErrPatternMismatch means the label does not fit the template.
	ErrPatternMismatch = errors.New("resolver: label does not match template")
	// ErrStaleReference means a decoded or inverted id is not in the current
	// candidate set.
	ErrStaleReference = errors.New("resolver: stale reference")
	// ErrMalformedSideChannel means the carried value failed to decode.
	ErrMalformedSideChannel = errors.New("resolver: malformed side channel")
)

// ResolutionError wraps every strategy failure encountered while resolving
// Label. Err may join several causes; use errors.Is to test for each.
type ResolutionError struct {
	Label string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolver: cannot resolve %q: %v", e.Label, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Code returns a stable snake_case name for the first failure in err, suitable
// for API payloads and metric labels.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAmbiguousLabel):
		return "ambiguous_label"
	case errors.Is(err, ErrStaleReference):
		return "stale_reference"
	case errors.Is(err, ErrPatternMismatch):
		return "pattern_mismatch"
	case errors.Is(err, ErrNoDiscriminator):
		return "no_discriminator"
	case errors.Is(err, ErrMalformedSideChannel):
		return "malformed_side_channel"
	default:
		return "resolution_failed"
	}
}
