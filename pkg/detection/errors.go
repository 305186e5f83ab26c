package detection

import "fmt"

// ProfileError reports a profile that was rejected at the configuration
// boundary. The previously active profile stays in effect.
type ProfileError struct {
	// Field is the offending field ("blockedKeywords", "contextTerms", "sensitivity").
	Field string

	// Index is the position of the bad entry in a list field, or -1.
	Index int

	// Message describes the problem.
	Message string

	// Cause is an underlying decode error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ProfileError) Error() string {
	field := e.Field
	if e.Index >= 0 {
		field = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	if field == "" {
		field = "profile"
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid profile: %s: %s: %v", field, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid profile: %s: %s", field, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProfileError) Unwrap() error {
	return e.Cause
}

func newProfileError(field string, index int, message string) *ProfileError {
	return &ProfileError{Field: field, Index: index, Message: message}
}
