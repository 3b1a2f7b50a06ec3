package scheduler

import (
	"errors"
	"fmt"
)

// ErrSubstitutionNotFound is returned when an emergency substitution
// matches no existing assignment for (role, date, original member).
// The underlying UPDATE affecting zero rows is surfaced as this error
// instead of being treated as success.
var ErrSubstitutionNotFound = errors.New("substitution target not found")

// ErrInvalidTransition is returned when an assignment status update
// does not follow scheduled -> confirmed | cancelled.
var ErrInvalidTransition = errors.New("invalid assignment status transition")

// ValidationError is returned by batch operations when one or more
// rules are violated.  It always carries the complete conflict list,
// never a single violation.
type ValidationError struct {
	Message   string
	Conflicts []ConflictRecord
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d conflict(s)", e.Message, len(e.Conflicts))
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
