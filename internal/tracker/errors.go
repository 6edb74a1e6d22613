package tracker

import (
	"errors"
	"fmt"
)

// ErrNoCurrentUser is reported when an attributed recorder runs before any user was identified.
var ErrNoCurrentUser = errors.New("no current user identified")

// PreconditionError reports a call made while the tracker was in an invalid state for it.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("tracker %s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
