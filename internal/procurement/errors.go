package procurement

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced RFP, vendor or proposal does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict, such as a vendor email
	// that is already registered.
	ErrDuplicate = errors.New("already exists")
)

// ValidationError reports missing or malformed caller input. It is always
// recoverable and never follows a state mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// DispatchError reports an invitation batch that stopped partway. Results
// holds the vendors already transitioned to SENT before the failure; their
// state is committed and preserved.
type DispatchError struct {
	Results []InviteResult
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("invitation batch aborted after %d sent: %v", len(e.Results), e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
