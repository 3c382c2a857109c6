package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Lock management errors
	ErrSelfActionForbidden = errors.New("cannot lock or unlock your own account")
	ErrInvalidSetting      = errors.New("invalid setting value")
)

// AccountLockedError is returned by the login pipeline when the lock gate
// vetoes authentication. Message is the configured denial message.
type AccountLockedError struct {
	UserID  string
	Message string
}

func (e *AccountLockedError) Error() string {
	return e.Message
}

// IsAccountLocked reports whether err carries a lock veto and returns it.
func IsAccountLocked(err error) (*AccountLockedError, bool) {
	var lockedErr *AccountLockedError
	if errors.As(err, &lockedErr) {
		return lockedErr, true
	}
	return nil, false
}
