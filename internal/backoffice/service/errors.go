package service

import "errors"

var (
	ErrLoginTaken         = errors.New("login is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden: the caller's role lacks the capability.
	ErrForbidden = errors.New("operation is not permitted for the role")
	// ErrNotFound: the entity does not exist or is outside the caller's scope.
	ErrNotFound = errors.New("entity not found")
	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState: the operation is not legal from the entity's current
	// status. A terminal withdrawal stays terminal.
	ErrInvalidState = errors.New("invalid entity state")
	// ErrConflict: a second non-terminal withdrawal against one work unit.
	ErrConflict = errors.New("active withdrawal already exists")
)
