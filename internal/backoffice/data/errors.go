package data

import "errors"

var (
	ErrUserAlreadyExists         = errors.New("user already exists")
	ErrInvalidPassword           = errors.New("invalid password")
	ErrInvalidLogin              = errors.New("invalid login")
	ErrNoRecord                  = errors.New("record not found")
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrUnknownRole               = errors.New("unknown role")
	ErrUnknownFamily             = errors.New("unknown withdrawal family")
	ErrUnknownAction             = errors.New("unknown action")
	ErrUnknownWorkStatus         = errors.New("unknown work status")
)
