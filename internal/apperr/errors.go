package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrExists         = errors.New("already exists")
	ErrBlankName      = errors.New("name is blank")
	ErrLastCollection = errors.New("cannot delete the last collection")
	ErrCorrupted      = errors.New("file corrupted, using defaults")
)
