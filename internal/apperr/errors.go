package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidLine = errors.New("invalid line number")
	ErrInvalidPath = errors.New("invalid path")
)
