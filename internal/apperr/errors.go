package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrFieldNotFound = errors.New("field not found")
	ErrInvalidQuery  = errors.New("invalid query")
)
