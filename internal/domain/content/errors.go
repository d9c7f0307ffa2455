package content

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("block was modified by someone else")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSlugTaken       = errors.New("slug already exists")
)
