package worship

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotMember     = errors.New("only the scheduled member can answer this convocation")
	ErrInvalidAnswer = errors.New("answer must be confirmed or declined")
	ErrInvalidInput  = errors.New("invalid input")
)
