package builder

import "errors"

var (
	ErrInvalidColumn          = errors.New("invalid column")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrActionConflict         = errors.New("statement action already set")
	ErrInvalidAction          = errors.New("no statement action set")
	ErrInvalidUpdateOperation = errors.New("update operation not valid for column type")
)
