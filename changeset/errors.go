package changeset

import "errors"

var (
	ErrOperationConflict   = errors.New("conflicting operations on column")
	ErrInvalidColumnType   = errors.New("operation not valid for column type")
	ErrCannotSetKeyColumns = errors.New("cannot set key columns")
	ErrInvalidColumn       = errors.New("invalid column")
)
