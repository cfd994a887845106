package cqltypes

import "errors"

var (
	ErrMalformedType = errors.New("malformed type")
	ErrUnknownType   = errors.New("unknown type")
)
