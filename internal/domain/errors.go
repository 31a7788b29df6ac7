package domain

import "errors"

var (
	ErrMalformedEmbedding = errors.New("malformed embedding")
	ErrDimension          = errors.New("vector dimension mismatch")
	ErrNoSnapshot         = errors.New("no snapshot stored")
	ErrCorruptSnapshot    = errors.New("corrupt snapshot")
	ErrUnauthorized       = errors.New("caller is not authorized")
	ErrNotInitialized     = errors.New("store is not initialized")
)
