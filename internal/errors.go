package internal

import "errors"

var (
	ErrNotFound           = errors.New("memory not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch: re-run 'recall reindex' with the active model")
	ErrBackendUnavailable = errors.New("vector backend unavailable")
	ErrStorageFailure     = errors.New("storage failure")
)
