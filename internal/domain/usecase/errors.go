package usecase

import "errors"

var (
	// ErrInvalidConfig rejects a submission whose configuration is not a
	// non-empty JSON object. No record is created.
	ErrInvalidConfig = errors.New("invalid project configuration")

	// ErrProjectNotFound covers a missing record, a record owned by a
	// different user and a record not yet in a servable state. Callers get
	// the same answer in all three cases.
	ErrProjectNotFound = errors.New("project not found")
)
