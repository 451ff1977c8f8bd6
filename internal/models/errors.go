package models

import "errors"

// Store outcomes shared by every store implementation.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("duplicate")
	ErrStatusConflict = errors.New("status changed concurrently")
)
