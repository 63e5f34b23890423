package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")

	ErrNotTextual  = errors.New("content is not textual")
	ErrFetchFailed = errors.New("fetch failed")
	ErrDisallowed  = errors.New("disallowed by robots.txt")
)
