package listctl

import "errors"

var (
	// ErrNothingSelected is returned by Edit and Remove without an editing entity.
	ErrNothingSelected = errors.New("listctl: no record selected")
	// ErrNotFound indicates no entity matches the identity.
	ErrNotFound = errors.New("listctl: record not found")
	// ErrUnknownColumn indicates the column is not declared in the config.
	ErrUnknownColumn = errors.New("listctl: unknown column")
	// ErrInvalidPageSize indicates a page size outside the configured set.
	ErrInvalidPageSize = errors.New("listctl: invalid page size")
	// ErrClosed is returned when the controller was closed before a remote call completed.
	ErrClosed = errors.New("listctl: controller closed")
	// ErrNoRemote is returned by Load on a controller without a remote source.
	ErrNoRemote = errors.New("listctl: no remote source")
)
