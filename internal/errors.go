package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessNotPermitted is returned when an authorization check fails.
	ErrAccessNotPermitted = errors.New("access to the resource is not permitted")

	// ErrUnauthorized is returned when a request lacks valid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResourceNotFound is returned when a resource cannot be found. An
	// unmapped identifier is an expected outcome, so callers should branch on
	// this error rather than treat it as an anomaly.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceAlreadyExists is returned when attempting to create a
	// resource that already exists.
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// ErrRequiredName is returned when a name option is not present.
	ErrRequiredName = errors.New("name is required")

	// ErrInvalidName is returned when the name option has invalid value.
	ErrInvalidName = errors.New("invalid value for name")
)

type (
	// ErrMissingParameter occurs when the caller has failed to provide a
	// required parameter.
	ErrMissingParameter struct {
		Parameter string
	}

	// ForeignKeyError occurs when there is a foreign key violation, e.g.
	// writing a mapping for a tenant that does not exist.
	ForeignKeyError struct {
		Detail string
	}
)

func (e *ErrMissingParameter) Error() string {
	return fmt.Sprintf("required parameter missing: %s", e.Parameter)
}

func (e *ForeignKeyError) Error() string { return e.Detail }
