package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for a failed email/password check,
	// whether the email is unknown or the password wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a bearer token does not resolve to a
	// live user.
	ErrUnauthorized = errors.New("authentication failed")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("email already exists")
	ErrNotFound     = errors.New("not found")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// orNil lets callers return a *ValidationError as a plain error without
// producing a typed nil.
func (e *ValidationError) orNil() error {
	if e == nil || e.empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
