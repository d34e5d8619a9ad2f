// Package common defines the sentinel errors shared by the record store,
// the credential gate, the session navigator and the interactive client.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Record store errors.
	ErrDuplicatePatient = errors.New("patient already exists")
	ErrUnknownPatient   = errors.New("patient does not exist")
	ErrCorruptStore     = errors.New("corrupt patient store")
	ErrIO               = errors.New("i/o error")

	// Validation errors (vitals out of range, empty name).
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredential = errors.New("invalid username or password")

	// Navigation errors.
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNoSelection      = errors.New("no patient selected")
)
