// Package services defines the business logic for the publishing queue,
// per-account tweet drafts, and the recurring tip feed. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer. Transition rejections carry through domain.ErrInvalidTransition so
// callers can surface them distinctly from "not found".
package services

import "errors"

var (
	// ErrPostNotFound indicates that no queue item carries the requested id.
	ErrPostNotFound = errors.New("post not found")

	// ErrDraftNotFound indicates that no draft carries the requested id.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrValidation is returned when a request is missing required fields or
	// carries values outside the closed platform/kind/account sets.
	ErrValidation = errors.New("invalid input")

	// ErrUnknownAccount is returned for draft operations against an account
	// key outside the configured set. It matches ErrValidation for handlers
	// that only branch on the coarse taxonomy.
	ErrUnknownAccount = errors.New("unknown draft account")
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnknownAccount)
}
