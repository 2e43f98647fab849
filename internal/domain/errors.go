package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidContentType is returned when a content type is not one of
	// the supported values.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidGrade is returned when a grade is not one of the four
	// supported values.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrInvalidItemState is returned when a review item state is not valid.
	ErrInvalidItemState = errors.New("invalid item state")

	// ErrInvalidSessionStatus is returned when a session status is not valid.
	ErrInvalidSessionStatus = errors.New("invalid session status")

	// ErrItemNotInSession is returned when marking completion of an item
	// that is not part of the session's snapshot.
	ErrItemNotInSession = errors.New("item not part of session")
)
