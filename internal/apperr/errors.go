// Package apperr holds the error values shared across lendscan layers.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
)

// Kind identifies an expected, user-facing failure.
type Kind string

const (
	KindDuplicateTitle       Kind = "DUPLICATE_TITLE"
	KindDuplicateName        Kind = "DUPLICATE_NAME"
	KindBookNotFound         Kind = "BOOK_NOT_FOUND"
	KindUserNotFound         Kind = "USER_NOT_FOUND"
	KindAlreadyBorrowed      Kind = "ALREADY_BORROWED"
	KindNotCurrentlyBorrowed Kind = "NOT_CURRENTLY_BORROWED"
	KindInvalidScanCode      Kind = "INVALID_SCAN_CODE"
	KindInvalidInput         Kind = "INVALID_INPUT"
)

// sentinel returns the generic error a kind belongs to.
func (k Kind) sentinel() error {
	switch k {
	case KindDuplicateTitle, KindDuplicateName:
		return ErrAlreadyExists
	case KindBookNotFound, KindUserNotFound, KindInvalidScanCode:
		return ErrNotFound
	case KindAlreadyBorrowed, KindNotCurrentlyBorrowed:
		return ErrConflict
	default:
		return ErrInvalid
	}
}

// HTTPStatus maps a kind to a response status.
func (k Kind) HTTPStatus() int {
	switch k.sentinel() {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrAlreadyExists, ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Error is a domain failure carrying a kind and a message fit for display.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// New creates an Error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the generic sentinel of the kind.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
