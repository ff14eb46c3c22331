package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_IsSentinel(t *testing.T) {
	tests := []struct {
		kind     Kind
		sentinel error
		status   int
	}{
		{KindDuplicateTitle, ErrAlreadyExists, http.StatusConflict},
		{KindDuplicateName, ErrAlreadyExists, http.StatusConflict},
		{KindBookNotFound, ErrNotFound, http.StatusNotFound},
		{KindUserNotFound, ErrNotFound, http.StatusNotFound},
		{KindInvalidScanCode, ErrNotFound, http.StatusNotFound},
		{KindAlreadyBorrowed, ErrConflict, http.StatusConflict},
		{KindNotCurrentlyBorrowed, ErrConflict, http.StatusConflict},
		{KindInvalidInput, ErrInvalid, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", New(tt.kind, "msg"))
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if got := tt.kind.HTTPStatus(); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestError_IsSameKind(t *testing.T) {
	err := New(KindBookNotFound, "book not found")
	if !errors.Is(err, New(KindBookNotFound, "other text")) {
		t.Error("same kind should match regardless of message")
	}
	if errors.Is(err, New(KindUserNotFound, "book not found")) {
		t.Error("different kinds should not match")
	}
	if err.Error() != "book not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", New(KindAlreadyBorrowed, "m"))); got != KindAlreadyBorrowed {
		t.Errorf("KindOf = %q", got)
	}
	if got := KindOf(errors.New("disk full")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}
