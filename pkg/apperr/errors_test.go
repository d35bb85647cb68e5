package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindStorage, http.StatusInternalServerError},
		{KindCache, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Message: "x"}
		if got := err.Status(); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestUnauthenticatedMessageIsUniform(t *testing.T) {
	if Unauthenticated().Message != "invalid or missing credentials" {
		t.Errorf("unexpected message %q", Unauthenticated().Message)
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("query failed: %w", Storage(cause))

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected to extract *Error through wrapping")
	}
	if appErr.Kind != KindStorage {
		t.Errorf("kind = %v, want storage", appErr.Kind)
	}
	if !errors.Is(wrapped, appErr) {
		t.Error("wrapped chain lost the application error")
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(NotFound("gone"), KindNotFound) {
		t.Error("IsKind should match not-found")
	}
	if IsKind(NotFound("gone"), KindStorage) {
		t.Error("IsKind must not match a different kind")
	}
	if IsKind(errors.New("plain"), KindStorage) {
		t.Error("IsKind must not match plain errors")
	}
}
