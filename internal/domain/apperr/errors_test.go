package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		kind  error
		title string
	}{
		{"not found", NotFound("Travel Request '%s' not found.", "X"), ErrNotFound, "Not Found"},
		{"forbidden", Forbidden("nope"), ErrForbidden, "Action Denied"},
		{"unprocessable", Unprocessable("who"), ErrUnprocessable, "Error"},
		{"conflict", Conflict("state"), ErrConflict, "Action Not Applicable"},
		{"validation", Validation("bad"), ErrValidation, "Invalid Request"},
		{"internal", Internal("config"), ErrInternal, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.kind)
			}
			if got := Title(wrapped, "fallback"); got != tt.title {
				t.Errorf("Title() = %q, want %q", got, tt.title)
			}
		})
	}
}

func TestMessageAndTitleFallback(t *testing.T) {
	plain := errors.New("db locked")
	if got := Message(plain, "An unexpected error occurred."); got != "An unexpected error occurred." {
		t.Errorf("Message() = %q", got)
	}
	if got := Title(plain, "Error"); got != "Error" {
		t.Errorf("Title() = %q", got)
	}

	err := NotFound("Travel Request '%s' not found.", "1F1000001")
	if got := Message(err, ""); got != "Travel Request '1F1000001' not found." {
		t.Errorf("Message() = %q", got)
	}
}

func TestWithTitleCopies(t *testing.T) {
	original := Unprocessable("missing project")
	retitled := original.WithTitle("Configuration Error")

	if original.Title != "Error" {
		t.Errorf("original title changed to %q", original.Title)
	}
	if retitled.Title != "Configuration Error" || !errors.Is(retitled, ErrUnprocessable) {
		t.Errorf("retitled = %+v", retitled)
	}
}
