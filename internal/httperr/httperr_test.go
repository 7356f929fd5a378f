package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindInsufficientStock, http.StatusBadRequest},
		{KindInvalidTransition, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(New(c.kind, "x")); got != c.want {
			t.Errorf("Status(kind=%d) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestStatusUnknownError(t *testing.T) {
	if got := Status(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("Status(plain error) = %d, want 500", got)
	}
}

func TestClientMessageHidesInternalDetail(t *testing.T) {
	err := Wrap(KindInternal, "order create failed", errors.New("pq: connection reset"))
	if msg := ClientMessage(err); msg != "internal server error" {
		t.Errorf("internal detail leaked to client: %q", msg)
	}

	wrapped := fmt.Errorf("handler: %w", Validation("quantity must be positive"))
	if msg := ClientMessage(wrapped); msg != "quantity must be positive" {
		t.Errorf("ClientMessage(wrapped validation) = %q", msg)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := Wrap(KindInternal, "save failed", inner)
	if !errors.Is(err, inner) {
		t.Error("Wrap should preserve the inner error for errors.Is")
	}
}
