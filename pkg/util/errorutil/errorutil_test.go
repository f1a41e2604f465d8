package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPreservesKind(t *testing.T) {
	sentinel := errors.New("token revoked")
	wrapped := fmt.Errorf("refresh: %w", NewTokenRevoked(sentinel))

	de := ToDomainError(wrapped)
	if de.Code != CodeTokenRevoked {
		t.Fatalf("expected %s, got %s", CodeTokenRevoked, de.Code)
	}
	if de.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", de.HTTPStatus)
	}
	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("sentinel lost through DomainError")
	}
}

func TestToDomainErrorFallbacks(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
	if de := ToDomainError(pgx.ErrNoRows); de.Code != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", de.Code)
	}
	if de := ToDomainError(fmt.Errorf("get user: %w", pgx.ErrNoRows)); de.HTTPStatus != http.StatusNotFound {
		t.Fatalf("wrapped no-rows should map to 404, got %d", de.HTTPStatus)
	}
	if de := ToDomainError(errors.New("boom")); de.Code != CodeInternal || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %s/%d", de.Code, de.HTTPStatus)
	}
}

func TestHasCode(t *testing.T) {
	err := NewDependencyUnavailable("redis", errors.New("dial tcp: refused"))
	if !HasCode(err, CodeDependencyUnavailable) {
		t.Fatalf("expected dependency code")
	}
	if HasCode(err, CodeUnauthorized) {
		t.Fatalf("unexpected unauthorized match")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
	de := ToDomainError(err)
	if de.HTTPStatus != http.StatusServiceUnavailable || de.Details["dependency"] != "redis" {
		t.Fatalf("unexpected dependency error shape: %+v", de)
	}
}
