// Package storage tests the shared storage error types.
package storage

import (
	"errors"
	"fmt"
	"testing"
)

// TestDatabaseErrorMessage ensures the operation name appears in the error.
func TestDatabaseErrorMessage(t *testing.T) {
	t.Parallel()

	err := &DatabaseError{Op: "put chapter", Err: errors.New("database is locked")}
	want := "storage: put chapter: database is locked"
	if got := err.Error(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestDatabaseErrorUnwrap ensures the driver error stays reachable through
// errors.Is.
func TestDatabaseErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("database is locked")
	wrapped := fmt.Errorf("outer: %w", &DatabaseError{Op: "put chapter", Err: cause})

	var dbErr *DatabaseError
	if !errors.As(wrapped, &dbErr) {
		t.Fatal("expected DatabaseError in chain")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause in chain")
	}
}
