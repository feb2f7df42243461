package repository

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

// TestNormalizeEmail lower-cases and trims so lookups are
// case-insensitive.
func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Admin@Example.COM ": "admin@example.com",
		"ops@example.com":      "ops@example.com",
	}
	for in, want := range cases {
		if got := normalizeEmail(in); got != want {
			t.Fatalf("normalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestIsDuplicateEntry only matches MySQL error 1062, including wrapped
// ones, and never a different driver error.
func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.email'"}
	if !isDuplicateEntry(dup) {
		t.Fatalf("expected duplicate entry to match")
	}
	if !isDuplicateEntry(fmt.Errorf("insert user: %w", dup)) {
		t.Fatalf("expected wrapped duplicate entry to match")
	}
	if isDuplicateEntry(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}) {
		t.Fatalf("expected non-duplicate driver error not to match")
	}
	if isDuplicateEntry(fmt.Errorf("plain error 1062")) {
		t.Fatalf("expected non-driver error not to match")
	}
}
