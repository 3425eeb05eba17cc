package ident

import (
	"strings"
	"testing"
)

func assertSanitizeOK(t *testing.T, identifier string) {
	t.Helper()
	got, err := Sanitize(identifier)
	if err != nil {
		t.Fatalf("Sanitize(%q) returned error: %v", identifier, err)
	}
	if got != identifier {
		t.Fatalf("Sanitize(%q) = %q, want input unchanged", identifier, got)
	}
}

func assertSanitizeFails(t *testing.T, identifier string) {
	t.Helper()
	if _, err := Sanitize(identifier); err == nil {
		t.Fatalf("Sanitize(%q) succeeded, want error", identifier)
	}
}

// --- Sanitize ---

func TestSanitize_ValidIdentifiers(t *testing.T) {
	t.Parallel()
	for _, identifier := range []string{
		"users",
		"dbo.users",
		"[dbo].[users]",
		"Order_Items_2024",
		"sys.tables",
		"[Sales].[OrderHeader]",
	} {
		assertSanitizeOK(t, identifier)
	}
}

func TestSanitize_Empty(t *testing.T) {
	t.Parallel()
	assertSanitizeFails(t, "")
}

func TestSanitize_DisallowedCharacters(t *testing.T) {
	t.Parallel()
	for _, identifier := range []string{
		"users; DROP TABLE--",
		"users table", // space
		"users'",
		"users--",
		"users;",
		"users(",
	} {
		assertSanitizeFails(t, identifier)
	}
}

func TestSanitize_InjectionIdioms(t *testing.T) {
	t.Parallel()
	// These also fail the character allow-list, but the deny-list must hold
	// on its own if the allow-list is ever widened.
	for _, identifier := range []string{
		"' OR '1'='1",
		"x' AND 'y",
		"a UNION SELECT b",
		"t; DELETE",
		"t; insert",
		"t;update",
	} {
		assertSanitizeFails(t, identifier)
	}
}

func TestSanitize_ErrorNamesIdentifier(t *testing.T) {
	t.Parallel()
	_, err := Sanitize("bad name")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bad name") {
		t.Fatalf("expected identifier in error, got %q", err.Error())
	}
}

// --- Quote ---

func TestQuote_Bare(t *testing.T) {
	t.Parallel()
	if got := Quote("users"); got != "[users]" {
		t.Fatalf("Quote(users) = %q", got)
	}
}

func TestQuote_AlreadyQuoted(t *testing.T) {
	t.Parallel()
	if got := Quote("[users]"); got != "[users]" {
		t.Fatalf("Quote([users]) = %q", got)
	}
}

func TestQuote_SchemaQualified(t *testing.T) {
	t.Parallel()
	if got := Quote("dbo.users"); got != "[dbo].[users]" {
		t.Fatalf("Quote(dbo.users) = %q", got)
	}
}

func TestQuote_SchemaQualifiedAlreadyQuoted(t *testing.T) {
	t.Parallel()
	if got := Quote("[dbo].[users]"); got != "[dbo].[users]" {
		t.Fatalf("Quote([dbo].[users]) = %q", got)
	}
}

func TestQuote_Idempotent(t *testing.T) {
	t.Parallel()
	for _, identifier := range []string{"users", "[users]", "dbo.users", "[dbo].[users]", "a.b.c"} {
		once := Quote(identifier)
		twice := Quote(once)
		if once != twice {
			t.Fatalf("Quote not idempotent for %q: %q != %q", identifier, once, twice)
		}
	}
}

func TestQuote_MixedQuoting(t *testing.T) {
	t.Parallel()
	if got := Quote("[dbo].users"); got != "[dbo].[users]" {
		t.Fatalf("Quote([dbo].users) = %q", got)
	}
	if got := Quote("dbo.[users]"); got != "[dbo].[users]" {
		t.Fatalf("Quote(dbo.[users]) = %q", got)
	}
}
