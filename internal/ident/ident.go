// Package ident validates and quotes SQL Server object names before they are
// spliced into generated SQL. It is a second defense layer, independent from
// statement validation: it applies to bare identifiers only, never to full
// query bodies.
package ident

import (
	"fmt"
	"regexp"
	"strings"
)

// allowedRe is the allow-list character set for identifiers: letters, digits,
// underscores, dots (schema qualification), and square brackets (already
// quoted input).
var allowedRe = regexp.MustCompile(`^[\w.\[\]]+$`)

// injectionRes is a deny-list of injection idioms checked after the
// character allow-list.
var injectionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*--`),
	regexp.MustCompile(`(?i);\s*/\*`),
	regexp.MustCompile(`(?i)'\s*OR\s*'`),
	regexp.MustCompile(`(?i)'\s*AND\s*'`),
	regexp.MustCompile(`(?i)UNION\s+SELECT`),
	regexp.MustCompile(`(?i);\s*DROP`),
	regexp.MustCompile(`(?i);\s*DELETE`),
	regexp.MustCompile(`(?i);\s*INSERT`),
	regexp.MustCompile(`(?i);\s*UPDATE`),
}

// Sanitize validates an identifier and returns it unchanged. It classifies
// only; it never rewrites.
func Sanitize(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	if !allowedRe.MatchString(identifier) {
		return "", fmt.Errorf("invalid identifier: %s. Identifiers can only contain letters, numbers, underscores, dots, and brackets", identifier)
	}
	for _, re := range injectionRes {
		if re.MatchString(identifier) {
			return "", fmt.Errorf("potentially dangerous pattern detected in identifier: %s", identifier)
		}
	}
	return identifier, nil
}

// Quote brackets an identifier for literal inclusion in generated SQL.
// Schema-qualified names are quoted per segment: "dbo.users" becomes
// "[dbo].[users]". Idempotent: brackets already present around a segment are
// stripped before re-wrapping, so "[dbo].[users]" round-trips unchanged.
func Quote(identifier string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = "[" + strings.Trim(part, "[]") + "]"
	}
	return strings.Join(parts, ".")
}
