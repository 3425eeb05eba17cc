package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// QueryType is the statement type detected from the leading SQL keyword.
type QueryType string

const (
	QueryTypeSelect   QueryType = "SELECT"
	QueryTypeInsert   QueryType = "INSERT"
	QueryTypeUpdate   QueryType = "UPDATE"
	QueryTypeDelete   QueryType = "DELETE"
	QueryTypeCreate   QueryType = "CREATE"
	QueryTypeAlter    QueryType = "ALTER"
	QueryTypeDrop     QueryType = "DROP"
	QueryTypeTruncate QueryType = "TRUNCATE"
	QueryTypeExec     QueryType = "EXEC"
	QueryTypeExecute  QueryType = "EXECUTE"
	QueryTypeMerge    QueryType = "MERGE"
	QueryTypeGrant    QueryType = "GRANT"
	QueryTypeRevoke   QueryType = "REVOKE"
	QueryTypeDeny     QueryType = "DENY"
	QueryTypeBackup   QueryType = "BACKUP"
	QueryTypeRestore  QueryType = "RESTORE"
	QueryTypeBulk     QueryType = "BULK"
	QueryTypeUnknown  QueryType = "UNKNOWN"
)

// statementKeywords is an ordered list, not a set: the first keyword the
// cleaned statement starts with wins, so the tie-break between overlapping
// keywords (EXEC before EXECUTE) is reproducible.
var statementKeywords = []QueryType{
	QueryTypeSelect,
	QueryTypeInsert,
	QueryTypeUpdate,
	QueryTypeDelete,
	QueryTypeCreate,
	QueryTypeAlter,
	QueryTypeDrop,
	QueryTypeTruncate,
	QueryTypeExec,
	QueryTypeExecute,
	QueryTypeMerge,
	QueryTypeGrant,
	QueryTypeRevoke,
	QueryTypeDeny,
	QueryTypeBackup,
	QueryTypeRestore,
	QueryTypeBulk,
}

// Result is the outcome of a single validation call.
type Result struct {
	Valid   bool
	Type    QueryType
	Message string
}

// mutationSignature pairs a textual pattern with the construct it signals.
type mutationSignature struct {
	pattern string
	reason  string
}

// mutationSignatures are scanned against the full, comment-intact statement
// text regardless of the classified type. They match textual patterns, not a
// grammar: a keyword inside a string literal can produce a false positive,
// and sufficiently obfuscated SQL can evade them. This is a defense-in-depth
// filter, not a parser.
var mutationSignatures = []mutationSignature{
	{`\bINSERT\s+INTO\b`, "INSERT INTO"},
	{`\bINSERT\s+\w+\s*\(`, "INSERT table (cols)"},
	{`\bUPDATE\s+\w+\s+SET\b`, "UPDATE table SET"},
	{`\bDELETE\s+FROM\b`, "DELETE FROM"},
	{`\bDELETE\s+\w+\s+WHERE\b`, "DELETE table WHERE"},
	{`\bDROP\s+(TABLE|DATABASE|VIEW|PROCEDURE|FUNCTION|INDEX|TRIGGER|SCHEMA)\b`, "DROP object"},
	{`\bCREATE\s+(TABLE|DATABASE|VIEW|PROCEDURE|FUNCTION|INDEX|TRIGGER|SCHEMA)\b`, "CREATE object"},
	{`\bALTER\s+(TABLE|DATABASE|VIEW|PROCEDURE|FUNCTION|INDEX|TRIGGER|SCHEMA)\b`, "ALTER object"},
	{`\bTRUNCATE\s+TABLE\b`, "TRUNCATE TABLE"},
	{`\bMERGE\s+INTO\b`, "MERGE INTO"},
	{`\bGRANT\b`, "GRANT"},
	{`\bREVOKE\b`, "REVOKE"},
	{`\bDENY\b`, "DENY"},
	{`\bBACKUP\s+DATABASE\b`, "BACKUP DATABASE"},
	{`\bRESTORE\s+DATABASE\b`, "RESTORE DATABASE"},
	{`\bBULK\s+INSERT\b`, "BULK INSERT"},
	{`\bEXEC\s*\(`, "EXEC with dynamic SQL"},
	{`\bEXECUTE\s*\(`, "EXECUTE with dynamic SQL"},
	{`\bsp_executesql\b`, "sp_executesql"},
	{`\bOPENROWSET\b`, "OPENROWSET"},
	{`\bOPENQUERY\b`, "OPENQUERY"},
	{`\bxp_cmdshell\b`, "xp_cmdshell"},
	{`\bxp_\w+\b`, "xp_ extended procedure call"},
}

type compiledSignature struct {
	pattern *regexp.Regexp
	reason  string
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// SELECT INTO creates a table, unless the target is a local @variable.
	selectIntoRe    = regexp.MustCompile(`(?is)\bSELECT\b.*\bINTO\s+\w+`)
	selectIntoVarRe = regexp.MustCompile(`(?is)\bSELECT\b.*\bINTO\s+@`)
)

// Checker validates SQL statement text for read-only execution.
// It is immutable after construction and safe for concurrent use.
type Checker struct {
	signatures []compiledSignature
}

// NewChecker compiles the mutation signature library.
func NewChecker() *Checker {
	compiled := make([]compiledSignature, len(mutationSignatures))
	for i, s := range mutationSignatures {
		compiled[i] = compiledSignature{
			pattern: regexp.MustCompile(`(?im)` + s.pattern),
			reason:  s.reason,
		}
	}
	return &Checker{signatures: compiled}
}

// Classify detects the statement type from the leading keyword.
// Comments are stripped from a working copy first; a WITH prologue triggers a
// lookahead past the last closing parenthesis in the string to find the main
// statement. That lookahead is a heuristic, not a balanced-parenthesis scan:
// a ')' inside a trailing string literal shifts the scan point. Kept as-is so
// classification stays consistent with the mutation scan backstop.
func (c *Checker) Classify(query string) QueryType {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	normalized = lineCommentRe.ReplaceAllString(normalized, "")
	normalized = blockCommentRe.ReplaceAllString(normalized, "")
	normalized = strings.TrimSpace(normalized)

	if strings.HasPrefix(normalized, "WITH") {
		if end := strings.LastIndex(normalized, ")"); end != -1 {
			afterCTE := strings.TrimSpace(normalized[end+1:])
			for _, kw := range statementKeywords {
				if strings.HasPrefix(afterCTE, string(kw)) {
					return kw
				}
			}
		}
	}

	for _, kw := range statementKeywords {
		if strings.HasPrefix(normalized, string(kw)) {
			return kw
		}
	}
	return QueryTypeUnknown
}

// Check validates a statement for read-only execution. Only statements that
// classify as SELECT (or as UNKNOWN while containing no forbidden pattern)
// pass. The mutation scan runs against the original text, comments intact,
// even for statements that already classified as SELECT.
func (c *Checker) Check(query string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Type: QueryTypeUnknown, Message: "Query cannot be empty"}
	}

	queryType := c.Classify(query)
	if queryType != QueryTypeSelect && queryType != QueryTypeUnknown {
		return Result{
			Type:    queryType,
			Message: fmt.Sprintf("%s queries are not allowed. Only SELECT queries are permitted.", queryType),
		}
	}

	for _, sig := range c.signatures {
		if match := sig.pattern.FindString(query); match != "" {
			return Result{
				Type:    queryType,
				Message: fmt.Sprintf("Query contains forbidden pattern: %s. Only read-only operations are allowed.", match),
			}
		}
	}

	if selectIntoRe.MatchString(query) && !selectIntoVarRe.MatchString(query) {
		return Result{
			Type:    queryType,
			Message: "SELECT INTO (table creation) is not allowed. Only read-only operations are permitted.",
		}
	}

	return Result{Valid: true, Type: queryType}
}

// Reasons returns the human-readable reason for each mutation signature, in
// scan order.
func (c *Checker) Reasons() []string {
	reasons := make([]string, len(c.signatures))
	for i, sig := range c.signatures {
		reasons[i] = sig.reason
	}
	return reasons
}
