// Package sqlcheck provides the structural safety checks applied to SQL
// before it reaches a connection pool.
package sqlcheck

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyStatement indicates there is nothing to execute.
	ErrEmptyStatement = errors.New("empty SQL statement")

	// ErrMultipleStatements indicates the query contains multiple SQL
	// statements; only single statements are permitted.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrNotSelect indicates the statement is not a read-only SELECT.
	ErrNotSelect = errors.New("only SELECT statements are permitted")
)

// Normalize trims the statement, strips one trailing semicolon, and rejects
// multi-statement payloads (any semicolon remaining outside string literals).
func Normalize(sqlQuery string) (string, error) {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return "", ErrEmptyStatement
	}

	normalized := stripTrailingSemicolon(sqlQuery)
	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// EnsureSelect normalizes the statement and verifies its first token is
// SELECT (case-insensitive). This is a prefix check, not a grammar-aware
// classifier: the per-role database grants remain the real write barrier.
func EnsureSelect(sqlQuery string) (string, error) {
	normalized, err := Normalize(sqlQuery)
	if err != nil {
		return "", err
	}
	if !IsSelect(normalized) {
		return "", ErrNotSelect
	}
	return normalized, nil
}

// IsSelect reports whether the trimmed, case-folded statement begins with
// the SELECT keyword.
func IsSelect(sqlQuery string) bool {
	trimmed := strings.TrimSpace(sqlQuery)
	if len(trimmed) < len("select") {
		return false
	}
	if !strings.EqualFold(trimmed[:len("select")], "select") {
		return false
	}
	// "selection" is not SELECT; require a boundary after the keyword.
	rest := trimmed[len("select"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == '*' || rest[0] == '('
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handles both backslash escape (\') and SQL doubled quote ('');
			// a doubled quote exits and immediately re-enters on the next
			// quote, which keeps the scan inside the string.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding
// whitespace.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimRight(strings.TrimSuffix(sqlQuery, ";"), " \t\n\r")
	}
	return sqlQuery
}
