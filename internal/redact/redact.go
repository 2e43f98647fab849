// Package redact strips sensitive fragments from strings before they are
// logged or surfaced in error responses: database connection strings, SQL
// text, file paths, and host:port pairs that persistence errors tend to
// carry.
package redact

import (
	"regexp"
)

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
)

var (
	// Connection strings with embedded credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@`)

	// SQL statements leaking through driver errors.
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|INDEX)(?:[\s\w,*()='"]+)?`,
	)

	// Absolute file paths, e.g. from migration or config errors.
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// Hostnames with optional ports.
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	patternPlaceholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, RedactedCredentialPlaceholder},
		{sqlRegex, RedactedSQLPlaceholder},
		{unixPathRegex, RedactedPathPlaceholder},
		{hostPortRegex, RedactedHostPlaceholder},
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	out := input
	for _, pp := range patternPlaceholders {
		out = pp.pattern.ReplaceAllString(out, pp.placeholder)
	}
	return out
}

// Error redacts the error's message. A nil error yields an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
