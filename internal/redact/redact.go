// Package redact strips credentials, connection strings, tokens, and other
// sensitive fragments from strings before they are logged. Error messages
// from the database driver or the JWT library can carry secrets; everything
// that ends up in a log line goes through here first.
package redact

import "regexp"

// Placeholders substituted for matched sensitive fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	PathPlaceholder       = "[REDACTED_PATH]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	SQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: connection strings and JWTs are matched before the broader
// path and key patterns that would otherwise swallow parts of them.
var rules = []rule{
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)[=:\s]['"]?[^'"&\s]{3,}`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|token)[='":\s]+[A-Za-z0-9_\-.~+/]{8,}`), KeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)\s[\s\w,*()='"$]+(FROM|INTO|SET|WHERE)[\s\w,*()='"$]*`), SQLPlaceholder},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's message.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
