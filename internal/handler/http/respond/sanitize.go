package respond

import (
	"regexp"
)

var (
	// The Anthropic pattern must run first, it is the more specific one.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// Credentials embedded in a DSN.
	dsnPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError returns the error message with API keys and DSN
// passwords masked. Safe to write into logs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
