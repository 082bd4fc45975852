package analyze

import "strings"

// Failure details are persisted into the analysis column so a terminal
// Failed record carries its own diagnosis. The prefixes are stable: the
// report CSV and operators grep for them.
const (
	extractFailurePrefix  = "ERROR[extract]: "
	classifyFailurePrefix = "ERROR[classify]: "

	emptyVerdictDetail = "empty result"
)

func extractFailure(err error) string {
	return extractFailurePrefix + err.Error()
}

func classifyFailure(err error) string {
	return classifyFailurePrefix + err.Error()
}

func emptyVerdictFailure() string {
	return classifyFailurePrefix + emptyVerdictDetail
}

// IsFailureNote reports whether a persisted analysis value is a failure
// sentinel rather than a classification verdict.
func IsFailureNote(analysis string) bool {
	return strings.HasPrefix(analysis, extractFailurePrefix) ||
		strings.HasPrefix(analysis, classifyFailurePrefix)
}
