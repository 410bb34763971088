package discussion

import "regexp"

// Patterns that suggest patient-identifying material. The scanner is
// deliberately overcautious: a false positive costs a rewrite, a false
// negative leaks an identifier into a shared space.
var identifierPatterns = []*regexp.Regexp{
	// Long alphanumeric tokens in any case, e.g. record numbers. Long
	// ordinary words match too; that overcaution is intentional.
	regexp.MustCompile(`(?i)\b[A-Z0-9]{8,}\b`),
	// ISO dates, e.g. dates of birth.
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	// Long digit runs, e.g. phone or national id numbers.
	regexp.MustCompile(`\b\d{10,}\b`),
	// Explicit id references.
	regexp.MustCompile(`(?i)\b(patient|consultation|visit)\s*id\b`),
}

// ContainsIdentifier reports whether text matches any identifying pattern.
// Posts are rejected before storage; nothing flagged is ever persisted.
func ContainsIdentifier(text string) bool {
	for _, p := range identifierPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
