package triage

import (
	"fmt"
	"strings"
)

// Triage levels are scheduling priority bands, explicitly not diagnoses.
const (
	LevelRoutine      = "routine"
	LevelConsultation = "consultation_needed"
	LevelUrgent       = "urgent_attention_suggested"
)

// ValidLevel reports whether s names a triage level.
func ValidLevel(s string) bool {
	switch s {
	case LevelRoutine, LevelConsultation, LevelUrgent:
		return true
	}
	return false
}

// Rank orders levels for queue sorting: urgent first.
func Rank(level string) int {
	switch level {
	case LevelUrgent:
		return 1
	case LevelConsultation:
		return 2
	default:
		return 3
	}
}

// urgentKeywords is the closed keyword list for the urgency rule. Matching
// is case-insensitive substring; no stemming, no synonyms, no model calls.
var urgentKeywords = []string{
	"sudden",
	"severe",
	"worst",
	"chest",
	"breathing",
	"unconscious",
	"unresponsive",
	"bleeding heavily",
	"cannot breathe",
	"fainting",
	"collapse",
}

// Classify maps symptom input to a priority band with a templated reason
// naming exactly which rules fired. It is pure and deterministic: no
// external calls, identical input always yields identical output.
//
// Rules, in order:
//   - severity >= 8 or an urgent keyword in the text -> urgent
//   - severity >= 5 or duration <= 3 days -> consultation
//   - otherwise -> routine
func Classify(severity, durationDays int, freeText string) (string, string) {
	lower := strings.ToLower(freeText)

	var urgentReasons []string
	if severity >= 8 {
		urgentReasons = append(urgentReasons, fmt.Sprintf("High severity (%d/10)", severity))
	}
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			urgentReasons = append(urgentReasons, fmt.Sprintf("Urgent keyword match (%q)", kw))
			break
		}
	}
	if len(urgentReasons) > 0 {
		return LevelUrgent, "Rule triggered: " + strings.Join(urgentReasons, "; ") + "."
	}

	var consultReasons []string
	if severity >= 5 {
		consultReasons = append(consultReasons, fmt.Sprintf("Moderate severity (%d/10)", severity))
	}
	if durationDays <= 3 {
		consultReasons = append(consultReasons, fmt.Sprintf("Recent onset (%d days)", durationDays))
	}
	if len(consultReasons) > 0 {
		return LevelConsultation, "Rule triggered: " + strings.Join(consultReasons, "; ") + "."
	}

	return LevelRoutine, "No urgency rules triggered."
}
