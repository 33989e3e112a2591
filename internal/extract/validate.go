package extract

import (
	"strings"
	"unicode/utf8"
)

// Validation rejection reasons, surfaced verbatim to users.
const (
	ReasonTooShort = "Transcript too short or empty"
	ReasonNoSignal = "No mortgage-related data found"
)

// minTranscriptLength is the minimum trimmed length, in runes, a transcript
// must have before extraction is attempted.
const minTranscriptLength = 30

// mortgageKeywords are the indicators at least one of which must appear
// (case-insensitively) for a transcript to be considered usable.
var mortgageKeywords = []string{"loan", "borrower", "ssn", "dob", "$", "income"}

// ValidateTranscript is the pre-check gate run before either extractor.
// It returns (false, reason) for obviously unusable input; accepted
// transcripts return (true, "").
func ValidateTranscript(transcript string) (bool, string) {
	trimmed := strings.TrimSpace(transcript)
	if utf8.RuneCountInString(trimmed) < minTranscriptLength {
		return false, ReasonTooShort
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range mortgageKeywords {
		if strings.Contains(lower, kw) {
			return true, ""
		}
	}
	return false, ReasonNoSignal
}
