// Package extract provides rule-based 1003 form field extraction for FormsIQ.
//
// The deterministic extractor identifies mortgage-application fields from raw
// call transcripts without requiring an LLM or external API:
// - Borrower identity ("Borrower: Alice Johnson", "my name is ...")
// - Property and loan figures ("loan for $415,000", "30-year fixed rate")
// - Sensitive identifiers ("SSN is 905-95-2209", "DOB is 8/25/1967")
//
// Each rule carries a fixed confidence score reflecting how trustworthy its
// source pattern is considered to be. Rules are independent: a non-match
// simply omits that field, it never fails the extraction.
package extract

import (
	"regexp"
	"strings"
)

// Field represents a single extracted 1003 form datum.
type Field struct {
	FieldName       string  `json:"field_name"`
	FieldValue      *string `json:"field_value"`      // nil means "not found"
	ConfidenceScore float64 `json:"confidence_score"` // 0.0–1.0, fixed per rule
}

// Result is the output of one extraction call.
type Result struct {
	Fields []Field `json:"fields"`
}

// RequiredFields is the fixed set of 1003 form fields every normalized result
// must contain, in placeholder order.
var RequiredFields = []string{
	"Borrower Name",
	"Property Address",
	"Loan Amount",
	"Loan Term",
	"Interest Rate",
	"SSN",
	"Date of Birth",
	"Income",
}

// fieldRule maps one field name to an ordered pattern list and a fixed
// confidence. The first alternative that matches anywhere in the transcript
// wins; the rule never re-scans after a match.
type fieldRule struct {
	field      string
	patterns   []*regexp.Regexp
	confidence float64
	render     func(match string) string
}

// Extractor applies the deterministic rule table to one transcript.
// It holds only the read-only rule set, so a single Extractor is safe to
// reuse across calls.
type Extractor struct {
	rules []*fieldRule
}

// NewExtractor creates a deterministic field extractor with the full 1003
// rule table.
func NewExtractor() *Extractor {
	return &Extractor{rules: initFieldRules()}
}

var (
	// Borrower name patterns. The "Borrower:" line is the primary source;
	// "my name is" refines the captured text or serves as a whole-transcript
	// fallback when no "Borrower:" line exists.
	borrowerLineRE   = regexp.MustCompile(`(?i)Borrower\s*:\s*(.+)`)
	myNameIsRE       = regexp.MustCompile(`(?i)my name is\s+([A-Za-z ]+)`)
	nameContractedRE = regexp.MustCompile(`(?i)name'?s\s+([A-Za-z ]+)`)
	fullNamePromptRE = regexp.MustCompile(`(?i)full name`)
)

// initFieldRules initializes the rule table in output order.
func initFieldRules() []*fieldRule {
	dollar := func(m string) string { return "$" + strings.TrimSpace(m) }
	verbatim := func(m string) string { return strings.TrimSpace(m) }

	return []*fieldRule{
		{
			field: "Property Address",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:home at|it['’]?s|address is|located at)\s*(.+?)\.`),
			},
			confidence: 0.50,
			render:     verbatim,
		},
		{
			// Reported separately from Loan Amount; not part of RequiredFields.
			field: "Purchase Price",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)purchase price is\s*\$?([\d,]+)`),
			},
			confidence: 0.50,
			render:     dollar,
		},
		{
			// "loan for" takes priority over "purchase price is", which in
			// turn beats "outstanding balance".
			field: "Loan Amount",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)loan for\s*\$?([\d,]+)`),
				regexp.MustCompile(`(?i)purchase price is\s*\$?([\d,]+)`),
				regexp.MustCompile(`(?i)outstanding balance.*?\$?([\d,]+)`),
			},
			confidence: 0.50,
			render:     dollar,
		},
		{
			field: "Loan Term",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(\d+)-year fixed rate`),
			},
			confidence: 0.50,
			render:     func(m string) string { return m + "-year" },
		},
		{
			field: "Interest Rate",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)rate is\s*([\d.]+%)`),
			},
			confidence: 0.75,
			render:     verbatim,
		},
		{
			field: "SSN",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)SSN\s*(?:is)?\s*([\d-]{9,11})`),
			},
			confidence: 0.90,
			render:     verbatim,
		},
		{
			field: "Date of Birth",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)DOB\s*(?:is)?\s*([\d/]{6,10})`),
			},
			confidence: 0.95,
			render:     verbatim,
		},
		{
			// Annual income beats gross monthly income.
			field: "Income",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)annual income.*?\$?([\d,]+)`),
				regexp.MustCompile(`(?i)gross monthly income.*?\$?([\d,]+)`),
			},
			confidence: 0.75,
			render:     dollar,
		},
	}
}

// Extract runs the rule table over one transcript and returns the raw
// (un-normalized) field list. The input is never mutated and the same
// transcript always produces the same output.
func (e *Extractor) Extract(transcript string) Result {
	var fields []Field

	if name, ok := extractBorrowerName(transcript); ok {
		fields = append(fields, newField("Borrower Name", name, 0.50))
	}

	for _, rule := range e.rules {
		for _, re := range rule.patterns {
			m := re.FindStringSubmatch(transcript)
			if m == nil {
				continue
			}
			value := rule.render(m[1])
			if value == "" {
				continue
			}
			fields = append(fields, newField(rule.field, value, rule.confidence))
			break // first matching alternative wins
		}
	}

	return Result{Fields: fields}
}

// extractBorrowerName resolves the borrower name with the prompt-then-answer
// heuristic layered over the plain "Borrower:" line match:
//  1. If the transcript contains a "full name" prompt line, the first
//     "Borrower:" line after it is the answer.
//  2. Otherwise the first "Borrower:" line anywhere is used; an embedded
//     "my name is"/"name's" phrase refines the capture, else the text up to
//     the first comma is taken.
//  3. With no "Borrower:" line at all, "my name is" is searched in the whole
//     transcript.
func extractBorrowerName(transcript string) (string, bool) {
	if name, ok := borrowerAfterNamePrompt(transcript); ok {
		return name, true
	}

	if m := borrowerLineRE.FindStringSubmatch(transcript); m != nil {
		raw := strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
		if m2 := myNameIsRE.FindStringSubmatch(raw); m2 != nil {
			return strings.TrimSpace(m2[1]), true
		}
		if m2 := nameContractedRE.FindStringSubmatch(raw); m2 != nil {
			return strings.TrimSpace(m2[1]), true
		}
		name := strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
		return name, name != ""
	}

	if m := myNameIsRE.FindStringSubmatch(transcript); m != nil {
		name := strings.TrimSpace(m[1])
		return name, name != ""
	}

	return "", false
}

// borrowerAfterNamePrompt scans for an agent line asking for the borrower's
// full name and takes the first "Borrower:" line after it as the answer.
func borrowerAfterNamePrompt(transcript string) (string, bool) {
	lines := strings.Split(transcript, "\n")
	promptAt := -1
	for i, line := range lines {
		if fullNamePromptRE.MatchString(line) {
			promptAt = i
			break
		}
	}
	if promptAt < 0 {
		return "", false
	}

	for _, line := range lines[promptAt+1:] {
		m := borrowerLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
		name = strings.TrimSpace(strings.SplitN(name, ",", 2)[0])
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// newField builds a present field. The value is copied into its own pointer
// so fields never alias caller memory.
func newField(name, value string, confidence float64) Field {
	v := value
	return Field{FieldName: name, FieldValue: &v, ConfidenceScore: confidence}
}
