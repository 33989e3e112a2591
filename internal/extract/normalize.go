package extract

// Normalize guarantees that every name in RequiredFields appears exactly once
// in the returned list. Entries already present are kept verbatim, value and
// confidence included, in their original order; a repeated required name
// (a delegated extractor can reply with one) keeps only its first entry.
// Missing required fields are appended as placeholders with a nil value and
// zero confidence, in RequiredFields order. Entries outside RequiredFields
// (e.g. a separately reported Purchase Price) pass through unchanged.
func Normalize(fields []Field) []Field {
	required := make(map[string]bool, len(RequiredFields))
	for _, name := range RequiredFields {
		required[name] = true
	}

	out := make([]Field, 0, len(fields)+len(RequiredFields))
	present := make(map[string]bool, len(fields))

	for _, f := range fields {
		if required[f.FieldName] && present[f.FieldName] {
			continue
		}
		out = append(out, f)
		present[f.FieldName] = true
	}

	for _, name := range RequiredFields {
		if present[name] {
			continue
		}
		out = append(out, Field{
			FieldName:       name,
			FieldValue:      nil,
			ConfidenceScore: 0.0,
		})
	}

	return out
}

// NormalizeResult is Normalize lifted to a Result.
func NormalizeResult(r Result) Result {
	return Result{Fields: Normalize(r.Fields)}
}
