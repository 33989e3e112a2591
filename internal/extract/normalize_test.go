package extract

import "testing"

func TestNormalize_FillsAllRequiredFields(t *testing.T) {
	out := Normalize(nil)

	if len(out) != len(RequiredFields) {
		t.Fatalf("expected %d fields, got %d", len(RequiredFields), len(out))
	}
	for i, name := range RequiredFields {
		if out[i].FieldName != name {
			t.Errorf("position %d: got %q, want %q", i, out[i].FieldName, name)
		}
		if out[i].FieldValue != nil {
			t.Errorf("placeholder %q: value should be nil, got %q", name, *out[i].FieldValue)
		}
		if out[i].ConfidenceScore != 0.0 {
			t.Errorf("placeholder %q: confidence should be 0, got %v", name, out[i].ConfidenceScore)
		}
	}
}

func TestNormalize_KeepsExistingEntriesVerbatim(t *testing.T) {
	in := []Field{
		newField("Loan Amount", "$300,000", 0.50),
		newField("Borrower Name", "Robert King", 0.50),
	}
	out := Normalize(in)

	if len(out) != len(RequiredFields) {
		t.Fatalf("expected %d fields, got %d", len(RequiredFields), len(out))
	}

	// Original entries first, in original order.
	if out[0].FieldName != "Loan Amount" || *out[0].FieldValue != "$300,000" || out[0].ConfidenceScore != 0.50 {
		t.Errorf("first entry changed: %+v", out[0])
	}
	if out[1].FieldName != "Borrower Name" || *out[1].FieldValue != "Robert King" {
		t.Errorf("second entry changed: %+v", out[1])
	}

	// Placeholders follow in RequiredFields order.
	wantTail := []string{"Property Address", "Loan Term", "Interest Rate", "SSN", "Date of Birth", "Income"}
	for i, name := range wantTail {
		got := out[2+i]
		if got.FieldName != name {
			t.Errorf("tail position %d: got %q, want %q", i, got.FieldName, name)
		}
		if got.FieldValue != nil || got.ConfidenceScore != 0.0 {
			t.Errorf("tail %q: expected nil/0 placeholder, got %+v", name, got)
		}
	}
}

func TestNormalize_DropsDuplicateRequiredNames(t *testing.T) {
	in := []Field{
		newField("SSN", "123-45-6789", 0.90),
		newField("Purchase Price", "$325,000", 0.50),
		newField("SSN", "999-99-9999", 0.40),
		newField("Purchase Price", "$330,000", 0.50),
	}
	out := Normalize(in)

	// One extra slot for each Purchase Price pass-through; both are kept
	// because only required names are deduplicated.
	if len(out) != len(RequiredFields)+2 {
		t.Fatalf("expected %d fields, got %d", len(RequiredFields)+2, len(out))
	}

	ssnCount := 0
	for _, f := range out {
		if f.FieldName == "SSN" {
			ssnCount++
			if f.FieldValue == nil || *f.FieldValue != "123-45-6789" || f.ConfidenceScore != 0.90 {
				t.Errorf("kept the wrong SSN entry: %+v", f)
			}
		}
	}
	if ssnCount != 1 {
		t.Errorf("SSN appears %d times, want exactly 1", ssnCount)
	}
}

func TestNormalize_MissingSSNPlaceholder(t *testing.T) {
	in := []Field{
		newField("Borrower Name", "Alice Johnson", 0.50),
		newField("Date of Birth", "8/25/1967", 0.95),
	}
	out := Normalize(in)

	ssn := findField(out, "SSN")
	if ssn == nil {
		t.Fatal("SSN placeholder missing")
	}
	if ssn.FieldValue != nil {
		t.Errorf("SSN value: got %q, want nil", *ssn.FieldValue)
	}
	if ssn.ConfidenceScore != 0.0 {
		t.Errorf("SSN confidence: got %v, want 0", ssn.ConfidenceScore)
	}

	// Present fields retain value and confidence.
	dob := findField(out, "Date of Birth")
	if dob == nil || dob.FieldValue == nil || *dob.FieldValue != "8/25/1967" || dob.ConfidenceScore != 0.95 {
		t.Errorf("Date of Birth changed: %+v", dob)
	}
}

func TestNormalize_PassesThroughNonRequiredFields(t *testing.T) {
	in := []Field{
		newField("Purchase Price", "$325,000", 0.50),
	}
	out := Normalize(in)

	if len(out) != len(RequiredFields)+1 {
		t.Fatalf("expected %d fields, got %d", len(RequiredFields)+1, len(out))
	}
	if out[0].FieldName != "Purchase Price" || *out[0].FieldValue != "$325,000" {
		t.Errorf("Purchase Price not passed through first: %+v", out[0])
	}
}

func TestNormalize_ExactlyOnceAfterExtraction(t *testing.T) {
	e := NewExtractor()
	for _, s := range Samples() {
		out := Normalize(e.Extract(s.Transcript).Fields)

		counts := map[string]int{}
		for _, f := range out {
			counts[f.FieldName]++
		}
		for _, name := range RequiredFields {
			if counts[name] != 1 {
				t.Errorf("sample %q: field %q appears %d times, want exactly 1", s.Name, name, counts[name])
			}
		}
	}
}
