package extract

import (
	"reflect"
	"testing"
)

// helper: find a field by name, nil if absent.
func findField(fields []Field, name string) *Field {
	for i := range fields {
		if fields[i].FieldName == name {
			return &fields[i]
		}
	}
	return nil
}

func requireValue(t *testing.T, fields []Field, name, want string, conf float64) {
	t.Helper()
	f := findField(fields, name)
	if f == nil {
		t.Fatalf("field %q not extracted", name)
	}
	if f.FieldValue == nil {
		t.Fatalf("field %q has nil value, want %q", name, want)
	}
	if *f.FieldValue != want {
		t.Errorf("field %q: got %q, want %q", name, *f.FieldValue, want)
	}
	if f.ConfidenceScore != conf {
		t.Errorf("field %q: confidence got %v, want %v", name, f.ConfidenceScore, conf)
	}
}

func TestExtract_BorrowerNameAndLoanAmount(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Borrower: Alice Johnson\nI need a loan for $415,000")

	requireValue(t, res.Fields, "Borrower Name", "Alice Johnson", 0.50)
	requireValue(t, res.Fields, "Loan Amount", "$415,000", 0.50)
}

func TestExtract_LoanForBeatsPurchasePrice(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("The purchase price is $325,000, and I'd like a loan for $300,000.")

	requireValue(t, res.Fields, "Loan Amount", "$300,000", 0.50)
	// Purchase Price is still reported as its own non-required field.
	requireValue(t, res.Fields, "Purchase Price", "$325,000", 0.50)
}

func TestExtract_PurchasePriceFallbackForLoanAmount(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("The purchase price is $250,000 and we want a mortgage soon.")

	requireValue(t, res.Fields, "Loan Amount", "$250,000", 0.50)
}

func TestExtract_OutstandingBalanceFallback(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("The outstanding balance on my current mortgage is about $187,400.")

	requireValue(t, res.Fields, "Loan Amount", "$187,400", 0.50)
}

func TestExtract_SSNAndDOB(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("My SSN is 905-95-2209 and my DOB is 8/25/1967.")

	requireValue(t, res.Fields, "SSN", "905-95-2209", 0.90)
	requireValue(t, res.Fields, "Date of Birth", "8/25/1967", 0.95)
}

func TestExtract_PromptThenAnswerName(t *testing.T) {
	e := NewExtractor()
	transcript := "Agent: Can I get your full name?\n" +
		"Borrower: Robert King.\n" +
		"Agent: Thanks, Robert."
	res := e.Extract(transcript)

	requireValue(t, res.Fields, "Borrower Name", "Robert King", 0.50)
}

func TestExtract_PromptThenAnswerSkipsEarlierBorrowerLine(t *testing.T) {
	e := NewExtractor()
	transcript := "Borrower: yes hello, about the loan\n" +
		"Agent: Could you state your full name for the record?\n" +
		"Borrower: Maria Delgado\n"
	res := e.Extract(transcript)

	requireValue(t, res.Fields, "Borrower Name", "Maria Delgado", 0.50)
}

func TestExtract_MyNameIsFallback(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Hi, my name is Dana Whitfield and I need a loan for $90,000.")

	requireValue(t, res.Fields, "Borrower Name", "Dana Whitfield", 0.50)
}

func TestExtract_PropertyAddressAlternatives(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{"home at", "We found a home at 412 Maple Grove Lane, Austin. Nice place.", "412 Maple Grove Lane, Austin"},
		{"it's", "Which property? It's 98 Harborview Court, Seattle. Thanks.", "98 Harborview Court, Seattle"},
		{"address is", "The address is 7 Oak Street, Denver. Got it.", "7 Oak Street, Denver"},
		{"located at", "The house is located at 15 Birch Road, Boston. Okay.", "15 Birch Road, Boston"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Extract(tt.transcript)
			requireValue(t, res.Fields, "Property Address", tt.want, 0.50)
		})
	}
}

func TestExtract_LoanTermAndRate(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("We'd like the 30-year fixed rate; I heard the rate is 6.25% right now.")

	requireValue(t, res.Fields, "Loan Term", "30-year", 0.50)
	requireValue(t, res.Fields, "Interest Rate", "6.25%", 0.75)
}

func TestExtract_IncomeAnnualBeatsMonthly(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("My annual income is $98,500 and my gross monthly income is $8,208.")

	requireValue(t, res.Fields, "Income", "$98,500", 0.75)
}

func TestExtract_IncomeGrossMonthly(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("My gross monthly income is $7,200 right now.")

	requireValue(t, res.Fields, "Income", "$7,200", 0.75)
}

func TestExtract_NoSignalReturnsEmpty(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("This transcript talks about nothing in particular at all.")

	if len(res.Fields) != 0 {
		t.Fatalf("expected no fields, got %d: %+v", len(res.Fields), res.Fields)
	}
}

func TestExtract_SSNLengthBound(t *testing.T) {
	e := NewExtractor()
	// Too few digits to be an SSN; the length-bounded pattern must not match.
	res := e.Extract("My SSN is 12-34 according to the borrower notes.")

	if f := findField(res.Fields, "SSN"); f != nil {
		t.Fatalf("expected no SSN match, got %+v", *f)
	}
}

func TestExtract_NoDuplicateFieldNames(t *testing.T) {
	e := NewExtractor()
	for _, s := range Samples() {
		res := e.Extract(s.Transcript)
		seen := map[string]int{}
		for _, f := range res.Fields {
			seen[f.FieldName]++
		}
		for name, n := range seen {
			if n > 1 {
				t.Errorf("sample %q: field %q extracted %d times", s.Name, name, n)
			}
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewExtractor()
	for _, s := range Samples() {
		first := e.Extract(s.Transcript)
		second := e.Extract(s.Transcript)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("sample %q: repeated extraction differs", s.Name)
		}
	}
}

func TestExtract_InputNotMutated(t *testing.T) {
	e := NewExtractor()
	transcript := "Borrower: Alice Johnson\nI need a loan for $415,000"
	copyOf := transcript
	e.Extract(transcript)
	if transcript != copyOf {
		t.Fatal("transcript was mutated")
	}
}

func TestExtract_SampleTranscripts(t *testing.T) {
	e := NewExtractor()

	res := e.Extract(Samples()[0].Transcript)
	requireValue(t, res.Fields, "Borrower Name", "Robert King", 0.50)
	requireValue(t, res.Fields, "Loan Amount", "$300,000", 0.50)
	requireValue(t, res.Fields, "Purchase Price", "$325,000", 0.50)
	requireValue(t, res.Fields, "Loan Term", "30-year", 0.50)
	requireValue(t, res.Fields, "Interest Rate", "6.25%", 0.75)
	requireValue(t, res.Fields, "SSN", "905-95-2209", 0.90)
	requireValue(t, res.Fields, "Date of Birth", "8/25/1967", 0.95)
	requireValue(t, res.Fields, "Income", "$98,500", 0.75)

	res = e.Extract(Samples()[1].Transcript)
	requireValue(t, res.Fields, "Borrower Name", "Alice Johnson", 0.50)
	requireValue(t, res.Fields, "Loan Amount", "$187,400", 0.50)
	requireValue(t, res.Fields, "Income", "$7,200", 0.75)
}
