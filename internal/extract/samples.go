package extract

// Sample is a named mock transcript for quick testing from the web form,
// CLI, and MCP tools.
type Sample struct {
	Name       string `json:"name"`
	Transcript string `json:"transcript"`
}

// Samples returns the built-in mock transcripts in a stable order.
func Samples() []Sample {
	return []Sample{
		{
			Name: "Purchase — full application",
			Transcript: "Agent: Thanks for calling. Can I get your full name for the application?\n" +
				"Borrower: Robert King.\n" +
				"Agent: Great. What are you looking to do today?\n" +
				"Borrower: We found a home at 412 Maple Grove Lane, Austin, Texas. The purchase price is $325,000, and I'd like a loan for $300,000.\n" +
				"Agent: Any preference on the product?\n" +
				"Borrower: The 30-year fixed rate, and I heard the rate is 6.25% right now.\n" +
				"Agent: I'll need a few identifiers. \n" +
				"Borrower: Sure, my SSN is 905-95-2209 and my DOB is 8/25/1967.\n" +
				"Agent: And income?\n" +
				"Borrower: My annual income is around $98,500.",
		},
		{
			Name: "Refinance — partial data",
			Transcript: "Borrower: Hi, my name is Alice Johnson, I'm calling about refinancing.\n" +
				"Agent: What's the remaining balance?\n" +
				"Borrower: The outstanding balance on the mortgage is about $187,400.\n" +
				"Agent: Which property is this for?\n" +
				"Borrower: It's 98 Harborview Court, Unit 4B, Seattle.\n" +
				"Borrower: My gross monthly income is $7,200 if that helps.",
		},
		{
			Name: "Quick quote — minimal",
			Transcript: "Caller: I just want a ballpark. I need a loan for $415,000 on a " +
				"15-year fixed rate. My name is Dana Whitfield.",
		},
		{
			Name: "No form data",
			Transcript: "Caller: I think I was charged twice for my gym membership last month " +
				"and I would like a refund to my card, please.",
		},
	}
}
