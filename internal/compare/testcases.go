// Package compare runs the standard query set across models and aggregates
// per-model timing, token, cost, and success metrics into a comparison
// artifact.
package compare

// Test case categories.
const (
	CategoryDatabaseSimple  = "database_simple"
	CategoryDatabaseComplex = "database_complex"
	CategoryCurrencySimple  = "currency_simple"
	CategoryMultiTool       = "multi_tool"
)

// TestCase is one standard comparison query with its expectations.
type TestCase struct {
	ID               int      `json:"id"`
	Query            string   `json:"query"`
	Category         string   `json:"category"`
	ExpectedTool     string   `json:"expected_tool,omitempty"`
	ExpectedTools    []string `json:"expected_tools,omitempty"`
	ExpectedKeywords []string `json:"expected_keywords,omitempty"`
}

var standardCases = []TestCase{
	{
		ID:               1,
		Query:            "Find melancholic Pink Floyd songs",
		Category:         CategoryDatabaseSimple,
		ExpectedTool:     "pink_floyd_database",
		ExpectedKeywords: []string{"Time", "Comfortably Numb", "Wish You Were Here"},
	},
	{
		ID:               2,
		Query:            "Show me songs from The Dark Side of the Moon album",
		Category:         CategoryDatabaseSimple,
		ExpectedTool:     "pink_floyd_database",
		ExpectedKeywords: []string{"Time", "Money", "Us and Them"},
	},
	{
		ID:               3,
		Query:            "What's the current USD to EUR exchange rate?",
		Category:         CategoryCurrencySimple,
		ExpectedTool:     "currency_price_checker",
		ExpectedKeywords: []string{"USD", "EUR", "exchange rate"},
	},
	{
		ID:               4,
		Query:            "How much is 100 dollars in British pounds?",
		Category:         CategoryCurrencySimple,
		ExpectedTool:     "currency_price_checker",
		ExpectedKeywords: []string{"GBP", "100"},
	},
	{
		ID:               5,
		Query:            "Find psychedelic songs from the 1960s",
		Category:         CategoryDatabaseComplex,
		ExpectedTool:     "pink_floyd_database",
		ExpectedKeywords: []string{"Astronomy Domine", "Interstellar Overdrive"},
	},
	{
		ID:               6,
		Query:            "I want to listen to energetic Pink Floyd music while checking the euro price",
		Category:         CategoryMultiTool,
		ExpectedTools:    []string{"pink_floyd_database", "currency_price_checker"},
		ExpectedKeywords: []string{"energetic", "EUR"},
	},
	{
		ID:               7,
		Query:            "What songs from The Wall album are melancholic?",
		Category:         CategoryDatabaseComplex,
		ExpectedTool:     "pink_floyd_database",
		ExpectedKeywords: []string{"Comfortably Numb", "Hey You", "Mother"},
	},
	{
		ID:               8,
		Query:            "Compare USD to JPY exchange rate",
		Category:         CategoryCurrencySimple,
		ExpectedTool:     "currency_price_checker",
		ExpectedKeywords: []string{"JPY", "yen"},
	},
}

// AllCases returns the standard comparison query set.
func AllCases() []TestCase {
	out := make([]TestCase, len(standardCases))
	copy(out, standardCases)
	return out
}

// CasesByCategory filters the standard set by category.
func CasesByCategory(category string) []TestCase {
	var out []TestCase
	for _, tc := range standardCases {
		if tc.Category == category {
			out = append(out, tc)
		}
	}
	return out
}

// SimpleCases returns the single-tool straightforward queries.
func SimpleCases() []TestCase {
	var out []TestCase
	for _, tc := range standardCases {
		if tc.Category == CategoryDatabaseSimple || tc.Category == CategoryCurrencySimple {
			out = append(out, tc)
		}
	}
	return out
}

// ComplexCases returns the multi-step and multi-tool queries.
func ComplexCases() []TestCase {
	var out []TestCase
	for _, tc := range standardCases {
		if tc.Category == CategoryDatabaseComplex || tc.Category == CategoryMultiTool {
			out = append(out, tc)
		}
	}
	return out
}
