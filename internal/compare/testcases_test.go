package compare

import "testing"

func TestAllCasesCoverStandardSet(t *testing.T) {
	cases := AllCases()
	if got, want := len(cases), 8; got != want {
		t.Fatalf("len(AllCases()) = %d, want %d", got, want)
	}
	for i, tc := range cases {
		if got, want := tc.ID, i+1; got != want {
			t.Errorf("case %d has ID %d, want %d", i, got, want)
		}
		if tc.Query == "" {
			t.Errorf("case %d has empty query", tc.ID)
		}
		if tc.Category == "" {
			t.Errorf("case %d has empty category", tc.ID)
		}
	}
}

func TestAllCasesReturnsCopy(t *testing.T) {
	first := AllCases()
	first[0].Query = "mutated"
	if got := AllCases()[0].Query; got == "mutated" {
		t.Fatal("mutating AllCases result leaked into the standard set")
	}
}

func TestMultiToolCaseExpectsBothTools(t *testing.T) {
	multi := CasesByCategory(CategoryMultiTool)
	if got, want := len(multi), 1; got != want {
		t.Fatalf("len(multi) = %d, want %d", got, want)
	}
	tc := multi[0]
	if tc.ExpectedTool != "" {
		t.Errorf("multi-tool case has single ExpectedTool %q", tc.ExpectedTool)
	}
	if got, want := len(tc.ExpectedTools), 2; got != want {
		t.Errorf("len(ExpectedTools) = %d, want %d", got, want)
	}
}

func TestCaseFilters(t *testing.T) {
	if got, want := len(CasesByCategory(CategoryCurrencySimple)), 3; got != want {
		t.Errorf("currency_simple cases = %d, want %d", got, want)
	}
	if got, want := len(SimpleCases()), 5; got != want {
		t.Errorf("simple cases = %d, want %d", got, want)
	}
	if got, want := len(ComplexCases()), 3; got != want {
		t.Errorf("complex cases = %d, want %d", got, want)
	}
	if got := CasesByCategory("no_such_category"); len(got) != 0 {
		t.Errorf("unknown category returned %d cases", len(got))
	}
}
