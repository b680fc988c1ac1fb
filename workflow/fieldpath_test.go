package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestResolveDecimal_FieldVariantsExtractSameAmount(t *testing.T) {
	variants := []map[string]any{
		{"Income": 52500.0},
		{"income": "52500"},
		{"gross_amount": "$52,500.00"},
	}
	for _, record := range variants {
		got := resolveDecimal(record, "Income", "income", "gross_amount", "amount")
		if got == nil {
			t.Fatalf("record %v: expected a value, got nil", record)
		}
		if !got.Equal(decimal.NewFromInt(52500)) {
			t.Fatalf("record %v: expected 52500, got %s", record, got)
		}
	}
}

func TestResolveDecimal_PriorityOrderWins(t *testing.T) {
	record := map[string]any{
		"Income":       1000.0,
		"gross_amount": 2000.0,
	}
	got := resolveDecimal(record, "Income", "income", "gross_amount")
	if got == nil || !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected first candidate (1000) to win, got %v", got)
	}
}

func TestParseLenientDecimal(t *testing.T) {
	cases := []struct {
		in   any
		want string
		null bool
	}{
		{"$1,234.56", "1234.56", false},
		{" 42 ", "42", false},
		{"(500.00)", "-500", false},
		{1234.56, "1234.56", false},
		{"not a number", "", true},
		{"", "", true},
		{true, "", true},
	}
	for _, tc := range cases {
		got := parseLenientDecimal(tc.in)
		if tc.null {
			if got != nil {
				t.Fatalf("%v: expected nil, got %s", tc.in, got)
			}
			continue
		}
		want, _ := decimal.NewFromString(tc.want)
		if got == nil || !got.Equal(want) {
			t.Fatalf("%v: expected %s, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseLenientDate_FormatOrder(t *testing.T) {
	want := time.Date(2021, 4, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2021-04-15",
		"2021-04-15T00:00:00Z",
		"04/15/2021",
		"04-15-2021",
		"Apr 15, 2021",
		"April 15, 2021",
	} {
		got := parseLenientDate(in)
		if got == nil {
			t.Fatalf("%q: expected a date, got nil", in)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if got := parseLenientDate("15th of April"); got != nil {
		t.Fatalf("expected nil for unparseable date, got %s", got)
	}
}

func TestParseLenientYear(t *testing.T) {
	cases := []struct {
		in   any
		want int
		null bool
	}{
		{"2021", 2021, false},
		{"FY 2021", 2021, false},
		{"2021-12-31", 2021, false},
		{2021.0, 2021, false},
		{"1899", 0, true},
		{"2101", 0, true},
		{"21", 0, true},
		{nil, 0, true},
	}
	for _, tc := range cases {
		got := parseLenientYear(tc.in)
		if tc.null {
			if got != nil {
				t.Fatalf("%v: expected nil, got %d", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("%v: expected %d, got %v", tc.in, tc.want, got)
		}
	}
}

func TestResolveField_DottedPathsDescend(t *testing.T) {
	record := map[string]any{
		"Issuer": map[string]any{"Name": "ACME PAYROLL"},
	}
	got := resolveString(record, "Issuer.Name", "issuer_name")
	if got == nil || *got != "ACME PAYROLL" {
		t.Fatalf("expected nested issuer name, got %v", got)
	}
}

func TestWageIncomeGroups_AllThreeShapes(t *testing.T) {
	flatForms := map[string]any{"forms": []any{map[string]any{"Form": "W-2"}}}
	flatData := map[string]any{"data": []any{map[string]any{"Form": "W-2"}}}
	envelope := map[string]any{
		"years_data": map[string]any{
			"2021": map[string]any{"forms": []any{map[string]any{"Form": "W-2"}}},
		},
	}

	for _, payload := range []map[string]any{flatForms, flatData} {
		groups, ok := wageIncomeGroups(payload)
		if !ok || len(groups) != 1 || len(groups[0].forms) != 1 {
			t.Fatalf("flat payload: expected one group with one form, got %v ok=%v", groups, ok)
		}
		if groups[0].envelopeYear != nil {
			t.Fatalf("flat payload must not carry an envelope year")
		}
	}

	groups, ok := wageIncomeGroups(envelope)
	if !ok || len(groups) != 1 || len(groups[0].forms) != 1 {
		t.Fatalf("envelope payload: expected one group with one form, got %v ok=%v", groups, ok)
	}
	if groups[0].envelopeYear == nil || *groups[0].envelopeYear != 2021 {
		t.Fatalf("envelope payload: expected year 2021 from the key, got %v", groups[0].envelopeYear)
	}

	if _, ok := wageIncomeGroups(map[string]any{"something_else": 1}); ok {
		t.Fatalf("unrecognized payload shape must not resolve")
	}
}

func TestResolveFormType(t *testing.T) {
	cases := []struct {
		record map[string]any
		want   string
	}{
		{map[string]any{"Form": "w-2"}, "W-2"},
		{map[string]any{"form_type": " 1099-NEC "}, "1099-NEC"},
		{map[string]any{"Form": map[string]any{"Type": "1099-MISC"}}, "1099-MISC"},
		// Last resort: a known token buried in a free-form value.
		{map[string]any{"description": "Wage and Tax Statement (W-2) 2021"}, "W-2"},
		{map[string]any{"description": "no form here"}, ""},
	}
	for _, tc := range cases {
		if got := resolveFormType(tc.record); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.record, tc.want, got)
		}
	}
}
