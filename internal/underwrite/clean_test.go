package underwrite

import (
	"errors"
	"testing"

	"github.com/harborlend/underwriteai/pkg/models"
)

func TestCleanDefaultsMissingFields(t *testing.T) {
	rec, err := Clean(models.RawFinancialInput{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	for _, field := range models.RequiredFields {
		if got := rec.Field(field); got != 0 {
			t.Errorf("field %s: expected default 0, got %v", field, got)
		}
	}
	if rec.EmploymentTitle != models.NotAvailable {
		t.Errorf("employment_title: expected %q, got %q", models.NotAvailable, rec.EmploymentTitle)
	}
	if rec.EmployerName != models.NotAvailable {
		t.Errorf("employer_name: expected %q, got %q", models.NotAvailable, rec.EmployerName)
	}
}

func TestCleanNullLikeValues(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"literal null", "null"},
		{"literal None", "None"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Clean(models.RawFinancialInput{"savings": tc.value})
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			if rec.Savings != 0 {
				t.Errorf("savings: expected 0, got %v", rec.Savings)
			}
		})
	}
}

func TestCleanCoercion(t *testing.T) {
	rec, err := Clean(models.RawFinancialInput{
		"gross_annual_income": "85000",
		"savings":             "  12000.50 ",
		"loan_amount":         250000,
		"credit_limit":        "not a number",
		"employment_title":    42, // non-string optional is stringified
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if rec.GrossAnnualIncome != 85000 {
		t.Errorf("gross_annual_income: got %v", rec.GrossAnnualIncome)
	}
	if rec.Savings != 12000.50 {
		t.Errorf("savings: got %v", rec.Savings)
	}
	if rec.LoanAmount != 250000 {
		t.Errorf("loan_amount: got %v", rec.LoanAmount)
	}
	if rec.CreditLimit != 0 {
		t.Errorf("credit_limit: expected 0 for unparseable value, got %v", rec.CreditLimit)
	}
	if rec.EmploymentTitle != "42" {
		t.Errorf("employment_title: got %q", rec.EmploymentTitle)
	}
}

// Negative credit_used and loan_amount are allowed through cleaning while
// every other field is zeroed when negative. The engine then rejects those
// same negatives, producing a degraded evaluation; both sides of that
// inconsistency are intentional and pinned here.
func TestCleanAsymmetricNegativityRule(t *testing.T) {
	rec, err := Clean(models.RawFinancialInput{
		"credit_used":        -500.0,
		"loan_amount":        -1000.0,
		"monthly_total_debt": -500.0,
		"savings":            -1.0,
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if rec.CreditUsed != -500 {
		t.Errorf("credit_used: expected -500 preserved, got %v", rec.CreditUsed)
	}
	if rec.LoanAmount != -1000 {
		t.Errorf("loan_amount: expected -1000 preserved, got %v", rec.LoanAmount)
	}
	if rec.MonthlyTotalDebt != 0 {
		t.Errorf("monthly_total_debt: expected 0, got %v", rec.MonthlyTotalDebt)
	}
	if rec.Savings != 0 {
		t.Errorf("savings: expected 0, got %v", rec.Savings)
	}
}

func TestCleanIdempotent(t *testing.T) {
	first, err := Clean(models.RawFinancialInput{
		"gross_annual_income":     120000,
		"monthly_net_income":      7000,
		"monthly_housing_expense": 2000,
		"monthly_total_debt":      2500,
		"savings":                 50000,
		"credit_used":             2000,
		"credit_limit":            20000,
		"loan_amount":             300000,
		"property_value":          400000,
		"employment_title":        "Software Engineer",
		"employer_name":           "Acme Corp",
	})
	if err != nil {
		t.Fatalf("first Clean: %v", err)
	}

	second, err := Clean(first.AsRaw())
	if err != nil {
		t.Fatalf("second Clean: %v", err)
	}
	if *first != *second {
		t.Errorf("cleaning is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCleanAnyRejectsNonMapping(t *testing.T) {
	for _, v := range []any{nil, "text", 42.0, []any{"a"}} {
		if _, err := CleanAny(v); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("CleanAny(%T): expected ErrInvalidInput, got %v", v, err)
		}
	}

	if _, err := CleanAny(map[string]any{"savings": 100.0}); err != nil {
		t.Errorf("CleanAny(map): unexpected error %v", err)
	}
}
