// Package underwrite implements the deterministic underwriting core:
// cleaning raw extracted financial data into a canonical record and
// computing the standard ratio set with risk flags.
package underwrite

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/harborlend/underwriteai/pkg/models"
)

// ErrInvalidInput is returned when the raw input is not a mapping at all.
// This is the only cleaner failure that reaches the caller; every other
// defect is substituted with a default and logged.
var ErrInvalidInput = errors.New("underwrite: input data must be an object")

// allowedNegative lists the fields whose negative values survive cleaning.
// Everything else is zeroed when negative. The ratio engine still rejects
// negative credit_used and loan_amount, so a negative value here produces a
// degraded evaluation downstream; see the engine for details.
var allowedNegative = map[string]bool{
	"credit_used": true,
	"loan_amount": true,
}

// Clean converts an arbitrary raw mapping into a fully populated
// CanonicalFinancialRecord. It never fails on bad field values: missing,
// null, empty, or non-numeric entries become 0 (or "Not Available" for the
// optional string fields), and each substitution is logged individually.
func Clean(raw models.RawFinancialInput) (*models.CanonicalFinancialRecord, error) {
	if raw == nil {
		return nil, ErrInvalidInput
	}

	numeric := make(map[string]float64, len(models.RequiredFields))
	for _, field := range models.RequiredFields {
		numeric[field] = cleanNumeric(field, raw[field])
	}

	rec := &models.CanonicalFinancialRecord{
		GrossAnnualIncome:     numeric["gross_annual_income"],
		MonthlyNetIncome:      numeric["monthly_net_income"],
		MonthlyHousingExpense: numeric["monthly_housing_expense"],
		MonthlyTotalDebt:      numeric["monthly_total_debt"],
		Savings:               numeric["savings"],
		CreditUsed:            numeric["credit_used"],
		CreditLimit:           numeric["credit_limit"],
		LoanAmount:            numeric["loan_amount"],
		PropertyValue:         numeric["property_value"],
		EmploymentTitle:       cleanOptional("employment_title", raw["employment_title"]),
		EmployerName:          cleanOptional("employer_name", raw["employer_name"]),
	}
	return rec, nil
}

// CleanAny is Clean for values of unknown shape, e.g. freshly decoded JSON.
// Anything that is not an object mapping fails with ErrInvalidInput.
func CleanAny(value any) (*models.CanonicalFinancialRecord, error) {
	switch v := value.(type) {
	case models.RawFinancialInput:
		return Clean(v)
	case map[string]any:
		return Clean(models.RawFinancialInput(v))
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidInput, value)
	}
}

// cleanNumeric coerces a single required field value, substituting 0 for
// anything absent, null-like, non-numeric, or disallowed-negative.
func cleanNumeric(field string, value any) float64 {
	if isNullLike(value) {
		log.Printf("underwrite: field %q was null/missing, using default 0", field)
		return 0
	}

	v, err := toFloat(value)
	if err != nil {
		log.Printf("underwrite: field %q could not be converted to a number (%v), using default 0", field, value)
		return 0
	}

	if v < 0 && !allowedNegative[field] {
		log.Printf("underwrite: field %q was negative (%v), using default 0", field, v)
		return 0
	}
	return v
}

// cleanOptional coerces an optional string field, substituting the
// "Not Available" placeholder for anything null-like.
func cleanOptional(field string, value any) string {
	if isNullLike(value) {
		return models.NotAvailable
	}
	return fmt.Sprintf("%v", value)
}

// isNullLike reports whether a value counts as absent: nil, empty string,
// or the literal strings "null" / "None" that LLM extraction emits.
func isNullLike(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		switch strings.TrimSpace(s) {
		case "", "null", "None":
			return true
		}
	}
	return false
}

// toFloat converts numbers and numeric strings to float64.
func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		return 0, fmt.Errorf("boolean is not numeric")
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
