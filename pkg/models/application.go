// Package models defines the shared data structures exchanged between the
// document pipeline, the underwriting core, the policy layer, and the API.
// All types are plain JSON-serializable structs with no behavior beyond
// small accessors.
package models

import "time"

// RawFinancialInput is the untrusted mapping produced by the upstream
// field-extraction step (LLM or form). Values may be numbers, strings,
// nulls, or absent entirely; no schema is enforced here.
type RawFinancialInput map[string]any

// Required numeric fields of a loan application, in canonical order.
// The cleaner, the extraction prompt, and the tests all share this list.
var RequiredFields = []string{
	"gross_annual_income",
	"monthly_net_income",
	"monthly_housing_expense",
	"monthly_total_debt",
	"savings",
	"credit_used",
	"credit_limit",
	"loan_amount",
	"property_value",
}

// Optional free-text fields of a loan application.
var OptionalFields = []string{
	"employment_title",
	"employer_name",
}

// NotAvailable is the default for missing optional string fields.
const NotAvailable = "Not Available"

// CanonicalFinancialRecord is the cleaned, fully populated form of a loan
// application. Produced fresh per evaluation; immutable after creation.
type CanonicalFinancialRecord struct {
	GrossAnnualIncome     float64 `json:"gross_annual_income"`
	MonthlyNetIncome      float64 `json:"monthly_net_income"`
	MonthlyHousingExpense float64 `json:"monthly_housing_expense"`
	MonthlyTotalDebt      float64 `json:"monthly_total_debt"`
	Savings               float64 `json:"savings"`
	CreditUsed            float64 `json:"credit_used"`
	CreditLimit           float64 `json:"credit_limit"`
	LoanAmount            float64 `json:"loan_amount"`
	PropertyValue         float64 `json:"property_value"`
	EmploymentTitle       string  `json:"employment_title"`
	EmployerName          string  `json:"employer_name"`
}

// AsRaw re-exposes the record as a RawFinancialInput mapping. Cleaning the
// result yields an identical record (cleaning is idempotent on canonical data).
func (r *CanonicalFinancialRecord) AsRaw() RawFinancialInput {
	return RawFinancialInput{
		"gross_annual_income":     r.GrossAnnualIncome,
		"monthly_net_income":      r.MonthlyNetIncome,
		"monthly_housing_expense": r.MonthlyHousingExpense,
		"monthly_total_debt":      r.MonthlyTotalDebt,
		"savings":                 r.Savings,
		"credit_used":             r.CreditUsed,
		"credit_limit":            r.CreditLimit,
		"loan_amount":             r.LoanAmount,
		"property_value":          r.PropertyValue,
		"employment_title":        r.EmploymentTitle,
		"employer_name":           r.EmployerName,
	}
}

// Field returns the named required numeric field value.
func (r *CanonicalFinancialRecord) Field(name string) float64 {
	switch name {
	case "gross_annual_income":
		return r.GrossAnnualIncome
	case "monthly_net_income":
		return r.MonthlyNetIncome
	case "monthly_housing_expense":
		return r.MonthlyHousingExpense
	case "monthly_total_debt":
		return r.MonthlyTotalDebt
	case "savings":
		return r.Savings
	case "credit_used":
		return r.CreditUsed
	case "credit_limit":
		return r.CreditLimit
	case "loan_amount":
		return r.LoanAmount
	case "property_value":
		return r.PropertyValue
	}
	return 0
}

// Application is a processed loan application held by the API layer for
// dashboard lookups. Assembled by the orchestrator, never persisted.
type Application struct {
	ID        string                    `json:"id"`
	CreatedAt time.Time                 `json:"created_at"`
	Files     []FileSummary             `json:"files,omitempty"`
	Record    *CanonicalFinancialRecord `json:"record,omitempty"`
	Report    *AnalysisReport           `json:"report,omitempty"`
}

// FileSummary describes one uploaded document after text extraction.
type FileSummary struct {
	FileName   string `json:"file_name"`
	Characters int    `json:"characters"`
	Preview    string `json:"preview"`
}
