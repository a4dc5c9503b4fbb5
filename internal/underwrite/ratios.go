package underwrite

import (
	"fmt"
	"log"
	"math"

	"github.com/harborlend/underwriteai/pkg/models"
)

// Thresholds holds the risk-flag cutoffs applied by the engine. They are
// passed in explicitly rather than read from package globals so tests and
// alternate policy regimes can supply their own values.
type Thresholds struct {
	MaxDTI               float64 // flag when front-end DTI exceeds this
	MaxBackEndDTI        float64 // flag when back-end DTI exceeds this
	MaxLTV               float64 // flag when LTV exceeds this
	MaxCreditUtilization float64 // flag when utilization exceeds this
	MinSavingsToIncome   float64 // flag when savings/income falls below this
	MinNetWorthToIncome  float64 // flag when net-worth/income falls below this
}

// DefaultThresholds returns the industry-standard cutoffs: 43% front-end
// DTI, 36% back-end, 80% LTV, 30% utilization, 10% savings floor, and a
// zero net-worth floor.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxDTI:               43,
		MaxBackEndDTI:        36,
		MaxLTV:               80,
		MaxCreditUtilization: 30,
		MinSavingsToIncome:   10,
		MinNetWorthToIncome:  0,
	}
}

// ValidationError reports a precondition violation for a named field.
// It never escapes Evaluate; the engine converts it into a degraded outcome.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("underwrite: %s %s", e.Field, e.Reason)
}

// Outcome is the result of an evaluation. A degraded outcome carries the
// safe-default ratio table and a single explanatory risk flag instead of a
// genuine computation; callers can branch on Degraded without inspecting
// flag text.
type Outcome struct {
	Ratios   models.RatioSet
	Profile  models.RiskProfile
	Degraded bool
	Reason   string
}

// Engine computes the six underwriting ratios and risk flags from a
// canonical record. Stateless and safe for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Thresholds returns the cutoffs the engine was built with.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate computes ratios and risk flags for a record. It never returns an
// error: precondition violations (non-positive income, negative balances)
// degrade to the fixed safe-default table so an underwriting request can
// always render some structured answer.
func (e *Engine) Evaluate(rec *models.CanonicalFinancialRecord) Outcome {
	if err := validate(rec); err != nil {
		log.Printf("underwrite: evaluation degraded: %v", err)
		return degradedOutcome(err)
	}

	monthlyGross := rec.GrossAnnualIncome / 12

	dti := 100.0
	backEnd := 100.0
	if monthlyGross > 0 {
		dti = rec.MonthlyHousingExpense / monthlyGross * 100
		backEnd = (rec.MonthlyHousingExpense + rec.MonthlyTotalDebt) / monthlyGross * 100
	}

	ltv := 100.0
	if rec.PropertyValue > 0 {
		ltv = rec.LoanAmount / rec.PropertyValue * 100
	}

	// Zero credit limit means no utilization is possible.
	utilization := 0.0
	if rec.CreditLimit > 0 {
		utilization = rec.CreditUsed / rec.CreditLimit * 100
	}

	savingsToIncome := 0.0
	netWorthToIncome := 0.0
	if rec.GrossAnnualIncome > 0 {
		savingsToIncome = rec.Savings / rec.GrossAnnualIncome * 100
		netWorth := rec.Savings - rec.CreditUsed - rec.LoanAmount
		netWorthToIncome = netWorth / rec.GrossAnnualIncome * 100
	}

	ratios := models.RatioSet{
		DTI:               round1(clamp(dti, 0, 100)),
		BackEndDTI:        round1(clamp(backEnd, 0, 100)),
		LTV:               round1(clamp(ltv, 0, 100)),
		CreditUtilization: round1(clamp(utilization, 0, 100)),
		SavingsToIncome:   round1(clamp(savingsToIncome, -100, 1000)),
		NetWorthToIncome:  round1(clamp(netWorthToIncome, -1000, 1000)),
	}

	profile := models.RiskProfile{
		EmploymentTitle:   rec.EmploymentTitle,
		EmployerName:      rec.EmployerName,
		GrossAnnualIncome: rec.GrossAnnualIncome,
		MonthlyNetIncome:  rec.MonthlyNetIncome,
		RiskFlags:         []string{},
	}

	// Flags are checked in a fixed order against the unclamped, unrounded
	// values so a 140% computed DTI still reads as exceeding 43%.
	t := e.thresholds
	if dti > t.MaxDTI {
		profile.RiskFlags = append(profile.RiskFlags,
			fmt.Sprintf("DTI ratio (%.1f%%) exceeds maximum threshold of %g%%", dti, t.MaxDTI))
	}
	if backEnd > t.MaxBackEndDTI {
		profile.RiskFlags = append(profile.RiskFlags,
			fmt.Sprintf("Back-End DTI (%.1f%%) exceeds recommended maximum of %g%%", backEnd, t.MaxBackEndDTI))
	}
	if ltv > t.MaxLTV {
		profile.RiskFlags = append(profile.RiskFlags,
			fmt.Sprintf("LTV ratio (%.1f%%) exceeds standard maximum of %g%%", ltv, t.MaxLTV))
	}
	if utilization > t.MaxCreditUtilization {
		profile.RiskFlags = append(profile.RiskFlags,
			fmt.Sprintf("Credit utilization (%.1f%%) exceeds recommended %g%%", utilization, t.MaxCreditUtilization))
	}
	if savingsToIncome < t.MinSavingsToIncome {
		profile.RiskFlags = append(profile.RiskFlags,
			fmt.Sprintf("Low savings relative to income (%.1f%%)", savingsToIncome))
	}
	if netWorthToIncome < t.MinNetWorthToIncome {
		profile.RiskFlags = append(profile.RiskFlags,
			"Negative net worth relative to income")
	}

	return Outcome{Ratios: ratios, Profile: profile}
}

// validate checks the engine preconditions and returns a ValidationError
// naming the first offending field.
//
// Note the deliberate mismatch with Clean: the cleaner lets negative
// credit_used and loan_amount through, and this check then rejects them.
// That combination is preserved from the reference behavior; callers get a
// degraded outcome rather than a silently zeroed field.
func validate(rec *models.CanonicalFinancialRecord) error {
	switch {
	case rec == nil:
		return &ValidationError{Field: "record", Reason: "is missing"}
	case rec.GrossAnnualIncome <= 0:
		return &ValidationError{Field: "gross_annual_income", Reason: "must be positive"}
	case rec.PropertyValue <= 0:
		return &ValidationError{Field: "property_value", Reason: "must be positive"}
	case rec.LoanAmount < 0:
		return &ValidationError{Field: "loan_amount", Reason: "cannot be negative"}
	case rec.CreditLimit < 0:
		return &ValidationError{Field: "credit_limit", Reason: "cannot be negative"}
	case rec.CreditUsed < 0:
		return &ValidationError{Field: "credit_used", Reason: "cannot be negative"}
	case rec.MonthlyHousingExpense < 0:
		return &ValidationError{Field: "monthly_housing_expense", Reason: "cannot be negative"}
	case rec.MonthlyTotalDebt < 0:
		return &ValidationError{Field: "monthly_total_debt", Reason: "cannot be negative"}
	case rec.Savings < 0:
		return &ValidationError{Field: "savings", Reason: "cannot be negative"}
	}
	return nil
}

// degradedOutcome builds the fixed safe-default table: ratios pinned at
// their worst bounded value (100%, or 0% for the income-relative ratios)
// and a single flag describing the failure.
func degradedOutcome(err error) Outcome {
	return Outcome{
		Ratios: models.RatioSet{
			DTI:               100,
			BackEndDTI:        100,
			LTV:               100,
			CreditUtilization: 100,
			SavingsToIncome:   0,
			NetWorthToIncome:  0,
		},
		Profile: models.RiskProfile{
			EmploymentTitle: models.NotAvailable,
			EmployerName:    models.NotAvailable,
			RiskFlags:       []string{fmt.Sprintf("Unable to calculate risk metrics: %v", err)},
		},
		Degraded: true,
		Reason:   err.Error(),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
