package models

// RatioSet holds the six underwriting ratios as percentages, each clamped
// to its documented range and rounded to one decimal place.
type RatioSet struct {
	DTI               float64 `json:"DTI"`               // [0, 100]
	BackEndDTI        float64 `json:"BackEndDTI"`        // [0, 100]
	LTV               float64 `json:"LTV"`               // [0, 100]
	CreditUtilization float64 `json:"CreditUtilization"` // [0, 100]
	SavingsToIncome   float64 `json:"SavingsToIncome"`   // [-100, 1000]
	NetWorthToIncome  float64 `json:"NetWorthToIncome"`  // [-1000, 1000]
}

// RiskProfile carries borrower employment metadata together with the
// ordered risk-flag list produced alongside the ratios.
type RiskProfile struct {
	EmploymentTitle   string   `json:"employment_title"`
	EmployerName      string   `json:"employer_name"`
	GrossAnnualIncome float64  `json:"gross_annual_income"`
	MonthlyNetIncome  float64  `json:"monthly_net_income"`
	RiskFlags         []string `json:"risk_flags"`
}

// DecisionType classifies the final underwriting decision.
type DecisionType string

const (
	DecisionApprove DecisionType = "Approve"
	DecisionDeny    DecisionType = "Deny"
	DecisionRefer   DecisionType = "Refer"
)

// UnderwritingDecision is the structured narrative decision produced by the
// decision agent from ratios, risk flags, and policy context.
type UnderwritingDecision struct {
	DecisionType    DecisionType `json:"decision_type"`
	Summary         string       `json:"loan_decision_summary"` // <= 20 words
	BorrowerSummary string       `json:"borrower_summary"`
	RiskAssessment  []string     `json:"risk_assessment,omitempty"`
	FollowUp        string       `json:"follow_up,omitempty"`
}

// AnalysisReport is the full result returned by the analysis pipeline:
// deterministic ratios and risk profile, the retrieved policy context,
// the threshold assessment, and the LLM-generated decision.
type AnalysisReport struct {
	Ratios      RatioSet              `json:"ratios"`
	RiskProfile RiskProfile           `json:"risk_profile"`
	Degraded    bool                  `json:"degraded"`
	Reason      string                `json:"degraded_reason,omitempty"`
	Policy      *PolicyThresholdTable `json:"policy_thresholds,omitempty"`
	Assessment  *DTIAssessment        `json:"dti_assessment,omitempty"`
	Decision    *UnderwritingDecision `json:"decision,omitempty"`
}
