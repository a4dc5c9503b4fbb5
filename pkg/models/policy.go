package models

// PolicyThresholdTable is the structured result of parsing a batch of
// free-text policy snippets. Rebuilt on every query; exact-value set
// semantics only, no provenance.
type PolicyThresholdTable struct {
	// FrontEndLimits and BackEndLimits are deduplicated and sorted ascending.
	FrontEndLimits []float64 `json:"front_end_limits"`
	BackEndLimits  []float64 `json:"back_end_limits"`

	// CreditTierLimits maps a FICO breakpoint to the DTI ceiling that applies
	// at or above that score. Later snippets overwrite earlier ones.
	CreditTierLimits map[int]float64 `json:"credit_tier_limits"`

	// CompensatingFactors and Exceptions retain the full snippet text of any
	// snippet containing the corresponding language.
	CompensatingFactors []string `json:"compensating_factors"`
	Exceptions          []string `json:"exceptions"`
}

// Empty reports whether the table contains no parsed data at all.
func (t *PolicyThresholdTable) Empty() bool {
	return len(t.FrontEndLimits) == 0 && len(t.BackEndLimits) == 0 &&
		len(t.CreditTierLimits) == 0 && len(t.CompensatingFactors) == 0 &&
		len(t.Exceptions) == 0
}

// DTIAssessment relates an applicant's actual DTI and credit score to the
// parsed policy thresholds.
type DTIAssessment struct {
	CurrentDTI  float64 `json:"current_dti"`
	CreditScore int     `json:"credit_score"`

	// ApplicableLimit is the ceiling for the highest credit-tier breakpoint at
	// or below the applicant's score, or nil when no breakpoint qualifies.
	ApplicableLimit *float64 `json:"applicable_limit"`

	DTILevel   string `json:"dti_level"`   // "low", "medium", "high"
	CreditTier string `json:"credit_tier"` // "excellent", "good", "fair", "poor"

	// WithinLimits and Margin are nil when the applicable limit is unknown.
	WithinLimits *bool    `json:"within_limits"`
	Margin       *float64 `json:"margin"`
}

// PolicyContext groups retrieved snippet text per retrieval query, for
// display and for narrative generation.
type PolicyContext struct {
	Metric   string   `json:"metric"`
	Query    string   `json:"query"`
	Snippets []string `json:"snippets"`
}
