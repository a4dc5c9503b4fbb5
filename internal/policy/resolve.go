package policy

import (
	"math"
	"sort"

	"github.com/harborlend/underwriteai/pkg/models"
)

// DefaultCeiling is the standard 43% back-end DTI ceiling. DTI levels
// are graded against it whenever the parsed policy gives no
// tier-specific limit for the borrower's score.
const DefaultCeiling = 43.0

// ResolveLimit selects the DTI limit for the highest credit-score
// breakpoint at or below score. A nil result means the policy text
// yielded no applicable tier; callers must treat that as unknown
// rather than a failure.
func ResolveLimit(table *models.PolicyThresholdTable, score int) *float64 {
	if table == nil || len(table.CreditTierLimits) == 0 {
		return nil
	}
	breakpoints := make([]int, 0, len(table.CreditTierLimits))
	for bp := range table.CreditTierLimits {
		breakpoints = append(breakpoints, bp)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(breakpoints)))
	for _, bp := range breakpoints {
		if score >= bp {
			limit := table.CreditTierLimits[bp]
			return &limit
		}
	}
	return nil
}

// Assess compares a borrower's back-end DTI against the resolved policy
// limit. WithinLimits and Margin stay nil when no limit applies.
func Assess(table *models.PolicyThresholdTable, currentDTI float64, creditScore int) *models.DTIAssessment {
	a := &models.DTIAssessment{
		CurrentDTI:      round2(currentDTI),
		CreditScore:     creditScore,
		ApplicableLimit: ResolveLimit(table, creditScore),
		DTILevel:        dtiLevel(currentDTI),
		CreditTier:      creditTier(creditScore),
	}
	if a.ApplicableLimit != nil {
		within := currentDTI <= *a.ApplicableLimit
		margin := round2(*a.ApplicableLimit - currentDTI)
		a.WithinLimits = &within
		a.Margin = &margin
	}
	return a
}

func dtiLevel(dti float64) string {
	switch {
	case dti > DefaultCeiling:
		return "high"
	case dti > 36:
		return "medium"
	default:
		return "low"
	}
}

func creditTier(score int) string {
	switch {
	case score >= 760:
		return "excellent"
	case score >= 700:
		return "good"
	case score >= 650:
		return "fair"
	default:
		return "poor"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
