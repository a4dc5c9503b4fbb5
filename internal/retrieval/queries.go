package retrieval

import (
	"fmt"
	"sort"
)

// MetricQuery pairs a retrieval query with a human-readable description
// of the underwriting concern it covers.
type MetricQuery struct {
	Query       string
	Description string
}

// QueryCatalog maps risk metric names to the retrieval queries that pull
// the relevant guideline passages. The DTI entries are deliberately
// redundant: the three phrasings surface different parts of dense
// guideline PDFs.
var QueryCatalog = map[string]MetricQuery{
	"dti_ratio": {
		Query:       "What are the specific DTI ratio limits and thresholds for conventional mortgage loans? Provide the maximum front-end DTI (housing ratio) percentage, the maximum back-end DTI (total debt ratio) percentage, compensating factors that allow higher DTI ratios, numerical ranges for different loan types, minimum credit score requirements for different DTI levels, and any exceptions or special programs. Include exact percentages.",
		Description: "Debt-to-Income (DTI) ratio requirements including front-end housing ratio and back-end total debt ratio with specific numerical thresholds",
	},
	"dti_ratio_detailed": {
		Query:       "Extract specific DTI ratio numbers and ranges from the mortgage guidelines. Find front-end DTI maximum percentages, back-end DTI maximum percentages, qualifying ratios, compensating factor thresholds, credit score requirements for different DTI levels, and any exceptions. Provide exact numerical values and percentage ranges.",
		Description: "Detailed numerical DTI ratio requirements and thresholds for risk assessment",
	},
	"dti_ratio_by_credit": {
		Query:       "What are the DTI ratio limits broken down by credit score tiers? Provide maximum DTI percentages for different FICO score ranges (e.g., 760+, 720-759, 680-719) and any compensating factors that allow higher ratios at each credit level.",
		Description: "DTI ratio limits by credit score tiers with specific numerical thresholds",
	},
	"ltv_ratio": {
		Query:       "What are the LTV limits for conventional mortgage loans? Include requirements for primary residence, different property types, and PMI thresholds. Specify any differences for purchase versus refinance.",
		Description: "Loan-to-Value (LTV) ratio limits for different mortgage types and scenarios",
	},
	"credit_score": {
		Query:       "What are the minimum FICO score requirements for conventional mortgage loans? Include credit score tiers, pricing adjustments, and waiting periods after bankruptcy or foreclosure.",
		Description: "Credit score requirements, tiers, and history requirements for mortgage approval",
	},
	"down_payment": {
		Query:       "What are the minimum down payment requirements for conventional mortgages? Include requirements for different property types, allowable sources of funds, and gift money policies.",
		Description: "Down payment requirements, acceptable sources, and documentation needs",
	},
	"income_verification": {
		Query:       "What documentation is required to verify income for conventional mortgage loans? Include requirements for W-2 employees, self-employed borrowers, and other income types.",
		Description: "Income verification requirements and acceptable documentation types",
	},
	"property_eligibility": {
		Query:       "What are the property eligibility requirements for conventional mortgages? Include property types, occupancy requirements, and appraisal standards.",
		Description: "Property eligibility criteria and appraisal requirements",
	},
	"mortgage_insurance": {
		Query:       "What are the mortgage insurance requirements for conventional loans? Include LTV thresholds, coverage requirements, and options for removal.",
		Description: "Private Mortgage Insurance (PMI) requirements and guidelines",
	},
}

// MetricNames lists the catalog keys in a stable order.
func MetricNames() []string {
	names := make([]string, 0, len(QueryCatalog))
	for name := range QueryCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupQuery resolves a metric name against the catalog.
func LookupQuery(metric string) (MetricQuery, error) {
	q, ok := QueryCatalog[metric]
	if !ok {
		return MetricQuery{}, fmt.Errorf("retrieval: unknown risk metric %q, must be one of %v", metric, MetricNames())
	}
	return q, nil
}
