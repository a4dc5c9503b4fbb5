// Package prompts holds the system prompts and task builders for the
// underwriting agents. Prompt text lives here so agents stay thin and the
// wording can be reviewed in one place.
package prompts

import (
	"fmt"
	"strings"
)

// Agent names used across the orchestrator and API.
const (
	AgentExtraction = "field_extractor"
	AgentDecision   = "decision_underwriter"
)

// ExtractionSystemPrompt configures the field-extraction agent.
const ExtractionSystemPrompt = `You are a mortgage underwriting specialist extracting financial data for home loan approval.
You read borrower documents (pay stubs, bank statements, loan estimates, credit reports) and
return exactly one JSON object with the requested fields. You never add commentary.`

// DecisionSystemPrompt configures the decision agent.
const DecisionSystemPrompt = `You are a senior mortgage loan underwriter analyzing a borrower's financial profile.
Provide a thorough but compassionate analysis that treats each borrower as a person with
dreams and goals, not just numbers on a page.

Use only the provided input data and financial ratios. Do not invent or recalculate values.
You have a calculate_risk_metrics tool available if you need ratios for a modified scenario
(for example a lower loan amount); never recalculate by hand.

Always return exactly one JSON object and nothing else.`

// ExtractionTask builds the extraction task for a block of combined document text.
func ExtractionTask(text string) string {
	var sb strings.Builder

	sb.WriteString("DOCUMENT TEXT:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nEXTRACTION RULES:\n")
	sb.WriteString(`Extract the following 11 values as numbers or text (as specified):
1. employment_title: Borrower's job title or occupation (e.g., Software Engineer, Nurse, Manager)
2. employer_name: Name of the borrower's current employer or company
3. gross_annual_income: Borrower total annual income BEFORE taxes (multiply bi-weekly pay by 26 or monthly by 12)
4. monthly_net_income: Monthly take-home pay AFTER taxes and deductions
5. monthly_housing_expense: NEW mortgage payment including Principal, Interest, Taxes, Insurance, PMI (NOT current rent)
6. monthly_total_debt: ALL monthly debt payments (new mortgage + credit cards + student loans + car loans)
7. savings: Total liquid assets available (checking + savings account balances)
8. credit_used: Current total credit card balances owed
9. credit_limit: Total credit card limits available
10. loan_amount: Requested mortgage loan amount (purchase price minus down payment)
11. property_value: Property purchase price or appraised value

CRITICAL INSTRUCTIONS:
- Use GROSS annual income (before taxes) for income calculations
- Use NEW mortgage payment (Principal+Interest+Taxes+Insurance+PMI) NOT current rent for monthly_housing_expense
- Include ALL debt payments (mortgage + existing debt) for monthly_total_debt
- If bi-weekly pay is given, multiply by 26 for annual income
- If property details show "Total Monthly Housing Payment" or "PITI", use that number

Return ONLY the JSON object with these exact field names:

{
  "employment_title": "[text]",
  "employer_name": "[text]",
  "gross_annual_income": [number],
  "monthly_net_income": [number],
  "monthly_housing_expense": [number],
  "monthly_total_debt": [number],
  "savings": [number],
  "credit_used": [number],
  "credit_limit": [number],
  "loan_amount": [number],
  "property_value": [number]
}

NO explanations, NO additional text, ONLY the JSON object.`)

	return sb.String()
}

// DecisionTaskInput carries everything the decision agent needs to draft a
// structured underwriting decision.
type DecisionTaskInput struct {
	RecordJSON     string   // canonical financial record, pretty-printed
	RatiosJSON     string   // the six ratios as percentages
	RiskFlags      []string // ordered risk flags from the ratio engine
	Degraded       bool
	DegradedReason string
	AssessmentJSON string   // DTI assessment against policy thresholds, may be empty
	PolicySnippets []string // retrieved guideline excerpts, may be empty
}

// DecisionTask builds the decision task from evaluated borrower data.
func DecisionTask(in DecisionTaskInput) string {
	var sb strings.Builder

	sb.WriteString("Analyze this borrower and return the underwriting decision JSON.\n\n")
	sb.WriteString("## Borrower Financials\n")
	sb.WriteString(in.RecordJSON)
	sb.WriteString("\n\n## Financial Ratios (percentages, already computed)\n")
	sb.WriteString(in.RatiosJSON)
	sb.WriteString("\n")

	if in.Degraded {
		sb.WriteString("\nNOTE: ratio computation was degraded (")
		sb.WriteString(in.DegradedReason)
		sb.WriteString("); the ratio table above is a safe default, not a genuine computation. ")
		sb.WriteString("A degraded profile must not be approved outright.\n")
	}

	if len(in.RiskFlags) > 0 {
		sb.WriteString("\n## Risk Flags\n")
		for _, f := range in.RiskFlags {
			sb.WriteString("- ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
	}

	if in.AssessmentJSON != "" {
		sb.WriteString("\n## Policy DTI Assessment\n")
		sb.WriteString(in.AssessmentJSON)
		sb.WriteString("\n")
	}

	if len(in.PolicySnippets) > 0 {
		sb.WriteString("\n## Relevant Underwriting Guidelines\n")
		for i, s := range in.PolicySnippets {
			sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, s))
		}
	}

	sb.WriteString(`
## Instructions
1. Borrower Summary: one line, e.g. "Marketing Manager at Acme earning $120K/year with $2,500 housing cost".
2. Risk Assessment: one label per ratio in the order given, each "Low Risk", "Medium Risk" or "High Risk", inferred from typical mortgage thresholds and the guidelines above.
3. Decision Type, exactly one of:
   - "Approve": strong income, low DTI/LTV, healthy savings.
   - "Refer": data unclear, conflicting, degraded, or borderline. Requires human underwriter judgement.
   - "Deny": unsustainable DTI, poor savings, excessive LTV, or weak credit indicators.
4. Loan Decision Summary: one line, at most 20 words, professionally written.
5. Follow Up: one actionable next step for the borrower (specific numbers, not vague advice).

Return ONLY this JSON object:

{
  "decision_type": "Approve" | "Refer" | "Deny",
  "loan_decision_summary": "...",
  "borrower_summary": "...",
  "risk_assessment": ["...", "..."],
  "follow_up": "..."
}`)

	return sb.String()
}
