package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/harborlend/underwriteai/internal/agent/prompts"
	"github.com/harborlend/underwriteai/internal/llm"
	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

// DecisionAgent drafts the structured underwriting decision from the
// deterministic evaluation and the retrieved policy context. It carries a
// calculate_risk_metrics tool so the model can price alternate scenarios
// (a smaller loan, higher savings) without recomputing ratios by hand.
type DecisionAgent struct {
	*BaseAgent
	engine *underwrite.Engine
}

// NewDecisionAgent creates the decision agent backed by the given ratio engine.
func NewDecisionAgent(provider llm.LLMProvider, engine *underwrite.Engine, opts *llm.ChatOptions) *DecisionAgent {
	agent := &DecisionAgent{engine: engine}

	agent.BaseAgent = NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentDecision,
		Role:         "Decision Underwriter — structured loan decisions from evaluated profiles",
		SystemPrompt: prompts.DecisionSystemPrompt,
		Provider:     provider,
		Tools:        []llm.Tool{RiskMetricsTool(engine)},
		ChatOptions:  opts,
		MemorySize:   20,
		MaxToolIter:  4,
	})

	return agent
}

// Decide produces the underwriting decision for an evaluated borrower.
func (a *DecisionAgent) Decide(ctx context.Context, in prompts.DecisionTaskInput) (*models.UnderwritingDecision, error) {
	result, err := a.Process(ctx, prompts.DecisionTask(in))
	if err != nil {
		return nil, fmt.Errorf("decision agent: %w", err)
	}
	return ParseDecision(result.Content)
}

// ParseDecision parses the decision JSON out of model output and normalizes
// the decision type. Anything outside Approve/Deny becomes Refer: an
// unrecognized label means the model output is not trustworthy enough to
// act on automatically.
func ParseDecision(content string) (*models.UnderwritingDecision, error) {
	jsonStr, ok := extractJSONObject(content)
	if !ok {
		return nil, ErrNoJSON
	}

	var decision models.UnderwritingDecision
	if err := json.Unmarshal([]byte(jsonStr), &decision); err != nil {
		return nil, fmt.Errorf("agent: parse decision output: %w", err)
	}

	switch decision.DecisionType {
	case models.DecisionApprove, models.DecisionDeny, models.DecisionRefer:
	default:
		log.Printf("agent: unexpected decision type %q, downgrading to Refer", decision.DecisionType)
		decision.DecisionType = models.DecisionRefer
	}

	return &decision, nil
}

// RiskMetricsTool exposes the deterministic ratio engine as an LLM tool.
// The handler cleans the supplied fields exactly like the main pipeline,
// so a partially specified scenario still evaluates.
func RiskMetricsTool(engine *underwrite.Engine) llm.Tool {
	return llm.Tool{
		Name: "calculate_risk_metrics",
		Description: "Calculate the six mortgage risk ratios (DTI, back-end DTI, LTV, credit utilization, " +
			"savings-to-income, net-worth-to-income) and risk flags for a borrower scenario",
		Parameters: llm.ObjectSchema("Borrower financial fields in dollars",
			map[string]*llm.JSONSchema{
				"gross_annual_income":     llm.NumberProp("Gross annual income before taxes"),
				"monthly_net_income":      llm.NumberProp("Monthly take-home pay after taxes"),
				"monthly_housing_expense": llm.NumberProp("New monthly housing payment (PITI)"),
				"monthly_total_debt":      llm.NumberProp("All monthly debt payments including housing"),
				"savings":                 llm.NumberProp("Total liquid assets"),
				"credit_used":             llm.NumberProp("Total credit card balances owed"),
				"credit_limit":            llm.NumberProp("Total credit card limits"),
				"loan_amount":             llm.NumberProp("Requested mortgage loan amount"),
				"property_value":          llm.NumberProp("Property purchase price or appraised value"),
			},
			"gross_annual_income", "property_value",
		),
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var raw models.RawFinancialInput
			if err := json.Unmarshal(args, &raw); err != nil {
				return "", fmt.Errorf("parse args: %w", err)
			}

			record, err := underwrite.Clean(raw)
			if err != nil {
				return "", err
			}

			outcome := engine.Evaluate(record)
			data, _ := json.MarshalIndent(map[string]any{
				"ratios":     outcome.Ratios,
				"risk_flags": outcome.Profile.RiskFlags,
				"degraded":   outcome.Degraded,
			}, "", "  ")
			return string(data), nil
		},
	}
}
