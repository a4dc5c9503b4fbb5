package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/harborlend/underwriteai/internal/agent/prompts"
	"github.com/harborlend/underwriteai/internal/llm"
	"github.com/harborlend/underwriteai/pkg/models"
)

// ErrNoJSON indicates the model response contained no parseable JSON object.
var ErrNoJSON = errors.New("agent: no JSON object in model response")

// ExtractionAgent converts combined borrower document text into the raw
// financial field mapping consumed by the data cleaner. It deliberately
// produces RawFinancialInput rather than a typed record: downstream cleaning
// owns all defaulting and coercion, so the agent never needs to be strict
// about what the model returned.
type ExtractionAgent struct {
	*BaseAgent
}

// NewExtractionAgent creates the field-extraction agent.
func NewExtractionAgent(provider llm.LLMProvider, opts *llm.ChatOptions) *ExtractionAgent {
	agent := &ExtractionAgent{}

	agent.BaseAgent = NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentExtraction,
		Role:         "Field Extractor — borrower financials from document text",
		SystemPrompt: prompts.ExtractionSystemPrompt,
		Provider:     provider,
		ChatOptions:  opts,
		MemorySize:   20,
		MaxToolIter:  2,
	})

	return agent
}

// Extract runs the 11-field extraction over combined document text.
// The returned mapping is untrusted; callers pass it through the cleaner.
func (a *ExtractionAgent) Extract(ctx context.Context, text string) (models.RawFinancialInput, error) {
	result, err := a.Process(ctx, prompts.ExtractionTask(text))
	if err != nil {
		return nil, fmt.Errorf("extraction agent: %w", err)
	}

	raw, err := ParseRawFinancialInput(result.Content)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ParseRawFinancialInput parses a raw financial mapping out of model output,
// tolerating markdown fences and surrounding prose. Missing fields are left
// absent; the cleaner defaults them.
func ParseRawFinancialInput(content string) (models.RawFinancialInput, error) {
	jsonStr, ok := extractJSONObject(content)
	if !ok {
		return nil, ErrNoJSON
	}

	var raw models.RawFinancialInput
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("agent: parse extraction output: %w", err)
	}

	for _, field := range models.RequiredFields {
		if _, present := raw[field]; !present {
			log.Printf("agent: extraction omitted field %q", field)
		}
	}
	return raw, nil
}
