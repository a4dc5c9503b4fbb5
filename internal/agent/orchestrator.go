package agent

import (
	"context"
	"encoding/json"
	"log"

	"github.com/harborlend/underwriteai/internal/agent/prompts"
	"github.com/harborlend/underwriteai/internal/llm"
	"github.com/harborlend/underwriteai/internal/policy"
	"github.com/harborlend/underwriteai/internal/retrieval"
	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

// Pipeline stages broadcast to progress listeners.
const (
	StageExtractingFields = "extracting_fields"
	StageCleaning         = "cleaning"
	StageEvaluating       = "evaluating"
	StageRetrievingPolicy = "retrieving_policy"
	StageAssessing        = "assessing"
	StageDeciding         = "deciding"
	StageComplete         = "complete"
)

// Orchestrator runs the full underwriting pipeline: extraction, cleaning,
// ratio evaluation, policy retrieval and assessment, and the final decision.
// LLM failures degrade the report rather than failing the request; only
// structurally invalid input is an error.
type Orchestrator struct {
	extraction *ExtractionAgent
	decision   *DecisionAgent
	engine     *underwrite.Engine
	extractor  policy.ThresholdExtractor
	retriever  *retrieval.Retriever // nil when no policy index is loaded

	// OnStage, when set, receives pipeline stage updates.
	OnStage func(stage string)
}

// OrchestratorConfig holds the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	Provider    llm.LLMProvider
	Engine      *underwrite.Engine
	Extractor   policy.ThresholdExtractor
	Retriever   *retrieval.Retriever
	ChatOptions *llm.ChatOptions
}

// NewOrchestrator creates an orchestrator with both agents wired up.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	engine := cfg.Engine
	if engine == nil {
		engine = underwrite.NewEngine(underwrite.DefaultThresholds())
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = policy.NewRegexExtractor()
	}

	return &Orchestrator{
		extraction: NewExtractionAgent(cfg.Provider, cfg.ChatOptions),
		decision:   NewDecisionAgent(cfg.Provider, engine, cfg.ChatOptions),
		engine:     engine,
		extractor:  extractor,
		retriever:  cfg.Retriever,
	}
}

// AnalyzeOptions tunes a pipeline run.
type AnalyzeOptions struct {
	// CreditScore enables the policy DTI assessment when positive.
	CreditScore int
	// SkipDecision stops after assessment, leaving Report.Decision nil.
	SkipDecision bool
}

// AnalyzeText runs the pipeline over combined document text.
func (o *Orchestrator) AnalyzeText(ctx context.Context, text string, opts AnalyzeOptions) (*models.AnalysisReport, *models.CanonicalFinancialRecord, error) {
	o.stage(StageExtractingFields)

	raw, err := o.extraction.Extract(ctx, text)
	if err != nil {
		// Degrade: an empty mapping cleans to all zeros, which the engine
		// turns into the safe-default table with a single explanatory flag.
		log.Printf("agent: field extraction failed, degrading: %v", err)
		raw = models.RawFinancialInput{}
	}

	return o.analyzeRaw(ctx, raw, opts)
}

// AnalyzeRecord runs the pipeline over an already-extracted field mapping,
// skipping the extraction agent. value must be a JSON object; anything else
// is the caller's error.
func (o *Orchestrator) AnalyzeRecord(ctx context.Context, value any, opts AnalyzeOptions) (*models.AnalysisReport, *models.CanonicalFinancialRecord, error) {
	o.stage(StageCleaning)
	record, err := underwrite.CleanAny(value)
	if err != nil {
		return nil, nil, err
	}
	return o.finish(ctx, record, opts)
}

func (o *Orchestrator) analyzeRaw(ctx context.Context, raw models.RawFinancialInput, opts AnalyzeOptions) (*models.AnalysisReport, *models.CanonicalFinancialRecord, error) {
	o.stage(StageCleaning)
	record, err := underwrite.Clean(raw)
	if err != nil {
		return nil, nil, err
	}
	return o.finish(ctx, record, opts)
}

func (o *Orchestrator) finish(ctx context.Context, record *models.CanonicalFinancialRecord, opts AnalyzeOptions) (*models.AnalysisReport, *models.CanonicalFinancialRecord, error) {
	o.stage(StageEvaluating)
	outcome := o.engine.Evaluate(record)

	report := &models.AnalysisReport{
		Ratios:      outcome.Ratios,
		RiskProfile: outcome.Profile,
		Degraded:    outcome.Degraded,
		Reason:      outcome.Reason,
	}

	snippets := o.fetchPolicy(ctx, report, opts)

	if !opts.SkipDecision {
		o.stage(StageDeciding)
		o.decide(ctx, record, report, snippets)
	}

	o.stage(StageComplete)
	return report, record, nil
}

// fetchPolicy retrieves DTI guideline snippets, parses thresholds, and runs
// the assessment when a credit score is known. Retrieval failures are logged
// and leave the policy sections empty.
func (o *Orchestrator) fetchPolicy(ctx context.Context, report *models.AnalysisReport, opts AnalyzeOptions) []string {
	if o.retriever == nil {
		return nil
	}

	o.stage(StageRetrievingPolicy)
	snippets, err := o.retriever.DTISnippets(ctx)
	if err != nil {
		log.Printf("agent: policy retrieval failed: %v", err)
		return nil
	}

	table := o.extractor.Extract(snippets)
	report.Policy = table

	if opts.CreditScore > 0 {
		o.stage(StageAssessing)
		report.Assessment = policy.Assess(table, report.Ratios.DTI, opts.CreditScore)
	}

	return snippets
}

// decide runs the decision agent. A decision failure leaves Report.Decision
// nil; the deterministic sections of the report still stand.
func (o *Orchestrator) decide(ctx context.Context, record *models.CanonicalFinancialRecord, report *models.AnalysisReport, snippets []string) {
	recordJSON, _ := json.MarshalIndent(record, "", "  ")
	ratiosJSON, _ := json.MarshalIndent(report.Ratios, "", "  ")

	in := prompts.DecisionTaskInput{
		RecordJSON:     string(recordJSON),
		RatiosJSON:     string(ratiosJSON),
		RiskFlags:      report.RiskProfile.RiskFlags,
		Degraded:       report.Degraded,
		DegradedReason: report.Reason,
		PolicySnippets: snippets,
	}
	if report.Assessment != nil {
		assessmentJSON, _ := json.MarshalIndent(report.Assessment, "", "  ")
		in.AssessmentJSON = string(assessmentJSON)
	}

	decision, err := o.decision.Decide(ctx, in)
	if err != nil {
		log.Printf("agent: decision drafting failed: %v", err)
		return
	}
	report.Decision = decision
}

// ExtractionAgent returns the field-extraction agent.
func (o *Orchestrator) ExtractionAgent() *ExtractionAgent { return o.extraction }

// DecisionAgent returns the decision agent.
func (o *Orchestrator) DecisionAgent() *DecisionAgent { return o.decision }

func (o *Orchestrator) stage(stage string) {
	if o.OnStage != nil {
		o.OnStage(stage)
	}
}
