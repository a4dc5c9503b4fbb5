// UnderwriteAI — agentic mortgage underwriting assistant.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborlend/underwriteai/api"
	"github.com/harborlend/underwriteai/internal/agent"
	"github.com/harborlend/underwriteai/internal/config"
	"github.com/harborlend/underwriteai/internal/document"
	"github.com/harborlend/underwriteai/internal/llm"
	"github.com/harborlend/underwriteai/internal/policy"
	"github.com/harborlend/underwriteai/internal/report"
	"github.com/harborlend/underwriteai/internal/retrieval"
	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "underwriteai",
	Short: "UnderwriteAI — agentic mortgage underwriting assistant",
	Long: `UnderwriteAI
A Go-based agentic system for mortgage loan underwriting: extracts borrower
financials from documents, computes risk ratios with deterministic tooling,
grounds DTI limits in retrieved policy guidelines, and drafts a structured
Approve / Refer / Deny decision.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("UnderwriteAI %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Run the full underwriting pipeline on borrower documents",
	Long: `Extract borrower financials from the given documents (.pdf, .txt, .md),
compute risk ratios, optionally ground DTI limits in indexed policy
guidelines, and draft an underwriting decision.

Examples:
  underwriteai analyze paystub.pdf bank_statement.pdf
  underwriteai analyze application.txt --credit-score 720
  underwriteai analyze docs/*.pdf --skip-decision --json
  underwriteai analyze paystub.pdf --html report.html --pdf report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creditScore, _ := cmd.Flags().GetInt("credit-score")
		skipDecision, _ := cmd.Flags().GetBool("skip-decision")
		asJSON, _ := cmd.Flags().GetBool("json")
		htmlOut, _ := cmd.Flags().GetString("html")
		pdfOut, _ := cmd.Flags().GetString("pdf")

		var texts []string
		var files []models.FileSummary
		for _, path := range args {
			text, err := readDocument(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			texts = append(texts, text)
			files = append(files, models.FileSummary{
				FileName:   filepath.Base(path),
				Characters: len(text),
			})
		}

		orch, err := buildOrchestrator(cmd.Context())
		if err != nil {
			return err
		}
		if !asJSON {
			orch.OnStage = func(stage string) {
				fmt.Printf("  ▸ %s\n", strings.ReplaceAll(stage, "_", " "))
			}
			fmt.Printf("🏦 Underwriting %d document(s)\n", len(args))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		analysisReport, record, err := orch.AnalyzeText(ctx, strings.Join(texts, "\n\n"), agent.AnalyzeOptions{
			CreditScore:  creditScore,
			SkipDecision: skipDecision,
		})
		if err != nil {
			return err
		}

		if htmlOut != "" || pdfOut != "" {
			app := &models.Application{
				ID:        fmt.Sprintf("app-%d", time.Now().UnixNano()),
				CreatedAt: time.Now(),
				Files:     files,
				Record:    record,
				Report:    analysisReport,
			}
			if err := writeRenderedReports(app, htmlOut, pdfOut); err != nil {
				return err
			}
		}

		if asJSON {
			return printJSON(map[string]any{"record": record, "report": analysisReport})
		}

		printReport(record, analysisReport)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Int("credit-score", 0, "borrower credit score (enables policy DTI assessment)")
	analyzeCmd.Flags().Bool("skip-decision", false, "compute ratios and policy context without drafting a decision")
	analyzeCmd.Flags().Bool("json", false, "print the full record and report as JSON")
	analyzeCmd.Flags().String("html", "", "write a rendered HTML report to the given path")
	analyzeCmd.Flags().String("pdf", "", "write a PDF report to the given path (falls back to HTML when no PDF engine is installed)")
}

// writeRenderedReports renders app into the requested HTML and/or PDF files.
func writeRenderedReports(app *models.Application, htmlOut, pdfOut string) error {
	html, err := report.GenerateHTML(app, thresholdsFromConfig(), report.DefaultReportConfig())
	if err != nil {
		return err
	}
	if htmlOut != "" {
		if err := os.WriteFile(htmlOut, []byte(html), 0644); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
		fmt.Printf("  📄 HTML report written to %s\n", htmlOut)
	}
	if pdfOut != "" {
		pdfCfg := report.DefaultPDFConfig()
		pdfCfg.OutputPath = pdfOut
		if err := report.GeneratePDF(html, pdfCfg); err != nil {
			return fmt.Errorf("writing PDF report: %w", err)
		}
		if report.DetectPDFEngine() == report.EngineNone {
			fmt.Printf("  📄 No PDF engine found; HTML fallback written next to %s\n", pdfOut)
		} else {
			fmt.Printf("  📄 PDF report written to %s\n", pdfOut)
		}
	}
	return nil
}

// --- Evaluate Command ---

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [record.json]",
	Short: "Clean a raw financial record and compute risk ratios",
	Long: `Run the deterministic cleaning and ratio pipeline over an already-extracted
JSON record, without any LLM calls. Reads from the given file, or from
stdin when no file is given.

Example:
  underwriteai evaluate record.json
  echo '{"gross_annual_income": 95000, ...}' | underwriteai evaluate`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}

		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("invalid JSON record: %w", err)
		}

		record, err := underwrite.CleanAny(value)
		if err != nil {
			return err
		}

		engine := underwrite.NewEngine(thresholdsFromConfig())
		outcome := engine.Evaluate(record)

		return printJSON(map[string]any{
			"record":     record,
			"ratios":     outcome.Ratios,
			"risk_flags": outcome.Profile.RiskFlags,
			"degraded":   outcome.Degraded,
		})
	},
}

// --- Policy Command ---

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Parse and assess policy DTI thresholds",
}

var policyParseCmd = &cobra.Command{
	Use:   "parse [snippets.txt]",
	Short: "Extract DTI thresholds from guideline text",
	Long: `Parse guideline text into a structured threshold table. Each line of the
input is treated as one policy snippet. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snippets, err := readSnippets(args)
		if err != nil {
			return err
		}
		table := policy.NewRegexExtractor().Extract(snippets)
		return printJSON(table)
	},
}

var policyAssessCmd = &cobra.Command{
	Use:   "assess [snippets.txt]",
	Short: "Relate a credit score and DTI to parsed policy thresholds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creditScore, _ := cmd.Flags().GetInt("credit-score")
		dti, _ := cmd.Flags().GetFloat64("dti")
		if creditScore <= 0 {
			return fmt.Errorf("--credit-score is required and must be positive")
		}

		snippets, err := readSnippets(args)
		if err != nil {
			return err
		}
		table := policy.NewRegexExtractor().Extract(snippets)
		assessment := policy.Assess(table, dti, creditScore)

		return printJSON(map[string]any{
			"thresholds": table,
			"assessment": assessment,
		})
	},
}

func init() {
	policyAssessCmd.Flags().Int("credit-score", 0, "borrower credit score")
	policyAssessCmd.Flags().Float64("dti", 0, "borrower debt-to-income ratio (percent)")

	policyCmd.AddCommand(policyParseCmd)
	policyCmd.AddCommand(policyAssessCmd)
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting UnderwriteAI API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  UnderwriteAI — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		t := thresholdsFromConfig()
		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Policy Docs:   %s\n", cfg.Retrieval.DocsDir)
		fmt.Printf("    DTI Limits:    front %.0f%% / back %.0f%%\n", t.MaxDTI, t.MaxBackEndDTI)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

func thresholdsFromConfig() underwrite.Thresholds {
	t := underwrite.DefaultThresholds()
	if cfg == nil {
		return t
	}
	if cfg.Thresholds.MaxDTI > 0 {
		t.MaxDTI = cfg.Thresholds.MaxDTI
	}
	if cfg.Thresholds.MaxBackEndDTI > 0 {
		t.MaxBackEndDTI = cfg.Thresholds.MaxBackEndDTI
	}
	if cfg.Thresholds.MaxLTV > 0 {
		t.MaxLTV = cfg.Thresholds.MaxLTV
	}
	if cfg.Thresholds.MaxCreditUtilization > 0 {
		t.MaxCreditUtilization = cfg.Thresholds.MaxCreditUtilization
	}
	if cfg.Thresholds.MinSavingsToIncome > 0 {
		t.MinSavingsToIncome = cfg.Thresholds.MinSavingsToIncome
	}
	t.MinNetWorthToIncome = cfg.Thresholds.MinNetWorthToIncome
	return t
}

// buildOrchestrator wires the LLM router, ratio engine, and (when guideline
// documents are available) the policy retriever.
func buildOrchestrator(ctx context.Context) (*agent.Orchestrator, error) {
	router, err := llm.NewRouterFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	var retriever *retrieval.Retriever
	if cfg.LLM.OpenAIKey != "" && cfg.Retrieval.DocsDir != "" {
		if docs, err := document.LoadDir(cfg.Retrieval.DocsDir); err == nil && len(docs) > 0 {
			embedder, err := retrieval.NewOpenAIEmbedder(cfg.LLM.OpenAIKey,
				retrieval.WithEmbedderModel(cfg.Retrieval.EmbeddingModel))
			if err != nil {
				return nil, err
			}
			store := retrieval.NewStore(retrieval.NewCachingEmbedder(embedder))
			chunks := document.Chunk(docs, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
			if err := store.Add(ctx, chunks); err != nil {
				return nil, fmt.Errorf("indexing policy documents: %w", err)
			}
			retriever = retrieval.NewRetriever(store)
		}
	}

	return agent.NewOrchestrator(agent.OrchestratorConfig{
		Provider:  router,
		Engine:    underwrite.NewEngine(thresholdsFromConfig()),
		Retriever: retriever,
		ChatOptions: &llm.ChatOptions{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	}), nil
}

func readDocument(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if err := document.Validate(content); err != nil {
			return "", err
		}
		return document.ExtractText(content)
	case ".txt", ".md":
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported file type (accepted: .pdf, .txt, .md)")
	}
}

// readSnippets reads one policy snippet per non-empty line, from the named
// file or stdin.
func readSnippets(args []string) ([]string, error) {
	var reader io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var snippets []string
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			snippets = append(snippets, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, fmt.Errorf("no policy snippets provided")
	}
	return snippets, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(record *models.CanonicalFinancialRecord, report *models.AnalysisReport) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════")
	fmt.Println("  Underwriting Report")
	fmt.Println("═══════════════════════════════════════")
	if record.EmploymentTitle != "" || record.EmployerName != "" {
		fmt.Printf("  Borrower:      %s, %s\n", record.EmploymentTitle, record.EmployerName)
	}
	fmt.Printf("  Gross Income:  $%.0f/yr\n", record.GrossAnnualIncome)
	fmt.Printf("  Loan Amount:   $%.0f against $%.0f property\n", record.LoanAmount, record.PropertyValue)
	fmt.Println()

	fmt.Println("  Ratios:")
	fmt.Printf("    Gross DTI:            %.1f%%\n", report.Ratios.DTI)
	fmt.Printf("    Back-End DTI:         %.1f%%\n", report.Ratios.BackEndDTI)
	fmt.Printf("    LTV:                  %.1f%%\n", report.Ratios.LTV)
	fmt.Printf("    Credit Utilization:   %.1f%%\n", report.Ratios.CreditUtilization)
	fmt.Printf("    Savings-to-Income:    %.1f%%\n", report.Ratios.SavingsToIncome)
	fmt.Printf("    Net Worth-to-Income:  %.1f%%\n", report.Ratios.NetWorthToIncome)

	if report.Degraded {
		fmt.Printf("\n  ⚠️  Degraded: %s\n", report.Reason)
	}

	if len(report.RiskProfile.RiskFlags) > 0 {
		fmt.Println("\n  Risk Flags:")
		for _, flag := range report.RiskProfile.RiskFlags {
			fmt.Printf("    • %s\n", flag)
		}
	}

	if a := report.Assessment; a != nil {
		fmt.Println("\n  Policy DTI Assessment:")
		if a.ApplicableLimit != nil {
			fmt.Printf("    Applicable Limit:  %.1f%%\n", *a.ApplicableLimit)
		}
		if a.WithinLimits != nil {
			verdict := "❌ exceeds limit"
			if *a.WithinLimits {
				verdict = "✅ within limits"
			}
			fmt.Printf("    Verdict:           %s\n", verdict)
		}
	}

	if d := report.Decision; d != nil {
		fmt.Println("\n  Decision:")
		fmt.Printf("    Type:     %s\n", d.DecisionType)
		fmt.Printf("    Summary:  %s\n", d.Summary)
		if d.FollowUp != "" {
			fmt.Printf("    Follow Up: %s\n", d.FollowUp)
		}
	}
	fmt.Println("═══════════════════════════════════════")
}
