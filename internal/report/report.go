package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator — Orchestrates chart + template rendering
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatPDF  ReportFormat = "pdf"
	FormatText ReportFormat = "text"
)

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format   ReportFormat // output format (default: HTML)
	Title    string       // custom report title (optional)
	Author   string       // author name (optional)
	ChartCfg ChartConfig  // chart rendering config
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format:   FormatHTML,
		Author:   "UnderwriteAI Agent",
		ChartCfg: DefaultChartConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Data — Flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	// Header
	Title         string
	ApplicationID string
	Author        string
	GeneratedAt   string

	// Borrower
	EmploymentTitle string
	EmployerName    string
	GrossIncome     string
	NetMonthly      string
	LoanAmount      string
	PropertyValue   string
	Savings         string
	Files           []FileRow

	// Ratios
	RatioRows      []RatioRow
	RatioChart     template.HTML
	Degraded       bool
	DegradedReason string

	// Risk flags
	RiskFlags []string

	// Policy assessment
	HasAssessment   bool
	CreditScore     string
	ApplicableLimit string
	Margin          string
	AssessmentClass string // CSS class: within, exceeds, unknown
	AssessmentLabel string
	GaugeChart      template.HTML

	// Decision
	HasDecision     bool
	DecisionType    string
	DecisionClass   string // CSS class: approve, refer, deny
	DecisionSummary string
	BorrowerSummary string
	RiskAssessment  []string
	FollowUp        string
}

// FileRow is one analyzed document for the header table.
type FileRow struct {
	Name       string
	Characters string
}

// RatioRow is one computed ratio with its limit and breach status.
type RatioRow struct {
	Label       string
	Value       string
	Limit       string
	StatusClass string // CSS class: ok, attention
	StatusLabel string
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// GenerateHTML renders an HTML underwriting report for a completed
// application.
func GenerateHTML(app *models.Application, t underwrite.Thresholds, cfg ReportConfig) (string, error) {
	if app == nil || app.Report == nil {
		return "", fmt.Errorf("report: application has no analysis report")
	}

	data := buildReportData(app, t, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText renders a plain-text underwriting report (terminal friendly).
func GenerateText(app *models.Application, t underwrite.Thresholds, cfg ReportConfig) (string, error) {
	if app == nil || app.Report == nil {
		return "", fmt.Errorf("report: application has no analysis report")
	}
	return renderTextReport(buildReportData(app, t, cfg)), nil
}

// ════════════════════════════════════════════════════════════════════
// Internal — Build template data
// ════════════════════════════════════════════════════════════════════

func buildReportData(app *models.Application, t underwrite.Thresholds, cfg ReportConfig) ReportData {
	rep := app.Report

	data := ReportData{
		Title:          cfg.Title,
		ApplicationID:  app.ID,
		Author:         cfg.Author,
		GeneratedAt:    time.Now().Format("02 Jan 2006, 03:04 PM"),
		Degraded:       rep.Degraded,
		DegradedReason: rep.Reason,
		RiskFlags:      rep.RiskProfile.RiskFlags,
	}
	if data.Title == "" {
		data.Title = fmt.Sprintf("Underwriting Report — %s", app.ID)
	}
	if data.Author == "" {
		data.Author = "UnderwriteAI Agent"
	}

	if rec := app.Record; rec != nil {
		data.EmploymentTitle = rec.EmploymentTitle
		data.EmployerName = rec.EmployerName
		data.GrossIncome = FormatUSD(rec.GrossAnnualIncome)
		data.NetMonthly = FormatUSD(rec.MonthlyNetIncome)
		data.LoanAmount = FormatUSD(rec.LoanAmount)
		data.PropertyValue = FormatUSD(rec.PropertyValue)
		data.Savings = FormatUSD(rec.Savings)
	}

	for _, f := range app.Files {
		data.Files = append(data.Files, FileRow{
			Name:       f.FileName,
			Characters: strconv.Itoa(f.Characters),
		})
	}

	bars := []RatioBar{
		{Label: "Gross DTI", Value: rep.Ratios.DTI, Limit: t.MaxDTI},
		{Label: "Back-End DTI", Value: rep.Ratios.BackEndDTI, Limit: t.MaxBackEndDTI},
		{Label: "LTV", Value: rep.Ratios.LTV, Limit: t.MaxLTV},
		{Label: "Credit Utilization", Value: rep.Ratios.CreditUtilization, Limit: t.MaxCreditUtilization},
		{Label: "Savings-to-Income", Value: rep.Ratios.SavingsToIncome, Limit: t.MinSavingsToIncome, Floor: true},
		{Label: "Net Worth-to-Income", Value: rep.Ratios.NetWorthToIncome, Limit: t.MinNetWorthToIncome, Floor: true},
	}
	for _, b := range bars {
		row := RatioRow{
			Label:       b.Label,
			Value:       fmt.Sprintf("%.1f%%", b.Value),
			Limit:       fmt.Sprintf("%.1f%%", b.Limit),
			StatusClass: "ok",
			StatusLabel: "OK",
		}
		if b.Breached() {
			row.StatusClass = "attention"
			row.StatusLabel = "Attention"
		}
		data.RatioRows = append(data.RatioRows, row)
	}
	chartCfg := cfg.ChartCfg
	data.RatioChart = template.HTML(RatioBarChart(bars, chartCfg))

	if a := rep.Assessment; a != nil {
		data.HasAssessment = true
		data.CreditScore = strconv.Itoa(a.CreditScore)
		data.AssessmentClass = "unknown"
		data.AssessmentLabel = "No applicable limit found"
		if a.ApplicableLimit != nil {
			data.ApplicableLimit = fmt.Sprintf("%.1f%%", *a.ApplicableLimit)
		}
		if a.Margin != nil {
			data.Margin = fmt.Sprintf("%.1f pts", *a.Margin)
		}
		if a.WithinLimits != nil {
			if *a.WithinLimits {
				data.AssessmentClass = "within"
				data.AssessmentLabel = "Within policy limits"
			} else {
				data.AssessmentClass = "exceeds"
				data.AssessmentLabel = "Exceeds policy limits"
			}
		}
		if a.ApplicableLimit != nil && *a.ApplicableLimit > 0 {
			headroom := (*a.ApplicableLimit - a.CurrentDTI) / *a.ApplicableLimit * 100
			headroom = math.Max(0, math.Min(headroom, 100))
			data.GaugeChart = template.HTML(GaugeChart(headroom, "DTI Headroom", 150))
		}
	}

	if d := rep.Decision; d != nil {
		data.HasDecision = true
		data.DecisionType = string(d.DecisionType)
		data.DecisionClass = decisionClass(d.DecisionType)
		data.DecisionSummary = d.Summary
		data.BorrowerSummary = d.BorrowerSummary
		data.RiskAssessment = d.RiskAssessment
		data.FollowUp = d.FollowUp
	}

	return data
}

func decisionClass(d models.DecisionType) string {
	switch d {
	case models.DecisionApprove:
		return "approve"
	case models.DecisionDeny:
		return "deny"
	default:
		return "refer"
	}
}

// FormatUSD formats an amount as US dollars with thousands separators.
// Cent precision is dropped; underwriting figures are whole dollars.
func FormatUSD(amount float64) string {
	neg := amount < 0
	n := int64(math.Round(math.Abs(amount)))

	s := strconv.FormatInt(n, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "$" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s | %s\n", d.GeneratedAt, d.Author))
	sb.WriteString(line + "\n\n")

	if d.EmploymentTitle != "" || d.EmployerName != "" {
		sb.WriteString(fmt.Sprintf("  Borrower: %s, %s\n", d.EmploymentTitle, d.EmployerName))
	}
	if d.GrossIncome != "" {
		sb.WriteString(fmt.Sprintf("  Income: %s/yr gross, %s/mo net\n", d.GrossIncome, d.NetMonthly))
		sb.WriteString(fmt.Sprintf("  Loan: %s against %s property | Savings: %s\n",
			d.LoanAmount, d.PropertyValue, d.Savings))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ RISK RATIOS\n")
	for _, r := range d.RatioRows {
		sb.WriteString(fmt.Sprintf("    %-22s %8s  (limit %s)  [%s]\n", r.Label, r.Value, r.Limit, r.StatusLabel))
	}
	if d.Degraded {
		sb.WriteString(fmt.Sprintf("\n    ⚠ Degraded: %s\n", d.DegradedReason))
	}
	sb.WriteString(thinLine + "\n")

	if len(d.RiskFlags) > 0 {
		sb.WriteString("\n  ■ RISK FLAGS\n")
		for _, flag := range d.RiskFlags {
			sb.WriteString(fmt.Sprintf("    • %s\n", flag))
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.HasAssessment {
		sb.WriteString("\n  ■ POLICY DTI ASSESSMENT\n")
		sb.WriteString(fmt.Sprintf("    Credit Score: %s\n", d.CreditScore))
		if d.ApplicableLimit != "" {
			sb.WriteString(fmt.Sprintf("    Applicable Limit: %s | Margin: %s\n", d.ApplicableLimit, d.Margin))
		}
		sb.WriteString(fmt.Sprintf("    Verdict: %s\n", d.AssessmentLabel))
		sb.WriteString(thinLine + "\n")
	}

	if d.HasDecision {
		sb.WriteString(fmt.Sprintf("\n  ★ DECISION: %s\n", d.DecisionType))
		sb.WriteString(fmt.Sprintf("  %s\n", d.DecisionSummary))
		if d.BorrowerSummary != "" {
			sb.WriteString(fmt.Sprintf("\n  %s\n", d.BorrowerSummary))
		}
		if d.FollowUp != "" {
			sb.WriteString(fmt.Sprintf("\n  Follow Up: %s\n", d.FollowUp))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Disclaimer: This report is AI-assisted and advisory only.\n")
	sb.WriteString("  Final underwriting decisions rest with a licensed underwriter.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
