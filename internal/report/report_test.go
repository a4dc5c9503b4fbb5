package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrBool(v bool) *bool        { return &v }

func sampleApplication() *models.Application {
	return &models.Application{
		ID:        "app-1700000000",
		CreatedAt: time.Now(),
		Files: []models.FileSummary{
			{FileName: "paystub.pdf", Characters: 2140, Preview: "PAYSTUB..."},
		},
		Record: &models.CanonicalFinancialRecord{
			GrossAnnualIncome:     120000,
			MonthlyNetIncome:      7000,
			MonthlyHousingExpense: 2000,
			MonthlyTotalDebt:      2500,
			Savings:               50000,
			CreditUsed:            2000,
			CreditLimit:           20000,
			LoanAmount:            300000,
			PropertyValue:         400000,
			EmploymentTitle:       "Marketing Manager",
			EmployerName:          "Acme Corp",
		},
		Report: &models.AnalysisReport{
			Ratios: models.RatioSet{
				DTI:               20.0,
				BackEndDTI:        45.0,
				LTV:               75.0,
				CreditUtilization: 10.0,
				SavingsToIncome:   41.7,
				NetWorthToIncome:  40.0,
			},
			RiskProfile: models.RiskProfile{
				EmploymentTitle: "Marketing Manager",
				EmployerName:    "Acme Corp",
				RiskFlags:       []string{"High back-end debt-to-income ratio"},
			},
			Assessment: &models.DTIAssessment{
				CurrentDTI:      20.0,
				CreditScore:     780,
				ApplicableLimit: ptrFloat(45.0),
				WithinLimits:    ptrBool(true),
				Margin:          ptrFloat(25.0),
			},
			Decision: &models.UnderwritingDecision{
				DecisionType:    models.DecisionRefer,
				Summary:         "Refer for manual review due to elevated back-end DTI.",
				BorrowerSummary: "Marketing Manager at Acme Corp earning $120K/year.",
				RiskAssessment:  []string{"Low Risk", "High Risk", "Medium Risk", "Low Risk", "Low Risk", "High Risk"},
				FollowUp:        "Reduce monthly debt or document compensating factors.",
			},
		},
	}
}

func TestGenerateHTMLContainsSections(t *testing.T) {
	html, err := GenerateHTML(sampleApplication(), underwrite.DefaultThresholds(), DefaultReportConfig())
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}

	for _, want := range []string{
		"app-1700000000",
		"Marketing Manager",
		"$120,000",
		"Refer",
		"Back-End DTI",
		"High back-end debt-to-income ratio",
		"Within policy limits",
		"paystub.pdf",
		"<svg",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
}

func TestGenerateHTMLRequiresReport(t *testing.T) {
	app := &models.Application{ID: "app-1"}
	if _, err := GenerateHTML(app, underwrite.DefaultThresholds(), DefaultReportConfig()); err == nil {
		t.Error("expected error for application without analysis report")
	}
	if _, err := GenerateHTML(nil, underwrite.DefaultThresholds(), DefaultReportConfig()); err == nil {
		t.Error("expected error for nil application")
	}
}

func TestGenerateHTMLDegradedBanner(t *testing.T) {
	app := sampleApplication()
	app.Report.Degraded = true
	app.Report.Reason = "gross_annual_income must be positive"

	html, err := GenerateHTML(app, underwrite.DefaultThresholds(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "degraded") || !strings.Contains(html, "gross_annual_income must be positive") {
		t.Error("degraded banner missing")
	}
}

func TestGenerateText(t *testing.T) {
	text, err := GenerateText(sampleApplication(), underwrite.DefaultThresholds(), DefaultReportConfig())
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}

	for _, want := range []string{
		"RISK RATIOS",
		"Back-End DTI",
		"DECISION: Refer",
		"POLICY DTI ASSESSMENT",
		"Within policy limits",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestBuildReportDataRatioStatuses(t *testing.T) {
	data := buildReportData(sampleApplication(), underwrite.DefaultThresholds(), DefaultReportConfig())

	if len(data.RatioRows) != 6 {
		t.Fatalf("ratio rows: got %d, want 6", len(data.RatioRows))
	}
	byLabel := map[string]RatioRow{}
	for _, r := range data.RatioRows {
		byLabel[r.Label] = r
	}
	if byLabel["Back-End DTI"].StatusClass != "attention" {
		t.Errorf("Back-End DTI: got %q", byLabel["Back-End DTI"].StatusClass)
	}
	if byLabel["Gross DTI"].StatusClass != "ok" {
		t.Errorf("Gross DTI: got %q", byLabel["Gross DTI"].StatusClass)
	}
}

func TestDecisionClass(t *testing.T) {
	tests := []struct {
		decision models.DecisionType
		want     string
	}{
		{models.DecisionApprove, "approve"},
		{models.DecisionRefer, "refer"},
		{models.DecisionDeny, "deny"},
		{models.DecisionType("Unknown"), "refer"},
	}
	for _, tt := range tests {
		if got := decisionClass(tt.decision); got != tt.want {
			t.Errorf("decisionClass(%s): got %q, want %q", tt.decision, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0"},
		{950, "$950"},
		{120000, "$120,000"},
		{1234567.89, "$1,234,568"},
		{-45000, "-$45,000"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.amount); got != tt.want {
			t.Errorf("FormatUSD(%v): got %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestRatioBarBreached(t *testing.T) {
	tests := []struct {
		name string
		bar  RatioBar
		want bool
	}{
		{"ceiling ok", RatioBar{Value: 20, Limit: 43}, false},
		{"ceiling breach", RatioBar{Value: 45, Limit: 36}, true},
		{"floor ok", RatioBar{Value: 41, Limit: 10, Floor: true}, false},
		{"floor breach", RatioBar{Value: 5, Limit: 10, Floor: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bar.Breached(); got != tt.want {
				t.Errorf("Breached: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatioBarChartSVG(t *testing.T) {
	bars := []RatioBar{
		{Label: "Gross DTI", Value: 20, Limit: 43},
		{Label: "Back-End DTI", Value: 45, Limit: 36},
	}
	svg := RatioBarChart(bars, DefaultChartConfig())

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete SVG document")
	}
	if !strings.Contains(svg, "Gross DTI") || !strings.Contains(svg, "Back-End DTI") {
		t.Error("bar labels missing")
	}
	if !strings.Contains(svg, "#dc2626") {
		t.Error("breached bar should use the red fill")
	}
	if !strings.Contains(svg, "#16a34a") {
		t.Error("ok bar should use the green fill")
	}
}

func TestRatioBarChartEmpty(t *testing.T) {
	svg := RatioBarChart(nil, ChartConfig{})
	if !strings.Contains(svg, "No ratios available") {
		t.Errorf("empty chart: %s", svg)
	}
}

func TestGaugeChart(t *testing.T) {
	svg := GaugeChart(55.5, "DTI Headroom", 150)
	if !strings.Contains(svg, "56%") && !strings.Contains(svg, "55%") {
		t.Errorf("gauge missing value: %s", svg)
	}
	if !strings.Contains(svg, "DTI Headroom") {
		t.Error("gauge missing label")
	}

	// Clamped inputs must not escape the 0..100 range.
	if svg := GaugeChart(150, "x", 100); !strings.Contains(svg, "100%") {
		t.Error("gauge should clamp to 100")
	}
	if svg := GaugeChart(-10, "x", 100); !strings.Contains(svg, "0%") {
		t.Error("gauge should clamp to 0")
	}
}

func TestGeneratePDFFallbackWritesHTML(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.pdf")

	if err := writeHTMLFallback("<html><body>report</body></html>", out); err != nil {
		t.Fatalf("writeHTMLFallback: %v", err)
	}

	htmlPath := filepath.Join(dir, "report.html")
	content, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("fallback HTML not written: %v", err)
	}
	if !strings.Contains(string(content), "report") {
		t.Error("fallback content wrong")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30.0s"},
		{5 * time.Minute, "5.0m"},
		{2 * time.Hour, "2.0h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v): got %q, want %q", tt.d, got, tt.want)
		}
	}
}
