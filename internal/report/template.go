package report

// ReportTemplate is the HTML template for the underwriting report.
// It is embedded as a Go constant — no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .app-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1rem;
    margin-right: 8px;
  }

  /* Financial summary bar */
  .summary-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .summary-item { text-align: center; }
  .summary-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .summary-item .value { font-size: 1rem; font-weight: 600; }

  /* Decision box */
  .decision-box {
    display: flex;
    align-items: center;
    justify-content: space-between;
    gap: 16px;
    padding: 16px;
    border-radius: 8px;
    margin: 12px 0;
  }
  .decision-box.approve { background: #dcfce7; border-left: 5px solid var(--green); }
  .decision-box.refer { background: #fefce8; border-left: 5px solid #eab308; }
  .decision-box.deny { background: #fef2f2; border-left: 5px solid var(--red); }
  .decision-label { font-size: 1.4rem; font-weight: 700; }
  .decision-box.approve .decision-label { color: var(--green); }
  .decision-box.refer .decision-label { color: #eab308; }
  .decision-box.deny .decision-label { color: var(--red); }

  /* Assessment badge */
  .assessment-badge {
    display: inline-block;
    padding: 2px 10px;
    border-radius: 4px;
    font-weight: 600;
    font-size: 0.9rem;
  }
  .assessment-badge.within { background: #dcfce7; color: var(--green); }
  .assessment-badge.exceeds { background: #fef2f2; color: var(--red); }
  .assessment-badge.unknown { background: #f3f4f6; color: var(--muted); }

  /* Tables */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  .status-badge {
    display: inline-block;
    padding: 1px 8px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
  }
  .status-badge.ok { background: #dcfce7; color: var(--green); }
  .status-badge.attention { background: #fef2f2; color: var(--red); }

  /* Degraded banner */
  .degraded-banner {
    background: #fef2f2;
    border: 1px solid var(--red);
    color: var(--red);
    padding: 10px 14px;
    border-radius: 6px;
    margin: 10px 0;
    font-weight: 600;
  }

  /* Chart container */
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  /* Section */
  .section { margin: 20px 0; }
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
    font-size: 0.95rem;
    line-height: 1.7;
  }

  /* Risk flag list */
  .flag-list { margin: 8px 0 8px 20px; }
  .flag-list li { margin: 4px 0; }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  .gauge-inline { display: flex; align-items: center; gap: 12px; }
  .gauge-inline svg { flex-shrink: 0; }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1><span class="app-badge">{{.ApplicationID}}</span> {{.Title}}</h1>
    {{if .EmploymentTitle}}<p class="muted">{{.EmploymentTitle}} · {{.EmployerName}}</p>{{end}}
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<!-- ═══════ FINANCIAL SUMMARY ═══════ -->
{{if .GrossIncome}}
<div class="summary-bar">
  <div class="summary-item">
    <div class="label">Gross Income</div>
    <div class="value">{{.GrossIncome}}/yr</div>
  </div>
  <div class="summary-item">
    <div class="label">Net Monthly</div>
    <div class="value">{{.NetMonthly}}</div>
  </div>
  <div class="summary-item">
    <div class="label">Loan Amount</div>
    <div class="value">{{.LoanAmount}}</div>
  </div>
  <div class="summary-item">
    <div class="label">Property Value</div>
    <div class="value">{{.PropertyValue}}</div>
  </div>
  <div class="summary-item">
    <div class="label">Savings</div>
    <div class="value">{{.Savings}}</div>
  </div>
</div>
{{end}}

<!-- ═══════ DECISION ═══════ -->
{{if .HasDecision}}
<div class="section">
  <h2>Decision</h2>
  <div class="decision-box {{.DecisionClass}}">
    <div>
      <div class="decision-label">{{.DecisionType}}</div>
      <div class="muted">{{.DecisionSummary}}</div>
    </div>
    {{if .GaugeChart}}<div class="gauge-inline">{{.GaugeChart}}</div>{{end}}
  </div>
  {{if .BorrowerSummary}}<div class="section-summary">{{.BorrowerSummary}}</div>{{end}}
  {{if .FollowUp}}<p><strong>Follow Up:</strong> {{.FollowUp}}</p>{{end}}
</div>
{{end}}

<!-- ═══════ RATIOS ═══════ -->
<div class="section">
  <h2>Risk Ratios</h2>
  {{if .Degraded}}
  <div class="degraded-banner">⚠ Ratio computation degraded: {{.DegradedReason}}</div>
  {{end}}
  <div class="chart-container">{{.RatioChart}}</div>
  <table>
    <thead><tr><th>Ratio</th><th>Value</th><th>Policy Limit</th><th>Status</th></tr></thead>
    <tbody>
    {{range .RatioRows}}
    <tr>
      <td>{{.Label}}</td>
      <td>{{.Value}}</td>
      <td>{{.Limit}}</td>
      <td><span class="status-badge {{.StatusClass}}">{{.StatusLabel}}</span></td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>

<!-- ═══════ RISK FLAGS ═══════ -->
{{if .RiskFlags}}
<div class="section">
  <h2>Risk Flags</h2>
  <ul class="flag-list">
    {{range .RiskFlags}}<li>{{.}}</li>{{end}}
  </ul>
</div>
{{end}}

<!-- ═══════ POLICY ASSESSMENT ═══════ -->
{{if .HasAssessment}}
<div class="section">
  <h2>Policy DTI Assessment</h2>
  <table>
    <tbody>
      <tr><td>Credit Score</td><td>{{.CreditScore}}</td></tr>
      {{if .ApplicableLimit}}<tr><td>Applicable DTI Limit</td><td>{{.ApplicableLimit}}</td></tr>{{end}}
      {{if .Margin}}<tr><td>Margin</td><td>{{.Margin}}</td></tr>{{end}}
      <tr><td>Verdict</td><td><span class="assessment-badge {{.AssessmentClass}}">{{.AssessmentLabel}}</span></td></tr>
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ SOURCE DOCUMENTS ═══════ -->
{{if .Files}}
<div class="section">
  <h2>Source Documents</h2>
  <table>
    <thead><tr><th>File</th><th>Extracted Characters</th></tr></thead>
    <tbody>
    {{range .Files}}
    <tr><td>{{.Name}}</td><td>{{.Characters}}</td></tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p><strong>Disclaimer:</strong> This report is AI-assisted and advisory only.
  It does not constitute a credit decision. Final underwriting decisions rest with a licensed underwriter.</p>
  <p>Generated on {{.GeneratedAt}} by {{.Author}}</p>
</div>

</body>
</html>`
