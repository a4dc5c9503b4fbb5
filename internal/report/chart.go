// Package report renders underwriting reports: SVG ratio charts, HTML
// summaries, and optional PDF exports of a completed loan analysis.
package report

import (
	"fmt"
	"math"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator — Pure Go, Zero Dependencies
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 760)
	Height       int    // SVG height in pixels (default: 300)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 30)
	MarginLeft   int    // left margin (default: 170)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        760,
		Height:       300,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 30,
		MarginLeft:   170,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	return svgHeader(cfg) +
		fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" fill="%s" font-size="14">%s</text></svg>`,
			cfg.Width/2, cfg.Height/2, cfg.TextColor, msg)
}

// ════════════════════════════════════════════════════════════════════
// Ratio Bar Chart
// ════════════════════════════════════════════════════════════════════

// RatioBar is one bar in the ratio chart: a computed ratio against its
// policy limit. Floor marks limits that are minimums rather than maximums.
type RatioBar struct {
	Label string
	Value float64
	Limit float64
	Floor bool
}

// Breached reports whether the value is on the wrong side of the limit.
func (b RatioBar) Breached() bool {
	if b.Floor {
		return b.Value < b.Limit
	}
	return b.Value > b.Limit
}

// RatioBarChart generates an SVG horizontal bar chart of underwriting
// ratios with their policy limits drawn as tick marks.
func RatioBarChart(bars []RatioBar, cfg ChartConfig) string {
	if len(bars) == 0 {
		return emptySVG(cfg, "No ratios available")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Risk Ratios vs Policy Limits"
	}

	px, py, pw, ph := cfg.plotArea()

	// Scale covers the largest value or limit, with headroom.
	maxVal := 0.0
	for _, b := range bars {
		maxVal = math.Max(maxVal, math.Max(math.Abs(b.Value), math.Abs(b.Limit)))
	}
	if maxVal < 1 {
		maxVal = 1
	}
	maxVal *= 1.15

	rowH := float64(ph) / float64(len(bars))
	barH := rowH * 0.55

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="24" text-anchor="middle" fill="%s" font-size="14" font-weight="600">%s</text>`,
		cfg.Width/2, cfg.TextColor, cfg.Title))

	// Vertical grid every 20 points.
	for v := 0.0; v <= maxVal; v += 20 {
		x := float64(px) + v/maxVal*float64(pw)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-width="1"/>`,
			x, py, x, py+ph, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" text-anchor="middle" fill="%s" font-size="%d">%.0f%%</text>`,
			x, py+ph+16, cfg.TextColor, cfg.FontSize, v))
	}

	for i, b := range bars {
		y := float64(py) + float64(i)*rowH + (rowH-barH)/2
		width := math.Max(0, math.Min(b.Value, maxVal)) / maxVal * float64(pw)

		color := "#16a34a"
		if b.Breached() {
			color = "#dc2626"
		}

		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" text-anchor="end" fill="%s" font-size="%d">%s</text>`,
			px-8, y+barH/2+4, cfg.TextColor, cfg.FontSize, b.Label))
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s" fill-opacity="0.85"/>`,
			px, y, width, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" font-size="%d">%.1f%%</text>`,
			float64(px)+width+6, y+barH/2+4, cfg.TextColor, cfg.FontSize, b.Value))

		// Limit tick.
		lx := float64(px) + math.Max(0, math.Min(b.Limit, maxVal))/maxVal*float64(pw)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#1a1a2e" stroke-width="2" stroke-dasharray="3,2"/>`,
			lx, y-3, lx, y+barH+3))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Gauge Chart
// ════════════════════════════════════════════════════════════════════

// GaugeChart renders a circular gauge of pct (0..100) with the label
// underneath. Used for the DTI headroom indicator.
func GaugeChart(pct float64, label string, size int) string {
	if size <= 0 {
		size = 160
	}
	pct = math.Max(0, math.Min(pct, 100))

	cx := float64(size) / 2
	cy := float64(size) / 2
	r := float64(size)/2 - 14
	circumference := 2 * math.Pi * r
	filled := circumference * pct / 100

	color := "#16a34a"
	switch {
	case pct < 25:
		color = "#dc2626"
	case pct < 50:
		color = "#ea580c"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		size, size, size, size))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#e8e8e8" stroke-width="10"/>`,
		cx, cy, r))
	sb.WriteString(fmt.Sprintf(
		`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="10" stroke-linecap="round" stroke-dasharray="%.1f %.1f" transform="rotate(-90 %.1f %.1f)"/>`,
		cx, cy, r, color, filled, circumference-filled, cx, cy))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle" font-size="%d" font-weight="700" fill="#1a1a2e">%.0f%%</text>`,
		cx, cy+2, size/6, pct))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle" font-size="11" fill="#6b7280">%s</text>`,
		cx, cy+float64(size)/6+6, label))
	sb.WriteString("</svg>")
	return sb.String()
}
