package report

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// PDF Export — archival copies of underwriting reports
// ════════════════════════════════════════════════════════════════════

// Underwriting files are commonly archived as PDF. The HTML report is the
// source of truth; this converts it with whichever engine the host has,
// and falls back to writing the HTML itself so the export never fails
// outright on a machine without a converter.

// PDFEngine identifies an HTML→PDF converter.
type PDFEngine string

const (
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none" // no converter; write HTML instead
)

// chromiumBinaries are probed in order when detecting a Chromium engine.
var chromiumBinaries = []string{
	"chromium-browser", "chromium", "google-chrome", "google-chrome-stable",
}

// PDFConfig controls the export. Margins match the report template's print
// stylesheet; changing one without the other misaligns the page header.
type PDFConfig struct {
	Engine       PDFEngine // empty or EngineNone means auto-detect
	PageSize     string
	Orientation  string // "portrait" or "landscape"
	MarginTop    string
	MarginBottom string
	MarginLeft   string
	MarginRight  string
	OutputPath   string // destination .pdf path, required
}

// DefaultPDFConfig returns the export settings the report template is
// designed against: A4 portrait with 15mm/10mm margins.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		PageSize:     "A4",
		Orientation:  "portrait",
		MarginTop:    "15mm",
		MarginBottom: "15mm",
		MarginLeft:   "10mm",
		MarginRight:  "10mm",
	}
}

// DetectPDFEngine reports which converter is installed, preferring
// wkhtmltopdf (faster startup, predictable pagination) over Chromium.
func DetectPDFEngine() PDFEngine {
	if _, err := exec.LookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	if findChromium() != "" {
		return EngineChromium
	}
	return EngineNone
}

// IsPDFSupported returns true if a PDF engine is available.
func IsPDFSupported() bool {
	return DetectPDFEngine() != EngineNone
}

// GeneratePDF converts a rendered report to PDF at cfg.OutputPath. With no
// converter installed it writes the HTML next to the requested path instead
// of failing, so the report is never lost.
func GeneratePDF(html string, cfg PDFConfig) error {
	if cfg.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}

	engine := cfg.Engine
	if engine == "" || engine == EngineNone {
		engine = DetectPDFEngine()
	}

	switch engine {
	case EngineWKHTML:
		return convertWith("wkhtmltopdf", wkhtmlArgs, html, cfg)
	case EngineChromium:
		bin := findChromium()
		if bin == "" {
			return fmt.Errorf("chromium not found in PATH")
		}
		return convertWith(bin, chromiumArgs, html, cfg)
	case EngineNone:
		return writeHTMLFallback(html, cfg.OutputPath)
	default:
		return fmt.Errorf("unsupported PDF engine: %s", engine)
	}
}

// convertWith renders html through the given converter binary. The argument
// builder receives the temp HTML path and the resolved output path.
func convertWith(bin string, buildArgs func(in, out string, cfg PDFConfig) []string, html string, cfg PDFConfig) error {
	tmpFile := filepath.Join(os.TempDir(), "underwriteai_report.html")
	if err := os.WriteFile(tmpFile, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing temp HTML: %w", err)
	}
	defer os.Remove(tmpFile)

	absOutput, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	cmd := exec.Command(bin, buildArgs(tmpFile, absOutput, cfg)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", filepath.Base(bin), err, string(output))
	}
	return nil
}

func wkhtmlArgs(in, out string, cfg PDFConfig) []string {
	return []string{
		"--page-size", cfg.PageSize,
		"--orientation", cfg.Orientation,
		"--margin-top", cfg.MarginTop,
		"--margin-bottom", cfg.MarginBottom,
		"--margin-left", cfg.MarginLeft,
		"--margin-right", cfg.MarginRight,
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		"--quiet",
		in,
		out,
	}
}

func chromiumArgs(in, out string, cfg PDFConfig) []string {
	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--print-to-pdf=" + out,
		"--print-to-pdf-no-header",
	}
	if strings.EqualFold(cfg.Orientation, "landscape") {
		args = append(args, "--landscape")
	}
	return append(args, "file://"+in)
}

func findChromium() string {
	for _, name := range chromiumBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// writeHTMLFallback stores the report as HTML when no converter exists,
// swapping a .pdf extension for .html.
func writeHTMLFallback(html string, outputPath string) error {
	if strings.HasSuffix(strings.ToLower(outputPath), ".pdf") {
		outputPath = outputPath[:len(outputPath)-4] + ".html"
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing HTML fallback: %w", err)
	}
	return nil
}
