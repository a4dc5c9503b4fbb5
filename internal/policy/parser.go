// Package policy extracts numeric underwriting thresholds from free-text
// guideline snippets and resolves the ceiling applicable to a borrower.
package policy

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/harborlend/underwriteai/pkg/models"
)

// ThresholdExtractor turns retrieved policy snippets into a structured
// threshold table. Implementations are best-effort: a snippet that
// matches nothing contributes nothing, and no extraction ever fails.
type ThresholdExtractor interface {
	Extract(snippets []string) *models.PolicyThresholdTable
}

// Percentage captures tolerate one or two integer digits with an
// optional two-digit decimal part. The non-greedy stretch after each
// keyword stays within a line, so a keyword and a percentage on
// different lines never pair up. False positives inside a line are a
// known limitation.
var (
	frontEndPattern   = regexp.MustCompile(`(?i)front[-\s]?end.*?(\d{1,2}(?:\.\d{1,2})?)%`)
	backEndPattern    = regexp.MustCompile(`(?i)back[-\s]?end.*?(\d{1,2}(?:\.\d{1,2})?)%`)
	dtiPattern        = regexp.MustCompile(`(?i)DTI.*?(\d{1,2}(?:\.\d{1,2})?)%`)
	creditTierPattern = regexp.MustCompile(`(?i)(\d{3})\+.*?(\d{1,2}(?:\.\d{1,2})?)%`)
	compensatingRe    = regexp.MustCompile(`(?i)compensating.*?factor`)
	exceptionRe       = regexp.MustCompile(`(?i)exception|waiver|special`)
)

// RegexExtractor is the default ThresholdExtractor. It scans each
// snippet independently with a fixed pattern set and merges the results
// into a single table.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (e *RegexExtractor) Extract(snippets []string) *models.PolicyThresholdTable {
	table := &models.PolicyThresholdTable{
		FrontEndLimits:   []float64{},
		BackEndLimits:    []float64{},
		CreditTierLimits: map[int]float64{},
	}

	for _, text := range snippets {
		table.FrontEndLimits = append(table.FrontEndLimits, capturePercents(frontEndPattern, text)...)

		// General "DTI ... N%" mentions fold into the back-end set.
		table.BackEndLimits = append(table.BackEndLimits, capturePercents(backEndPattern, text)...)
		table.BackEndLimits = append(table.BackEndLimits, capturePercents(dtiPattern, text)...)

		// Later snippets overwrite earlier ones at the same breakpoint.
		for _, m := range creditTierPattern.FindAllStringSubmatch(text, -1) {
			score, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			limit, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			table.CreditTierLimits[score] = limit
		}

		// Qualitative language keeps the whole snippet verbatim.
		if compensatingRe.MatchString(text) {
			table.CompensatingFactors = append(table.CompensatingFactors, text)
		}
		if exceptionRe.MatchString(text) {
			table.Exceptions = append(table.Exceptions, text)
		}
	}

	table.FrontEndLimits = dedupeSorted(table.FrontEndLimits)
	table.BackEndLimits = dedupeSorted(table.BackEndLimits)
	return table
}

func capturePercents(re *regexp.Regexp, text string) []float64 {
	var out []float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupeSorted(values []float64) []float64 {
	seen := make(map[float64]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
