// Package diagnose parses free-text diagnosis reports produced by the
// upstream vision model into the structured report shape.
package diagnose

import (
	"regexp"
	"strings"

	"github.com/medisearch/casedex/internal/domain"
)

var confidenceDigits = regexp.MustCompile(`\d+`)

// ParseReport reads a line-oriented "Label: value" report. Recognized
// labels: Diagnosis/Disease, Confidence, Findings, Location. Unknown
// lines are ignored. The confidence value is normalized to "<n>%".
func ParseReport(text string) domain.DiagnosisReport {
	var report domain.DiagnosisReport

	for _, line := range strings.Split(text, "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = normalizeLabel(label)
		value = strings.TrimSpace(value)

		switch {
		case strings.Contains(label, "diagnosis"), strings.Contains(label, "disease"):
			if report.Diagnosis == "" {
				report.Diagnosis = value
			}
		case strings.Contains(label, "confidence"):
			if n := confidenceDigits.FindString(value); n != "" {
				report.Confidence = n + "%"
			}
		case strings.Contains(label, "findings"):
			if report.Findings == "" {
				report.Findings = value
			}
		case strings.Contains(label, "location"):
			if report.Location == "" {
				report.Location = value
			}
		}
	}

	return report
}

// normalizeLabel lowercases a label and strips list numbering like "1.".
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimLeft(s, "0123456789. ")
}
