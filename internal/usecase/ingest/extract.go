package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/medisearch/casedex/internal/domain"
)

// Extraction is an ordered list of strategies per field: the first one
// returning a non-empty value wins.
type stringExtractor func(rc RawCase) string

func firstNonEmpty(rc RawCase, extractors []stringExtractor) string {
	for _, extract := range extractors {
		if v := strings.TrimSpace(extract(rc)); v != "" {
			return v
		}
	}
	return ""
}

var descriptionExtractors = []stringExtractor{
	func(rc RawCase) string { return sectionStr(rc.section("Description"), "Caption") },
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Findings") },
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Discussion") },
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "History") },
	func(rc RawCase) string { return sectionStr(rc.section("Topic"), "Disease Discussion") },
	func(rc RawCase) string { return rc.str("description") },
}

var diagnosisExtractors = []stringExtractor{
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Case Diagnosis") },
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Title") },
	func(rc RawCase) string { return sectionStr(rc.section("Topic"), "Title") },
	func(rc RawCase) string { return rc.str("diagnosis") },
	diagnosisFromCaption,
}

// diagnosisFromCaption maps caption keywords to coarse diagnosis labels
// when no structured diagnosis exists.
func diagnosisFromCaption(rc RawCase) string {
	caption := strings.ToLower(sectionStr(rc.section("Description"), "Caption"))
	switch {
	case strings.Contains(caption, "hemorrhage"):
		return "Hemorrhage"
	case strings.Contains(caption, "hydrocephalus"):
		return "Hydrocephalus"
	case strings.Contains(caption, "stroke"):
		return "Stroke"
	case strings.Contains(caption, "tumor"), strings.Contains(caption, "mass"):
		return "Brain Tumor"
	}
	return ""
}

var symptomExtractors = []stringExtractor{
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Exam") },
	func(rc RawCase) string { return sectionStr(rc.section("Case"), "Findings") },
}

// ExtractDescription applies the description waterfall.
func ExtractDescription(rc RawCase) string {
	return firstNonEmpty(rc, descriptionExtractors)
}

// ExtractDiagnosis applies the diagnosis waterfall, falling back to the
// sentinel so the stored label is never empty.
func ExtractDiagnosis(rc RawCase) string {
	return domain.DiagnosisOrUnknown(firstNonEmpty(rc, diagnosisExtractors))
}

// ExtractSymptoms applies the symptom waterfall.
func ExtractSymptoms(rc RawCase) string {
	return firstNonEmpty(rc, symptomExtractors)
}

var agePattern = regexp.MustCompile(`(?i)(\d+)\s*(year|month)s?\s*old`)

// ExtractAge reads the structured age field, then falls back to the
// history text. Month-unit matches are converted to whole years.
func ExtractAge(rc RawCase) *int {
	desc := rc.section("Description")
	switch v := desc["Age"].(type) {
	case string:
		if v != "" && v != "N/A" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return &n
			}
		}
	case float64:
		n := int(v)
		return &n
	}

	history := sectionStr(rc.section("Case"), "History")
	m := agePattern.FindStringSubmatch(history)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	if strings.EqualFold(m[2], "month") {
		n /= 12
	}
	return &n
}

var (
	malePattern   = regexp.MustCompile(`(?i)\b(male|man)\b`)
	femalePattern = regexp.MustCompile(`(?i)\b(female|woman|girl)\b`)
)

// ExtractSex reads the structured sex field, then scans the history text
// with word-boundary patterns.
func ExtractSex(rc RawCase) domain.Sex {
	if s := sectionStr(rc.section("Description"), "Sex"); s != "" {
		if sex := domain.ParseSex(s); sex != domain.SexUnknown {
			return sex
		}
	}

	history := sectionStr(rc.section("Case"), "History")
	if history == "" {
		return domain.SexUnknown
	}
	if malePattern.MatchString(history) {
		return domain.SexMale
	}
	if femalePattern.MatchString(history) {
		return domain.SexFemale
	}
	return domain.SexUnknown
}
