package search

import (
	"math"

	"github.com/medisearch/casedex/internal/domain"
)

// noSimilarCases is reported as the most common diagnosis of an empty
// result list.
const noSimilarCases = "No similar cases found"

// PatientInfo is the demographic block of a formatted case.
type PatientInfo struct {
	Age *int       `json:"age"`
	Sex domain.Sex `json:"sex"`
}

// FormattedCase is the public shape of one similar case.
type FormattedCase struct {
	CaseID          string      `json:"case_id"`
	Diagnosis       string      `json:"diagnosis"`
	Description     string      `json:"description"`
	SimilarityScore float64     `json:"similarity_score"`
	PatientInfo     PatientInfo `json:"patient_info"`
}

// Envelope is the public retrieval response.
type Envelope struct {
	Success             bool            `json:"success"`
	Error               string          `json:"error,omitempty"`
	SimilarCases        []FormattedCase `json:"similar_cases"`
	TotalFound          int             `json:"total_found"`
	AverageSimilarity   float64         `json:"average_similarity"`
	MostCommonDiagnosis string          `json:"most_common_diagnosis"`
	SearchQuery         string          `json:"search_query"`
}

// Format builds the success envelope from tier output.
func Format(results []domain.SearchResult, query string) Envelope {
	cases := make([]FormattedCase, 0, len(results))
	for _, r := range results {
		cases = append(cases, FormattedCase{
			CaseID:          r.CaseID,
			Diagnosis:       domain.DiagnosisOrUnknown(r.Diagnosis),
			Description:     r.Description,
			SimilarityScore: r.Similarity,
			PatientInfo:     PatientInfo{Age: r.Age, Sex: r.Sex},
		})
	}

	return Envelope{
		Success:             true,
		SimilarCases:        cases,
		TotalFound:          len(cases),
		AverageSimilarity:   averageSimilarity(cases),
		MostCommonDiagnosis: mostCommonDiagnosis(cases),
		SearchQuery:         query,
	}
}

// FailureEnvelope is the outermost-boundary error shape. Tier fallbacks
// never produce it; only orchestration-level failures do.
func FailureEnvelope(err error) Envelope {
	return Envelope{
		Success:             false,
		Error:               err.Error(),
		SimilarCases:        []FormattedCase{},
		MostCommonDiagnosis: "Search failed",
	}
}

// averageSimilarity is the arithmetic mean rounded to 3 decimals, 0 for
// an empty list.
func averageSimilarity(cases []FormattedCase) float64 {
	if len(cases) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cases {
		sum += c.SimilarityScore
	}
	return math.Round(sum/float64(len(cases))*1000) / 1000
}

// mostCommonDiagnosis counts diagnosis frequencies in first-seen order so
// ties resolve deterministically to the earliest-ranked diagnosis.
func mostCommonDiagnosis(cases []FormattedCase) string {
	if len(cases) == 0 {
		return noSimilarCases
	}

	counts := make(map[string]int, len(cases))
	var order []string
	for _, c := range cases {
		if _, seen := counts[c.Diagnosis]; !seen {
			order = append(order, c.Diagnosis)
		}
		counts[c.Diagnosis]++
	}

	best := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
