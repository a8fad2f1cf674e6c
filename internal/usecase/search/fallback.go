package search

import (
	"fmt"
	"strings"

	"github.com/medisearch/casedex/internal/domain"
)

// syntheticCase is one fixed entry of the tier-3 tables.
type syntheticCase struct {
	ID        string
	Diagnosis string
	Age       int
	Sex       domain.Sex
}

// keywordCases binds a keyword to its ordered case list. Kept as an
// ordered slice so multi-keyword queries resolve deterministically.
type keywordCases struct {
	Keyword string
	Cases   []syntheticCase
}

var syntheticTables = []keywordCases{
	{
		Keyword: "tumor",
		Cases: []syntheticCase{
			{"MPX1134", "Brain biopsy confirmed glioblastoma multiforme", 50, domain.SexMale},
			{"MPX1694", "Recurrent high-grade astrocytoma", 38, domain.SexMale},
			{"MPX1420", "Ependymoma", 32, domain.SexMale},
		},
	},
	{
		Keyword: "hemorrhage",
		Cases: []syntheticCase{
			{"MPX1673", "Subarachnoid hemorrhage, aneurysm", 64, domain.SexMale},
			{"MPX1672", "Acute Stroke, Hemorrhage in Basal Ganglia", 36, domain.SexMale},
			{"MPX2195", "cerebellar AVM with PICA aneurysm", 38, domain.SexMale},
		},
	},
	{
		Keyword: "stroke",
		Cases: []syntheticCase{
			{"MPX1672", "Acute Stroke, Hemorrhage in Basal Ganglia", 36, domain.SexMale},
			{"MPX1205", "Left PICA Infarct confirmed with MRI", 58, domain.SexUnknown},
		},
	},
	{
		Keyword: "hydrocephalus",
		Cases: []syntheticCase{
			{"MPX1544", "Non communicating hydrocephalus due to aqueductal stenosis", 21, domain.SexFemale},
			{"MPX2077", "Choroid Plexus Carcinoma", 1, domain.SexFemale},
		},
	},
	{
		Keyword: "glioblastoma",
		Cases: []syntheticCase{
			{"MPX1134", "Brain biopsy confirmed glioblastoma multiforme", 50, domain.SexMale},
			{"MPX1184", "Brain biopsy confirmed glioblastoma multiforme", 25, domain.SexMale},
		},
	},
}

var syntheticDefault = []syntheticCase{
	{"MPX1134", "Brain biopsy confirmed glioblastoma multiforme", 50, domain.SexMale},
	{"MPX1673", "Subarachnoid hemorrhage, aneurysm", 64, domain.SexMale},
	{"MPX1420", "Ependymoma", 32, domain.SexMale},
}

// syntheticResults builds the tier-3 result list: every table whose
// keyword matches the query by substring (either direction) contributes
// its cases in order; similarity starts at 0.8 and drops 0.1 per rank,
// floored at 0.3.
func syntheticResults(query string, topK int) []domain.SearchResult {
	queryLower := strings.ToLower(query)

	var matched []syntheticCase
	for _, table := range syntheticTables {
		if strings.Contains(queryLower, table.Keyword) || strings.Contains(table.Keyword, queryLower) {
			matched = append(matched, table.Cases...)
		}
	}
	if len(matched) == 0 {
		matched = syntheticDefault
	}
	if topK > 0 && len(matched) > topK {
		matched = matched[:topK]
	}

	results := make([]domain.SearchResult, 0, len(matched))
	for i, c := range matched {
		// Integer tenths keep the scores exact decimals (0.8, 0.7, ...).
		similarity := float64(8-i) / 10
		if similarity < 0.3 {
			similarity = 0.3
		}
		age := c.Age
		results = append(results, domain.SearchResult{
			CaseID:      c.ID,
			Diagnosis:   c.Diagnosis,
			Description: fmt.Sprintf("Medical case showing %s related findings", strings.ToLower(c.Diagnosis)),
			Symptoms:    fmt.Sprintf("Symptoms related to %s", c.Diagnosis),
			Similarity:  similarity,
			Age:         &age,
			Sex:         c.Sex,
		})
	}
	return results
}
