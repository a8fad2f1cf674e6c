package domain

import (
	"strings"
	"time"
)

// UnknownDiagnosis is stored and returned whenever no diagnosis could be
// extracted or the indexed value is empty.
const UnknownDiagnosis = "Unknown Diagnosis"

// Sex is the patient sex recorded with a case.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// ParseSex normalizes a raw sex value, defaulting to SexUnknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "man":
		return SexMale
	case "female", "f", "woman":
		return SexFemale
	default:
		return SexUnknown
	}
}

// CaseRecord is a single medical case as stored in the search index.
// Immutable after creation; both embeddings always have VectorDim elements.
type CaseRecord struct {
	ID                  string
	ImagePath           string
	Description         string
	Diagnosis           string
	Symptoms            string
	Age                 *int // nil when unknown
	Sex                 Sex
	MultimodalEmbedding []float32
	TextEmbedding       []float32
	IndexedAt           time.Time
}

// CaseHit is a raw index hit before tier scoring. Relevance is the index's
// native relevance score, not yet normalized to [0,1].
type CaseHit struct {
	CaseID      string
	Diagnosis   string
	Description string
	Symptoms    string
	Age         *int
	Sex         Sex
	Relevance   float64
}

// SearchResult is a scored similar-case result. Similarity is always in [0,1]
// and Diagnosis is never empty (sentinel rule). Created fresh per query and
// never mutated after construction.
type SearchResult struct {
	CaseID      string
	Diagnosis   string
	Description string
	Symptoms    string
	Similarity  float64
	Age         *int
	Sex         Sex
}

// DiagnosisReport is the boundary shape produced by the (out of scope)
// diagnosis producer and consumed by the query composer and alert evaluator.
type DiagnosisReport struct {
	Diagnosis  string
	Confidence string // e.g. "85%"
	Findings   string
	Location   string
}

// DiagnosisOrUnknown applies the sentinel rule: empty or whitespace-only
// diagnosis values become UnknownDiagnosis.
func DiagnosisOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownDiagnosis
	}
	return s
}
