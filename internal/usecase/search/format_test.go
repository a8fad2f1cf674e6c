package search

import (
	"errors"
	"testing"

	"github.com/medisearch/casedex/internal/domain"
)

func result(id, diagnosis string, similarity float64) domain.SearchResult {
	return domain.SearchResult{CaseID: id, Diagnosis: diagnosis, Similarity: similarity}
}

func TestFormat_AverageSimilarity(t *testing.T) {
	env := Format([]domain.SearchResult{
		result("A", "X", 0.9),
		result("B", "Y", 0.6),
		result("C", "Z", 0.3),
	}, "q")

	if env.AverageSimilarity != 0.6 {
		t.Errorf("average = %v", env.AverageSimilarity)
	}
	if env.TotalFound != 3 {
		t.Errorf("total = %d", env.TotalFound)
	}
	if !env.Success {
		t.Error("tier output must report success")
	}
}

func TestFormat_AverageRoundedToThreeDecimals(t *testing.T) {
	env := Format([]domain.SearchResult{
		result("A", "X", 0.5),
		result("B", "Y", 0.6),
		result("C", "Z", 0.6),
	}, "q")

	if env.AverageSimilarity != 0.567 {
		t.Errorf("average = %v", env.AverageSimilarity)
	}
}

func TestFormat_EmptyResults(t *testing.T) {
	env := Format(nil, "rare condition")

	if env.AverageSimilarity != 0 {
		t.Errorf("average = %v", env.AverageSimilarity)
	}
	if env.MostCommonDiagnosis != "No similar cases found" {
		t.Errorf("most common = %q", env.MostCommonDiagnosis)
	}
	if env.SimilarCases == nil || len(env.SimilarCases) != 0 {
		t.Errorf("similar cases = %v", env.SimilarCases)
	}
	if env.SearchQuery != "rare condition" {
		t.Errorf("query = %q", env.SearchQuery)
	}
}

func TestFormat_MostCommonDiagnosis(t *testing.T) {
	env := Format([]domain.SearchResult{
		result("A", "Stroke", 0.9),
		result("B", "Tumor", 0.8),
		result("C", "Tumor", 0.7),
	}, "q")

	if env.MostCommonDiagnosis != "Tumor" {
		t.Errorf("most common = %q", env.MostCommonDiagnosis)
	}
}

func TestFormat_TieBreaksToFirstSeen(t *testing.T) {
	env := Format([]domain.SearchResult{
		result("A", "Stroke", 0.9),
		result("B", "Tumor", 0.8),
		result("C", "Stroke", 0.7),
		result("D", "Tumor", 0.6),
	}, "q")

	if env.MostCommonDiagnosis != "Stroke" {
		t.Errorf("tie must break to first-seen, got %q", env.MostCommonDiagnosis)
	}
}

func TestFormat_SentinelApplied(t *testing.T) {
	env := Format([]domain.SearchResult{result("A", "   ", 0.5)}, "q")
	if env.SimilarCases[0].Diagnosis != domain.UnknownDiagnosis {
		t.Errorf("diagnosis = %q", env.SimilarCases[0].Diagnosis)
	}
}

func TestFailureEnvelope(t *testing.T) {
	env := FailureEnvelope(errors.New("decode body"))
	if env.Success {
		t.Error("failure envelope must not report success")
	}
	if env.Error != "decode body" {
		t.Errorf("error = %q", env.Error)
	}
	if env.MostCommonDiagnosis != "Search failed" {
		t.Errorf("most common = %q", env.MostCommonDiagnosis)
	}
}
