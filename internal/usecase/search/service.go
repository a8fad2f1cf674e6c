// Package search implements the tiered similar-case retrieval executor:
// a primary boolean index query, a lexical scan fallback, and a fixed
// synthetic table as the last resort. The caller always gets a result
// list; tier transitions are invisible.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/domain"
	"github.com/medisearch/casedex/internal/logger"
	"github.com/medisearch/casedex/internal/metrics"
)

// retryPolicy bounds tier 2's wait for index propagation.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

var defaultRetry = retryPolicy{attempts: 3, delay: 2 * time.Second}

// Service executes tiered similar-case searches.
type Service struct {
	repo  Repository
	retry retryPolicy
}

// New creates the tiered search service.
func New(repo Repository) *Service {
	return &Service{repo: repo, retry: defaultRetry}
}

// WithRetry overrides the tier-2 propagation retry policy.
func (s *Service) WithRetry(attempts int, delay time.Duration) *Service {
	s.retry = retryPolicy{attempts: attempts, delay: delay}
	return s
}

// SimilarCases runs the tier chain for the composed query text and
// returns up to topK scored results. It never returns an error: hard
// failures in tiers 1 and 2 escalate to the synthetic tier.
func (s *Service) SimilarCases(ctx context.Context, query string, topK int) []domain.SearchResult {
	log := logger.FromContext(ctx)

	results, err := s.primary(ctx, query, topK)
	if err != nil {
		log.Warn("primary search failed, using synthetic fallback",
			zap.String("query", query), zap.Error(err))
		metrics.SearchTierTotal.WithLabelValues("synthetic").Inc()
		return syntheticResults(query, topK)
	}
	if len(results) > 0 {
		metrics.SearchTierTotal.WithLabelValues("primary").Inc()
		return results
	}

	log.Info("primary search empty, trying lexical fallback", zap.String("query", query))

	results, err = s.lexical(ctx, query, topK)
	if err != nil {
		log.Warn("lexical fallback failed, using synthetic fallback",
			zap.String("query", query), zap.Error(err))
	}
	if err == nil && len(results) > 0 {
		metrics.SearchTierTotal.WithLabelValues("lexical").Inc()
		return results
	}

	metrics.SearchTierTotal.WithLabelValues("synthetic").Inc()
	return syntheticResults(query, topK)
}

// BySymptoms runs a plain symptom match. Scores use the same relevance
// normalization as the primary tier. Unlike SimilarCases this surfaces
// errors: there is no synthetic table for free-form symptoms.
func (s *Service) BySymptoms(ctx context.Context, symptoms string, topK int) ([]domain.SearchResult, error) {
	hits, err := s.repo.SearchSymptoms(ctx, symptoms, topK)
	if err != nil {
		return nil, err
	}
	return resultsFromHits(hits, normalizeRelevance), nil
}

// Case fetches a single indexed case by id.
func (s *Service) Case(ctx context.Context, id string) (domain.CaseRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.CaseRecord{}, err
	}
	rec.Diagnosis = domain.DiagnosisOrUnknown(rec.Diagnosis)
	return rec, nil
}

// primary is tier 1: the boolean OR query, relevance normalized into [0,1].
func (s *Service) primary(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	hits, err := s.repo.SearchPrimary(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return resultsFromHits(hits, normalizeRelevance), nil
}

// lexical is tier 2: an unfiltered scan of up to 2×topK documents scored
// by query-word containment. A zero-total corpus is retried a bounded
// number of times to ride out index propagation lag.
func (s *Service) lexical(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	var hits []domain.CaseHit

	for attempt := 0; ; attempt++ {
		var total int
		var err error
		hits, total, err = s.repo.ListAll(ctx, 2*topK)
		if err != nil {
			return nil, err
		}
		if total > 0 || attempt+1 >= s.retry.attempts {
			break
		}
		select {
		case <-time.After(s.retry.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	words := strings.Fields(strings.ToLower(query))
	queryLower := strings.ToLower(query)

	var results []domain.SearchResult
	for _, hit := range hits {
		score, ok := lexicalScore(hit, words, queryLower)
		if !ok {
			continue
		}
		results = append(results, resultFromHit(hit, score))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// lexicalScore decides candidacy and score for one scanned document:
// 0.3 base, then per query word +0.3 for a diagnosis hit or, failing
// that, +0.1 for a description hit. Capped at 1.0.
func lexicalScore(hit domain.CaseHit, words []string, queryLower string) (float64, bool) {
	diagnosis := strings.ToLower(hit.Diagnosis)
	description := strings.ToLower(hit.Description)

	match := queryLower != "" &&
		(strings.Contains(diagnosis, queryLower) || strings.Contains(description, queryLower))
	score := 0.3
	for _, w := range words {
		if strings.Contains(diagnosis, w) {
			score += 0.3
			match = true
		} else if strings.Contains(description, w) {
			score += 0.1
			match = true
		}
	}
	if !match {
		return 0, false
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, true
}

// normalizeRelevance maps the index's native relevance onto [0,1].
func normalizeRelevance(relevance float64) float64 {
	score := relevance / 5.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func resultFromHit(hit domain.CaseHit, similarity float64) domain.SearchResult {
	return domain.SearchResult{
		CaseID:      hit.CaseID,
		Diagnosis:   domain.DiagnosisOrUnknown(hit.Diagnosis),
		Description: hit.Description,
		Symptoms:    hit.Symptoms,
		Similarity:  similarity,
		Age:         hit.Age,
		Sex:         hit.Sex,
	}
}

func resultsFromHits(hits []domain.CaseHit, normalize func(float64) float64) []domain.SearchResult {
	if len(hits) == 0 {
		return nil
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, resultFromHit(hit, normalize(hit.Relevance)))
	}
	return results
}
