package ingest

import (
	"context"

	"github.com/medisearch/casedex/internal/domain"
)

// CaseWriter persists case documents into the search index.
type CaseWriter interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, rec *domain.CaseRecord) error
	Count(ctx context.Context) (int, error)
	Sample(ctx context.Context, n int) ([]domain.CaseHit, error)
	SearchPrimary(ctx context.Context, query string, topK int) ([]domain.CaseHit, error)
}

// Vectorizer produces normalized case vectors. Both calls degrade
// internally and never fail.
type Vectorizer interface {
	Multimodal(ctx context.Context, image []byte, text string) []float32
	Text(ctx context.Context, text string) []float32
}
