package search

import (
	"context"

	"github.com/medisearch/casedex/internal/domain"
)

// Repository is the index access the tiered executor needs.
type Repository interface {
	SearchPrimary(ctx context.Context, query string, topK int) ([]domain.CaseHit, error)
	SearchSymptoms(ctx context.Context, symptoms string, topK int) ([]domain.CaseHit, error)
	ListAll(ctx context.Context, limit int) ([]domain.CaseHit, int, error)
	Get(ctx context.Context, id string) (domain.CaseRecord, error)
}
