package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/medisearch/casedex/internal/db"
	"github.com/medisearch/casedex/internal/domain"
)

// store is the consumer interface for case storage and search (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchBool(ctx context.Context, q *db.BoolQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig tunes the multimodal vector index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores and searches case documents in the FT index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
	hnsw      HNSWConfig
}

// New creates a case repository with default index naming.
func New(s store) *Repo {
	return &Repo{
		store:     s,
		indexName: "cases-idx",
		keyPrefix: "case:",
	}
}

// WithNames overrides the index name and document key prefix.
func (r *Repo) WithNames(index, prefix string) *Repo {
	if index != "" {
		r.indexName = index
	}
	if prefix != "" {
		r.keyPrefix = prefix
	}
	return r
}

// WithHNSW sets HNSW build parameters for the multimodal vector field.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// returnFields lists the document fields fetched by searches. Vectors are
// excluded: they are written once at ingestion and never read back per query.
var returnFields = []string{
	fieldCaseID, fieldDiagnosis, fieldDescription, fieldSymptoms, fieldAge, fieldSex,
}

// EnsureIndex creates the case index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     r.indexName,
		Prefixes: []string{r.keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldCaseID, Type: db.IndexFieldTag},
			{Name: fieldImagePath, Type: db.IndexFieldTag},
			{Name: fieldDiagnosis, Type: db.IndexFieldText, Weight: 3, WithSuffixTrie: true},
			{Name: fieldDescription, Type: db.IndexFieldText, Weight: 2, WithSuffixTrie: true},
			{Name: fieldSymptoms, Type: db.IndexFieldText, Weight: 1},
			{Name: fieldAge, Type: db.IndexFieldNumeric},
			{Name: fieldSex, Type: db.IndexFieldTag},
			{
				Name: fieldMultimodal, Type: db.IndexFieldVector,
				VectorAlgo: db.VectorHNSW, VectorDim: domain.VectorDim,
				VectorDistance: db.DistanceCosine,
				VectorM:        r.hnsw.M, VectorEFConstruct: r.hnsw.EFConstruct,
			},
			{
				Name: fieldTextEmbed, Type: db.IndexFieldVector,
				VectorAlgo: db.VectorFlat, VectorDim: domain.VectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create case index: %w", err)
	}
	return nil
}

// Index writes a case document. Re-indexing an existing case id overwrites it.
func (r *Repo) Index(ctx context.Context, rec *domain.CaseRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty case id", domain.ErrMalformedCase)
	}
	if err := r.store.HSet(ctx, r.keyPrefix+rec.ID, buildHashFields(rec)); err != nil {
		return fmt.Errorf("index case %s: %w", rec.ID, err)
	}
	return nil
}

// SearchPrimary runs the tier-1 boolean query: weighted fuzzy multi-field
// match OR substring match on diagnosis OR substring match on description OR
// phrase-prefix on diagnosis, with minimum-should-match 1.
func (r *Repo) SearchPrimary(ctx context.Context, query string, topK int) ([]domain.CaseHit, error) {
	q := &db.BoolQuery{
		IndexName: r.indexName,
		Should: []db.BoolClause{
			{
				Kind: db.ClauseFuzzyMulti,
				Fields: []db.WeightedField{
					{Name: fieldDiagnosis, Weight: 3},
					{Name: fieldDescription, Weight: 2},
					{Name: fieldSymptoms, Weight: 1},
				},
				Query: query,
			},
			{Kind: db.ClauseContains, Field: fieldDiagnosis, Query: query},
			{Kind: db.ClauseContains, Field: fieldDescription, Query: query},
			{Kind: db.ClausePhrasePrefix, Field: fieldDiagnosis, Query: query},
		},
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBool(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: primary search: %w", domain.ErrQueryFailed, err)
	}
	return hitsFromResult(sr, 0), nil
}

// SearchSymptoms runs a plain OR match over symptoms, description and
// diagnosis, returning raw relevance scores.
func (r *Repo) SearchSymptoms(ctx context.Context, symptoms string, topK int) ([]domain.CaseHit, error) {
	q := &db.BoolQuery{
		IndexName: r.indexName,
		Should: []db.BoolClause{
			{Kind: db.ClauseMatch, Field: fieldSymptoms, Query: symptoms},
			{Kind: db.ClauseMatch, Field: fieldDescription, Query: symptoms},
			{Kind: db.ClauseMatch, Field: fieldDiagnosis, Query: symptoms},
		},
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBool(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: symptom search: %w", domain.ErrQueryFailed, err)
	}
	return hitsFromResult(sr, 0), nil
}

// ListAll retrieves up to limit documents via an unfiltered match-all read.
// The second return value is the index's total document count, which tier 2
// uses to distinguish an empty corpus from a non-matching query.
func (r *Repo) ListAll(ctx context.Context, limit int) ([]domain.CaseHit, int, error) {
	sr, err := r.store.SearchList(ctx, r.indexName, "*", 0, limit, returnFields)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list cases: %w", domain.ErrQueryFailed, err)
	}
	return hitsFromResult(sr, 0), sr.Total, nil
}

// Count returns the total number of indexed case documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("%w: count cases: %w", domain.ErrQueryFailed, err)
	}
	return n, nil
}

// Sample reads back up to n indexed documents for post-ingest validation.
func (r *Repo) Sample(ctx context.Context, n int) ([]domain.CaseHit, error) {
	sr, err := r.store.SearchList(ctx, r.indexName, "*", 0, n,
		[]string{fieldCaseID, fieldDiagnosis})
	if err != nil {
		return nil, fmt.Errorf("%w: sample cases: %w", domain.ErrQueryFailed, err)
	}
	return hitsFromResult(sr, 0), nil
}

// Get fetches a single case document by id, vectors included.
func (r *Repo) Get(ctx context.Context, id string) (domain.CaseRecord, error) {
	fields, err := r.store.HGetAll(ctx, r.keyPrefix+id)
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("get case %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.CaseRecord{}, domain.ErrCaseNotFound
	}

	hit := hitFromFields(fields, 0)
	rec := domain.CaseRecord{
		ID:                  hit.CaseID,
		ImagePath:           fields[fieldImagePath],
		Description:         hit.Description,
		Diagnosis:           hit.Diagnosis,
		Symptoms:            hit.Symptoms,
		Age:                 hit.Age,
		Sex:                 hit.Sex,
		MultimodalEmbedding: bytesToVector(fields[fieldMultimodal]),
		TextEmbedding:       bytesToVector(fields[fieldTextEmbed]),
	}
	return rec, nil
}

func hitsFromResult(sr *db.SearchResult, defaultScore float64) []domain.CaseHit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]domain.CaseHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		score := entry.Score
		if score == 0 {
			score = defaultScore
		}
		hits = append(hits, hitFromFields(entry.Fields, score))
	}
	return hits
}
