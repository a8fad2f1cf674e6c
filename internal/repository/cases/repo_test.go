package cases

import (
	"context"
	"testing"
	"time"

	"github.com/medisearch/casedex/internal/db"
	"github.com/medisearch/casedex/internal/domain"
)

// --- Mock store ---

type mockStore struct {
	hsets       map[string]map[string]string
	createdIdx  *db.IndexDefinition
	createErr   error
	boolResult  *db.SearchResult
	boolErr     error
	boolQuery   *db.BoolQuery
	listResult  *db.SearchResult
	listErr     error
	listedQuery string
}

func newMockStore() *mockStore {
	return &mockStore{hsets: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hsets[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m.hsets[key], nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdIdx = def
	return m.createErr
}

func (m *mockStore) SearchBool(_ context.Context, q *db.BoolQuery) (*db.SearchResult, error) {
	m.boolQuery = q
	if m.boolErr != nil {
		return nil, m.boolErr
	}
	if m.boolResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.boolResult, nil
}

func (m *mockStore) SearchList(
	_ context.Context, _ string, query string, _, _ int, _ []string,
) (*db.SearchResult, error) {
	m.listedQuery = query
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.listResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.listResult, nil
}

func (m *mockStore) SearchCount(_ context.Context, _, _ string) (int, error) {
	if m.listResult != nil {
		return m.listResult.Total, nil
	}
	return 0, nil
}

// --- Tests ---

func intPtr(v int) *int { return &v }

func TestIndex_WritesDocumentFields(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	rec := &domain.CaseRecord{
		ID:                  "MPX1134",
		ImagePath:           "images/MPX1134_01.png",
		Description:         "Ring-enhancing mass",
		Diagnosis:           "Glioblastoma multiforme",
		Symptoms:            "Headache",
		Age:                 intPtr(50),
		Sex:                 domain.SexMale,
		MultimodalEmbedding: domain.ZeroVector(),
		TextEmbedding:       domain.ZeroVector(),
		IndexedAt:           time.Date(2024, 8, 25, 0, 0, 0, 0, time.UTC),
	}

	if err := repo.Index(context.Background(), rec); err != nil {
		t.Fatalf("Index: %v", err)
	}

	fields, ok := store.hsets["case:MPX1134"]
	if !ok {
		t.Fatalf("expected document under case:MPX1134, got keys %v", store.hsets)
	}
	if fields["diagnosis"] != "Glioblastoma multiforme" {
		t.Errorf("diagnosis = %q", fields["diagnosis"])
	}
	if fields["age"] != "50" {
		t.Errorf("age = %q", fields["age"])
	}
	if fields["sex"] != "male" {
		t.Errorf("sex = %q", fields["sex"])
	}
	if len(fields["multimodal_embedding"]) != domain.VectorDim*4 {
		t.Errorf("multimodal vector is %d bytes", len(fields["multimodal_embedding"]))
	}
	if fields["timestamp"] != "2024-08-25T00:00:00Z" {
		t.Errorf("timestamp = %q", fields["timestamp"])
	}
}

func TestIndex_UnknownAgeOmitted(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	rec := &domain.CaseRecord{ID: "MPX1", Sex: domain.SexUnknown}
	if err := repo.Index(context.Background(), rec); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if _, ok := store.hsets["case:MPX1"]["age"]; ok {
		t.Error("unknown age must not be written")
	}
}

func TestIndex_EmptyIDRejected(t *testing.T) {
	repo := New(newMockStore())
	err := repo.Index(context.Background(), &domain.CaseRecord{})
	if err == nil {
		t.Fatal("expected error for empty case id")
	}
}

func TestEnsureIndex_IgnoresAlreadyExists(t *testing.T) {
	store := newMockStore()
	store.createErr = db.ErrIndexExists
	repo := New(store)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex should swallow ErrIndexExists, got %v", err)
	}
	if store.createdIdx == nil {
		t.Fatal("CreateIndex not called")
	}
	if store.createdIdx.Name != "cases-idx" {
		t.Errorf("index name = %q", store.createdIdx.Name)
	}
}

func TestSearchPrimary_BuildsTierOneClauses(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	_, err := repo.SearchPrimary(context.Background(), "brain tumor", 5)
	if err != nil {
		t.Fatalf("SearchPrimary: %v", err)
	}

	q := store.boolQuery
	if q == nil {
		t.Fatal("SearchBool not called")
	}
	if len(q.Should) != 4 {
		t.Fatalf("expected 4 OR clauses, got %d", len(q.Should))
	}
	fuzzy := q.Should[0]
	if fuzzy.Kind != db.ClauseFuzzyMulti || len(fuzzy.Fields) != 3 {
		t.Fatalf("first clause must be 3-field fuzzy, got %+v", fuzzy)
	}
	if fuzzy.Fields[0].Name != "diagnosis" || fuzzy.Fields[0].Weight != 3 {
		t.Errorf("diagnosis weight = %+v", fuzzy.Fields[0])
	}
	if fuzzy.Fields[1].Weight != 2 || fuzzy.Fields[2].Weight != 1 {
		t.Errorf("description/symptoms weights = %+v", fuzzy.Fields[1:])
	}
	if q.Should[3].Kind != db.ClausePhrasePrefix {
		t.Errorf("last clause must be phrase-prefix, got %v", q.Should[3].Kind)
	}
	if q.TopK != 5 {
		t.Errorf("TopK = %d", q.TopK)
	}
}

func TestSearchPrimary_ParsesHits(t *testing.T) {
	store := newMockStore()
	store.boolResult = &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{{
			Key:   "case:MPX1672",
			Score: 4.2,
			Fields: map[string]string{
				"u_id":        "MPX1672",
				"diagnosis":   "Acute Stroke",
				"description": "Basal ganglia hemorrhage",
				"age":         "36",
				"sex":         "male",
			},
		}},
	}
	repo := New(store)

	hits, err := repo.SearchPrimary(context.Background(), "stroke", 5)
	if err != nil {
		t.Fatalf("SearchPrimary: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	h := hits[0]
	if h.CaseID != "MPX1672" || h.Relevance != 4.2 {
		t.Errorf("hit = %+v", h)
	}
	if h.Age == nil || *h.Age != 36 {
		t.Errorf("age = %v", h.Age)
	}
	if h.Sex != domain.SexMale {
		t.Errorf("sex = %v", h.Sex)
	}
}

func TestListAll_ReturnsTotal(t *testing.T) {
	store := newMockStore()
	store.listResult = &db.SearchResult{
		Total: 42,
		Entries: []db.SearchEntry{
			{Key: "case:A", Fields: map[string]string{"u_id": "A", "diagnosis": "X"}},
		},
	}
	repo := New(store)

	hits, total, err := repo.ListAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d", total)
	}
	if len(hits) != 1 || hits[0].CaseID != "A" {
		t.Errorf("hits = %+v", hits)
	}
	if store.listedQuery != "*" {
		t.Errorf("list query = %q, want match-all", store.listedQuery)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3.0}
	out := bytesToVector(vectorToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
}
