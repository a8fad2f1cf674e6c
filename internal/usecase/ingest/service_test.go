package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medisearch/casedex/internal/domain"
)

type mockWriter struct {
	mu       sync.Mutex
	indexed  []*domain.CaseRecord
	indexErr map[string]error
	smoke    []string
}

func newMockWriter() *mockWriter {
	return &mockWriter{indexErr: make(map[string]error)}
}

func (m *mockWriter) EnsureIndex(context.Context) error { return nil }

func (m *mockWriter) Index(_ context.Context, rec *domain.CaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.indexErr[rec.ID]; err != nil {
		return err
	}
	m.indexed = append(m.indexed, rec)
	return nil
}

func (m *mockWriter) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.indexed), nil
}

func (m *mockWriter) Sample(context.Context, int) ([]domain.CaseHit, error) {
	return nil, nil
}

func (m *mockWriter) SearchPrimary(_ context.Context, query string, _ int) ([]domain.CaseHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smoke = append(m.smoke, query)
	return nil, nil
}

type stubVectorizer struct{}

func (stubVectorizer) Multimodal(context.Context, []byte, string) []float32 {
	return domain.ZeroVector()
}

func (stubVectorizer) Text(context.Context, string) []float32 {
	return domain.ZeroVector()
}

func setupSweep(t *testing.T) (corpusPath, imagesDir string) {
	t.Helper()
	dir := t.TempDir()
	corpusPath = writeFile(t, dir, "corpus.jsonl", `
{"U_id":"MPX1","Case":{"Case Diagnosis":"Glioblastoma","History":"a 50 year old man"}}
{"U_id":"MPX2","Case":{"Case Diagnosis":"Stroke"}}
{"U_id":"MPX3","Case":{"Case Diagnosis":"No image case"}}
`)
	imagesDir = t.TempDir()
	writeFile(t, imagesDir, "MPX1_01.png", "img")
	writeFile(t, imagesDir, "MPX2_01.png", "img")
	return corpusPath, imagesDir
}

func TestRun_IndexesCasesWithImages(t *testing.T) {
	corpusPath, imagesDir := setupSweep(t)
	writer := newMockWriter()
	svc := New(writer, stubVectorizer{}, Config{SettleDelay: time.Millisecond})

	stats, err := svc.Run(context.Background(), corpusPath, imagesDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 3 || stats.Indexed != 2 || stats.NoImage != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(writer.indexed) != 2 {
		t.Fatalf("indexed %d cases", len(writer.indexed))
	}

	first := writer.indexed[0]
	if first.ID != "MPX1" || first.Diagnosis != "Glioblastoma" {
		t.Errorf("first record = %+v", first)
	}
	if first.Age == nil || *first.Age != 50 || first.Sex != domain.SexMale {
		t.Errorf("demographics = %v / %v", first.Age, first.Sex)
	}
	if len(first.MultimodalEmbedding) != domain.VectorDim {
		t.Errorf("vector dim = %d", len(first.MultimodalEmbedding))
	}
	if first.IndexedAt.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestRun_SkipsFailingCaseAndContinues(t *testing.T) {
	corpusPath, imagesDir := setupSweep(t)
	writer := newMockWriter()
	writer.indexErr["MPX1"] = errors.New("store down")
	svc := New(writer, stubVectorizer{}, Config{SettleDelay: time.Millisecond})

	stats, err := svc.Run(context.Background(), corpusPath, imagesDir)
	if err != nil {
		t.Fatalf("Run must not fail on per-case errors: %v", err)
	}
	if stats.Indexed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_WorkerPoolIndexesAll(t *testing.T) {
	corpusPath, imagesDir := setupSweep(t)
	writer := newMockWriter()
	svc := New(writer, stubVectorizer{}, Config{Workers: 4, SettleDelay: time.Millisecond})

	stats, err := svc.Run(context.Background(), corpusPath, imagesDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("indexed = %d", stats.Indexed)
	}
}

func TestRun_RunsSmokeSearches(t *testing.T) {
	corpusPath, imagesDir := setupSweep(t)
	writer := newMockWriter()
	svc := New(writer, stubVectorizer{}, Config{SettleDelay: time.Millisecond})

	if _, err := svc.Run(context.Background(), corpusPath, imagesDir); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(writer.smoke) != len(smokeQueries) {
		t.Errorf("smoke queries = %v", writer.smoke)
	}
}
