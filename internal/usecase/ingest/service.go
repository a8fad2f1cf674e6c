// Package ingest sweeps a JSONL corpus joined with an image directory
// into the case index: one document per case, extraction waterfalls per
// field, skip-and-log on per-case failure.
package ingest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/domain"
	"github.com/medisearch/casedex/internal/logger"
	"github.com/medisearch/casedex/internal/metrics"
)

// Config tunes the ingestion sweep.
type Config struct {
	// Workers > 1 enables a goroutine pool for per-case work.
	Workers int
	// SettleDelay is the wait between the sweep and validation reads,
	// covering index propagation lag.
	SettleDelay time.Duration
	// SampleSize is how many documents to read back for validation.
	SampleSize int
}

// Stats summarizes one ingestion run.
type Stats struct {
	Total   int
	Indexed int
	Skipped int
	NoImage int
}

// Service runs the corpus ingestion sweep.
type Service struct {
	writer     CaseWriter
	vectorizer Vectorizer
	cfg        Config
}

// New creates an ingestion service.
func New(writer CaseWriter, vectorizer Vectorizer, cfg Config) *Service {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	if cfg.SampleSize == 0 {
		cfg.SampleSize = 5
	}
	return &Service{writer: writer, vectorizer: vectorizer, cfg: cfg}
}

// Run loads the corpus and image listing, indexes every case that has an
// image, then validates the index with read-backs and smoke searches.
// Per-case failures are logged and skipped; Run fails only on setup errors.
func (s *Service) Run(ctx context.Context, corpusPath, imagesDir string) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	corpus, err := LoadCorpus(ctx, corpusPath)
	if err != nil {
		return stats, err
	}
	images, err := ListImages(imagesDir)
	if err != nil {
		return stats, err
	}
	if err := s.writer.EnsureIndex(ctx); err != nil {
		return stats, fmt.Errorf("ensure index: %w", err)
	}

	log.Info("ingestion sweep starting",
		zap.Int("cases", len(corpus)),
		zap.Int("images", len(images)),
		zap.Int("workers", s.cfg.Workers))

	stats.Total = len(corpus)

	var mu sync.Mutex
	process := func(rc RawCase, imagePath string) {
		if err := s.indexCase(ctx, rc, imagePath); err != nil {
			log.Warn("case skipped", zap.String("case_id", rc.ID), zap.Error(err))
			metrics.IngestCasesTotal.WithLabelValues("skipped").Inc()
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			return
		}
		metrics.IngestCasesTotal.WithLabelValues("indexed").Inc()
		mu.Lock()
		stats.Indexed++
		mu.Unlock()
	}

	if s.cfg.Workers > 1 {
		pool, err := ants.NewPool(s.cfg.Workers)
		if err != nil {
			return stats, fmt.Errorf("worker pool: %w", err)
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for _, rc := range corpus {
			imagePath, ok := images[rc.ID]
			if !ok {
				stats.NoImage++
				continue
			}
			rc := rc
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				process(rc, imagePath)
			}); err != nil {
				wg.Done()
				log.Warn("pool submit failed", zap.String("case_id", rc.ID), zap.Error(err))
				mu.Lock()
				stats.Skipped++
				mu.Unlock()
			}
		}
		wg.Wait()
	} else {
		for _, rc := range corpus {
			imagePath, ok := images[rc.ID]
			if !ok {
				stats.NoImage++
				continue
			}
			process(rc, imagePath)
		}
	}

	log.Info("ingestion sweep finished",
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("no_image", stats.NoImage))

	s.validate(ctx, log)

	return stats, nil
}

// indexCase converts one raw case into an indexed document.
func (s *Service) indexCase(ctx context.Context, rc RawCase, imagePath string) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	description := ExtractDescription(rc)

	rec := &domain.CaseRecord{
		ID:                  rc.ID,
		ImagePath:           imagePath,
		Description:         description,
		Diagnosis:           ExtractDiagnosis(rc),
		Symptoms:            ExtractSymptoms(rc),
		Age:                 ExtractAge(rc),
		Sex:                 ExtractSex(rc),
		MultimodalEmbedding: s.vectorizer.Multimodal(ctx, image, description),
		TextEmbedding:       s.vectorizer.Text(ctx, description),
		IndexedAt:           time.Now().UTC(),
	}

	return s.writer.Index(ctx, rec)
}

// smokeQueries are run read-only after ingestion to confirm the index
// answers the common diagnosis searches.
var smokeQueries = []string{"tumor", "hemorrhage", "stroke", "glioblastoma"}

// validate waits out index propagation, reads back a document sample and
// runs smoke searches. Anomalies are logged, never fatal.
func (s *Service) validate(ctx context.Context, log *zap.Logger) {
	select {
	case <-time.After(s.cfg.SettleDelay):
	case <-ctx.Done():
		return
	}

	if n, err := s.writer.Count(ctx); err != nil {
		log.Warn("post-ingest count failed", zap.Error(err))
	} else {
		log.Info("index document count", zap.Int("count", n))
	}

	sample, err := s.writer.Sample(ctx, s.cfg.SampleSize)
	if err != nil {
		log.Warn("post-ingest sample failed", zap.Error(err))
	}
	for _, hit := range sample {
		if hit.Diagnosis == "" || hit.Diagnosis == domain.UnknownDiagnosis {
			log.Warn("sampled case without a real diagnosis",
				zap.String("case_id", hit.CaseID),
				zap.String("diagnosis", hit.Diagnosis))
		}
	}

	for _, q := range smokeQueries {
		hits, err := s.writer.SearchPrimary(ctx, q, 3)
		if err != nil {
			log.Warn("smoke search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		log.Info("smoke search", zap.String("query", q), zap.Int("hits", len(hits)))
	}
}
