// Command ingest sweeps a JSONL corpus plus an image directory into the
// case index.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/config"
	dbRedis "github.com/medisearch/casedex/internal/db/redis"
	logpkg "github.com/medisearch/casedex/internal/logger"
	"github.com/medisearch/casedex/internal/metrics"
	casesrepo "github.com/medisearch/casedex/internal/repository/cases"
	openaiEmb "github.com/medisearch/casedex/internal/transport/openai"
	titanEmb "github.com/medisearch/casedex/internal/transport/titan"
	embeddinguc "github.com/medisearch/casedex/internal/usecase/embedding"
	ingestuc "github.com/medisearch/casedex/internal/usecase/ingest"
	"github.com/medisearch/casedex/internal/version"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "ingest",
		Usage:   "index a medical case corpus for similar-case retrieval",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "corpus",
				Usage:    "path to the JSONL corpus file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "images",
				Usage:    "path to the case image directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "config environment (local, dev, prod)",
				Value: config.GetEnv(),
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "parallel ingestion workers (overrides config)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	env := c.String("env")

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	workers := cfg.Ingest.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	logger.Info("Starting corpus ingestion",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("corpus", c.String("corpus")),
		zap.String("images", c.String("images")),
		zap.Int("workers", workers))

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create index store: %w", err)
	}
	defer store.Close()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("index not ready: %w", err)
	}

	metrics.Register()

	textEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.Text.APIKey,
		BaseURL:    cfg.Embedding.Text.BaseURL,
		Model:      cfg.Embedding.Text.Model,
		Dimensions: cfg.Embedding.Text.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var multimodal embeddinguc.MultimodalClient
	if cfg.Embedding.Multimodal.Endpoint != "" {
		multimodal = titanEmb.NewEmbedder(&titanEmb.Config{
			Endpoint:   cfg.Embedding.Multimodal.Endpoint,
			APIKey:     cfg.Embedding.Multimodal.APIKey,
			Model:      cfg.Embedding.Multimodal.Model,
			Dimensions: cfg.Embedding.Multimodal.Dimensions,
			Timeout:    time.Duration(cfg.Embedding.Multimodal.TimeoutSec) * time.Second,
		})
	} else {
		logger.Warn("multimodal endpoint not configured, text-only embeddings")
	}

	generator := embeddinguc.NewGenerator(multimodal, textEmbedder)

	repo := casesrepo.New(store).
		WithNames(cfg.Index.Name, cfg.Index.KeyPrefix).
		WithHNSW(casesrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})

	svc := ingestuc.New(repo, generator, ingestuc.Config{
		Workers:     workers,
		SettleDelay: time.Duration(cfg.Ingest.SettleDelaySec) * time.Second,
		SampleSize:  cfg.Ingest.SampleSize,
	})

	stats, err := svc.Run(ctx, c.String("corpus"), c.String("images"))
	if err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}

	logger.Info("Ingestion complete",
		zap.Int("total", stats.Total),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("no_image", stats.NoImage))
	return nil
}
