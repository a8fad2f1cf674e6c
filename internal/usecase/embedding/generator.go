// Package embedding implements the degradation cascade for case vectors:
// multimodal first, text-only on provider failure, zero vector as the
// last resort. Every output is a fixed 1024-dim vector.
package embedding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/domain"
	"github.com/medisearch/casedex/internal/logger"
	"github.com/medisearch/casedex/internal/metrics"
)

// Placeholder inputs used when a caller supplies no text.
const (
	placeholderImage = "medical image analysis"
	placeholderText  = "medical analysis"
)

// Generator produces normalized case vectors via the provider cascade.
type Generator struct {
	multimodal MultimodalClient
	text       TextClient
}

// NewGenerator creates a cascade generator. The multimodal client may be
// nil, in which case Multimodal degrades straight to text-only.
func NewGenerator(multimodal MultimodalClient, text TextClient) *Generator {
	return &Generator{multimodal: multimodal, text: text}
}

// Multimodal embeds an image together with text. Empty or whitespace-only
// text is replaced by a placeholder so the provider always receives a
// textual anchor. On provider failure the call degrades to Text, never
// returning an error.
func (g *Generator) Multimodal(ctx context.Context, image []byte, text string) []float32 {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(text) == "" {
		text = placeholderImage
	}

	if g.multimodal != nil {
		vec, err := g.multimodal.EmbedMultimodal(ctx, image, text)
		if err == nil {
			return domain.NormalizeVector(vec)
		}
		log.Warn("multimodal embedding failed, falling back to text",
			zap.Error(err))
	}
	metrics.EmbeddingFallbacksTotal.WithLabelValues("text_only").Inc()

	return g.Text(ctx, text)
}

// Text embeds text alone. Empty or whitespace-only text is replaced by a
// placeholder. On provider failure the zero vector is returned so
// ingestion never stalls on a flaky provider.
func (g *Generator) Text(ctx context.Context, text string) []float32 {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(text) == "" {
		text = placeholderText
	}

	vec, err := g.text.EmbedText(ctx, text)
	if err != nil {
		log.Warn("text embedding failed, using zero vector", zap.Error(err))
		metrics.EmbeddingFallbacksTotal.WithLabelValues("zero_vector").Inc()
		return domain.ZeroVector()
	}
	return domain.NormalizeVector(vec)
}
