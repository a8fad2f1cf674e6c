package embedding

import "context"

// MultimodalClient produces embeddings from an image plus optional text.
type MultimodalClient interface {
	EmbedMultimodal(ctx context.Context, image []byte, text string) ([]float32, error)
}

// TextClient produces embeddings from text alone.
type TextClient interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
