package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/medisearch/casedex/internal/domain"
)

type mockMultimodal struct {
	gotText  string
	gotImage []byte
	vec      []float32
	err      error
}

func (m *mockMultimodal) EmbedMultimodal(_ context.Context, image []byte, text string) ([]float32, error) {
	m.gotImage = image
	m.gotText = text
	return m.vec, m.err
}

type mockText struct {
	gotText string
	vec     []float32
	err     error
}

func (m *mockText) EmbedText(_ context.Context, text string) ([]float32, error) {
	m.gotText = text
	return m.vec, m.err
}

func TestMultimodal_NormalizesToFixedDim(t *testing.T) {
	mm := &mockMultimodal{vec: []float32{1, 2, 3}}
	g := NewGenerator(mm, &mockText{})

	vec := g.Multimodal(context.Background(), []byte{1}, "scan")
	if len(vec) != domain.VectorDim {
		t.Fatalf("vector dim %d, want %d", len(vec), domain.VectorDim)
	}
	if vec[0] != 1 || vec[2] != 3 || vec[3] != 0 {
		t.Errorf("vector not padded: %v", vec[:4])
	}
}

func TestMultimodal_EmptyTextUsesPlaceholder(t *testing.T) {
	mm := &mockMultimodal{vec: []float32{1}}
	g := NewGenerator(mm, &mockText{})

	g.Multimodal(context.Background(), []byte{1}, "")
	if mm.gotText != "medical image analysis" {
		t.Errorf("placeholder = %q", mm.gotText)
	}
}

func TestMultimodal_ProviderErrorFallsBackToText(t *testing.T) {
	mm := &mockMultimodal{err: errors.New("throttled")}
	txt := &mockText{vec: []float32{0.5}}
	g := NewGenerator(mm, txt)

	vec := g.Multimodal(context.Background(), []byte{1}, "ct scan brain")
	if txt.gotText != "ct scan brain" {
		t.Errorf("text fallback got %q", txt.gotText)
	}
	if vec[0] != 0.5 {
		t.Errorf("vector head = %v", vec[0])
	}
}

func TestMultimodal_NilClientDegradesToText(t *testing.T) {
	txt := &mockText{vec: []float32{0.7}}
	g := NewGenerator(nil, txt)

	vec := g.Multimodal(context.Background(), []byte{1}, "report")
	if vec[0] != 0.7 {
		t.Errorf("vector head = %v", vec[0])
	}
}

func TestText_EmptyUsesPlaceholder(t *testing.T) {
	txt := &mockText{vec: []float32{1}}
	g := NewGenerator(nil, txt)

	g.Text(context.Background(), "")
	if txt.gotText != "medical analysis" {
		t.Errorf("placeholder = %q", txt.gotText)
	}
}

func TestWhitespaceOnlyTextUsesPlaceholder(t *testing.T) {
	txt := &mockText{vec: []float32{1}}
	g := NewGenerator(nil, txt)

	g.Text(context.Background(), "   \n\t")
	if txt.gotText != "medical analysis" {
		t.Errorf("text placeholder = %q", txt.gotText)
	}

	mm := &mockMultimodal{vec: []float32{1}}
	g = NewGenerator(mm, txt)

	g.Multimodal(context.Background(), []byte{1}, "  ")
	if mm.gotText != "medical image analysis" {
		t.Errorf("multimodal placeholder = %q", mm.gotText)
	}
}

func TestText_ProviderErrorReturnsZeroVector(t *testing.T) {
	txt := &mockText{err: errors.New("down")}
	g := NewGenerator(nil, txt)

	vec := g.Text(context.Background(), "anything")
	if len(vec) != domain.VectorDim {
		t.Fatalf("dim = %d", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0", i, v)
		}
	}
}

func TestText_TruncatesOversizedVector(t *testing.T) {
	big := make([]float32, domain.VectorDim+10)
	for i := range big {
		big[i] = 1
	}
	txt := &mockText{vec: big}
	g := NewGenerator(nil, txt)

	vec := g.Text(context.Background(), "x")
	if len(vec) != domain.VectorDim {
		t.Fatalf("dim = %d", len(vec))
	}
}
