package cases

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/medisearch/casedex/internal/domain"
)

// Hash field names of an indexed case document.
const (
	fieldCaseID       = "u_id"
	fieldImagePath    = "image_path"
	fieldDescription  = "description"
	fieldDiagnosis    = "diagnosis"
	fieldSymptoms     = "symptoms"
	fieldAge          = "age"
	fieldSex          = "sex"
	fieldMultimodal   = "multimodal_embedding"
	fieldTextEmbed    = "text_embedding"
	fieldIndexedAt    = "timestamp"
)

// buildHashFields converts a CaseRecord into a flat map[string]string for HSET.
// The age field is omitted entirely when unknown so NUMERIC queries skip it.
func buildHashFields(rec *domain.CaseRecord) map[string]string {
	m := map[string]string{
		fieldCaseID:      rec.ID,
		fieldImagePath:   rec.ImagePath,
		fieldDescription: rec.Description,
		fieldDiagnosis:   rec.Diagnosis,
		fieldSymptoms:    rec.Symptoms,
		fieldSex:         string(rec.Sex),
		fieldMultimodal:  vectorToBytes(rec.MultimodalEmbedding),
		fieldTextEmbed:   vectorToBytes(rec.TextEmbedding),
		fieldIndexedAt:   rec.IndexedAt.UTC().Format(time.RFC3339),
	}
	if rec.Age != nil {
		m[fieldAge] = strconv.Itoa(*rec.Age)
	}
	return m
}

// hitFromFields converts a flat hash map into a CaseHit with the given relevance.
func hitFromFields(fields map[string]string, relevance float64) domain.CaseHit {
	hit := domain.CaseHit{
		CaseID:      fields[fieldCaseID],
		Diagnosis:   fields[fieldDiagnosis],
		Description: fields[fieldDescription],
		Symptoms:    fields[fieldSymptoms],
		Sex:         domain.ParseSex(fields[fieldSex]),
		Relevance:   relevance,
	}
	if hit.CaseID == "" {
		hit.CaseID = "unknown"
	}
	if s, ok := fields[fieldAge]; ok && s != "" {
		if age, err := strconv.Atoi(s); err == nil {
			hit.Age = &age
		}
	}
	return hit
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
