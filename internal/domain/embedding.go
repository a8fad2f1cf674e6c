package domain

// VectorDim is the fixed embedding dimensionality. Every vector stored in or
// read from the index has exactly this many elements.
const VectorDim = 1024

// NormalizeVector pads a short vector with zeros on the right and truncates a
// long one to the first VectorDim elements. The input is not modified.
func NormalizeVector(v []float32) []float32 {
	out := make([]float32, VectorDim)
	copy(out, v)
	return out
}

// ZeroVector returns an all-zero vector of VectorDim elements.
func ZeroVector() []float32 {
	return make([]float32, VectorDim)
}
