package agent

import (
	"fmt"
	"math"
)

// Similarity measures how close two embedding vectors are. Pure function
// of its inputs.
type Similarity func(a, b []float32) float64

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths or a zero vector score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DotSimilarity returns the raw dot product of a and b. Useful when the
// embedding model emits normalized vectors.
func DotSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// similarityByName maps the configured measure to its function.
func similarityByName(name string) (Similarity, error) {
	switch name {
	case "", "cosine":
		return CosineSimilarity, nil
	case "dot":
		return DotSimilarity, nil
	default:
		return nil, fmt.Errorf("unknown similarity measure %q", name)
	}
}
