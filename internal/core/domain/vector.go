package domain

import "math"

// CosineSimilarity returns the cosine of the angle between two vectors
// in [0,1] for non-negative correlations. Mismatched or zero-magnitude
// vectors score 0, which keeps unembedded chunks out of vector results
// without special-casing.
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
