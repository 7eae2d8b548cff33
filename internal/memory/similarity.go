package memory

import "math"

// CosineSimilarity computes the cosine similarity between two float32
// vectors, in [-1, 1]. Nil or unequal-length inputs score 0, as does a
// zero vector (healthy embeddings are never the zero vector, but callers
// must not see NaN at that boundary).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
