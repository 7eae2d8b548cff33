package memory

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 0.2},
		{5, 5, 5, 5},
	}
	for _, v := range vectors {
		if got := CosineSimilarity(v, v); math.Abs(got-1) > 1e-9 {
			t.Errorf("CosineSimilarity(%v, same) = %v, want 1", v, got)
		}
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity is not symmetric")
	}
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"both nil", nil, nil},
		{"one nil", []float32{1, 2}, nil},
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"both zero vectors", []float32{0, 0}, []float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("got %v, want exactly 0", got)
			}
		})
	}
}

func TestCosineSimilarityOpposedVectors(t *testing.T) {
	a := []float32{1, 1}
	b := []float32{-1, -1}
	if got := CosineSimilarity(a, b); math.Abs(got+1) > 1e-9 {
		t.Errorf("opposed vectors scored %v, want -1", got)
	}
}
