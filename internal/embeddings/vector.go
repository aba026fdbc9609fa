package embeddings

import (
	"fmt"
	"math"
)

// L2Normalize returns a unit-length copy of v. A zero vector is returned
// as-is since it has no direction to preserve.
func L2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Mean returns the elementwise mean of the given vectors.
func Mean(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("cannot average zero vectors")
	}
	dims := len(vecs[0])
	acc := make([]float64, dims)
	for i, v := range vecs {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), dims)
		}
		for j, x := range v {
			acc[j] += float64(x)
		}
	}
	out := make([]float32, dims)
	n := float64(len(vecs))
	for j, s := range acc {
		out[j] = float32(s / n)
	}
	return out, nil
}

// NormalizedMean averages the given vectors and re-normalizes the result.
// The mean of unit vectors is not itself unit length, so the extra
// normalization step is required before querying the index.
func NormalizedMean(vecs [][]float32) ([]float32, error) {
	m, err := Mean(vecs)
	if err != nil {
		return nil, err
	}
	return L2Normalize(m), nil
}
