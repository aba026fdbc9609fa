package vectorindex

import (
	"fmt"
	"math"
	"sort"
)

// Index is a flat (exact) nearest-neighbor index over one L2-normalized
// vector per occupation. It is built offline, loaded once at startup and
// read-only afterwards, so concurrent searches need no locking.
type Index struct {
	dims    int
	vectors []float32 // row-major, len == count*dims
	uris    []string
	labels  []string
}

// Candidate is one search hit: the row id and its L2 distance to the query.
type Candidate struct {
	ID       int
	Distance float32
}

// Dimensions returns the fixed vector dimensionality of the index.
func (ix *Index) Dimensions() int { return ix.dims }

// Len returns the number of vectors in the index.
func (ix *Index) Len() int { return len(ix.uris) }

// URI maps a row id back to its occupation URI. The second return is false
// for ids outside the mapping range, which callers treat as corrupt rows.
func (ix *Index) URI(id int) (string, bool) {
	if id < 0 || id >= len(ix.uris) {
		return "", false
	}
	return ix.uris[id], true
}

// Label maps a row id to the occupation display label recorded at build time.
func (ix *Index) Label(id int) (string, bool) {
	if id < 0 || id >= len(ix.labels) {
		return "", false
	}
	return ix.labels[id], true
}

// Search returns the k nearest rows to query by L2 distance, ascending.
// The query dimensionality must match the index; a mismatch indicates an
// embedding-model/index version drift and is returned as an error rather
// than silently mis-searched.
func (ix *Index) Search(query []float32, k int) ([]Candidate, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(query), ix.dims)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	n := ix.Len()
	if n == 0 {
		return []Candidate{}, nil
	}
	if k > n {
		k = n
	}

	candidates := make([]Candidate, n)
	for row := 0; row < n; row++ {
		base := row * ix.dims
		var sum float64
		for j, q := range query {
			d := float64(ix.vectors[base+j]) - float64(q)
			sum += d * d
		}
		candidates[row] = Candidate{ID: row, Distance: float32(math.Sqrt(sum))}
	}
	// Stable: equal distances keep row order, which keeps searches
	// deterministic across identical requests.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	return candidates[:k], nil
}

// CosineSimilarity converts an L2 distance over unit vectors to cosine
// similarity (1 - d^2/2), clamped to [0, 1].
func CosineSimilarity(distance float32) float64 {
	s := 1.0 - float64(distance)*float64(distance)/2.0
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
