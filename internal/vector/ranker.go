// Package vector implements the embedding store primitives: cosine similarity
// ranking over stored embeddings, the BLOB codec used by the images table, and
// the text embedder that produces query vectors.
package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is the only ranking failure mode. Empty stores and
// empty result sets are normal outcomes, not errors.
var ErrDimensionMismatch = errors.New("vector: embedding dimension mismatch")

// Entry is a stored (id, embedding) pair, in insertion order.
type Entry struct {
	ID     int64
	Vector []float32
}

// Match is one ranked result.
type Match struct {
	ID         int64
	Similarity float64
}

// Rank scores every entry against query by cosine similarity, discards entries
// below threshold, and returns at most limit matches sorted by similarity
// descending. Ties keep insertion order. A zero-magnitude vector on either
// side scores 0. A non-positive limit falls back to 10.
func Rank(query []float32, entries []Entry, limit int, threshold float64) ([]Match, error) {
	if limit < 1 {
		limit = 10
	}

	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, entry %d has %d",
				ErrDimensionMismatch, len(query), e.ID, len(e.Vector))
		}
		sim := CosineSimilarity(query, e.Vector)
		if sim >= threshold {
			matches = append(matches, Match{ID: e.ID, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// CosineSimilarity returns the normalized dot product of a and b, clamped to
// [-1, 1]. Both slices must have the same length; callers enforce that. A
// zero-magnitude vector yields 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}
