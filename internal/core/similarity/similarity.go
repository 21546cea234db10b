// Package similarity implements exact cosine scoring over a full chunk scan.
package similarity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

const DefaultTopK = 3

// Cosine returns the cosine similarity of two equal-length vectors, or 0 when
// either vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewError(domain.ErrLengthMismatch, "cosine", fmt.Sprintf("len(a)=%d len(b)=%d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	score := dot / denom
	switch {
	case score > 1:
		return 1, nil
	case score < -1:
		return -1, nil
	default:
		return score, nil
	}
}

// DecodeEmbedding accepts a native vector, a JSON array, or a JSON string that
// itself contains a JSON array. pgvector's text form "[1,2,3]" is a JSON array.
func DecodeEmbedding(e domain.StoredEmbedding) ([]float32, error) {
	if e.Vector != nil {
		return e.Vector, nil
	}

	raw := strings.TrimSpace(e.Encoded)
	if raw == "" {
		return nil, fmt.Errorf("decode embedding: empty value")
	}

	var values []float32
	if err := json.Unmarshal([]byte(raw), &values); err == nil {
		return values, nil
	}

	var nested string
	if err := json.Unmarshal([]byte(raw), &nested); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if err := json.Unmarshal([]byte(nested), &values); err != nil {
		return nil, fmt.Errorf("decode nested embedding: %w", err)
	}
	return values, nil
}

// TopK ranks chunks against query and returns the best k. Chunks whose
// embedding cannot be decoded or has a different dimension score 0.
// Equal scores keep input order.
func TopK(query []float32, chunks []domain.StoredChunk, k int) []domain.ScoredChunk {
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, domain.ScoredChunk{
			ID:         chunk.ID,
			Content:    chunk.Content,
			Similarity: score(query, chunk),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func score(query []float32, chunk domain.StoredChunk) float64 {
	vector, err := DecodeEmbedding(chunk.Embedding)
	if err != nil {
		slog.Warn("chunk_similarity_skipped",
			"component", "similarity",
			"chunk_id", chunk.ID,
			"reason", "decode",
			"error", err,
		)
		return 0
	}

	sim, err := Cosine(query, vector)
	if err != nil {
		slog.Warn("chunk_similarity_skipped",
			"component", "similarity",
			"chunk_id", chunk.ID,
			"reason", "length_mismatch",
			"query_dimensions", len(query),
			"chunk_dimensions", len(vector),
		)
		return 0
	}
	return sim
}
