package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashProvider derives a deterministic pseudo-random vector from iterated
// SHA-256 of the text. The vector is stable across calls and processes but
// carries no semantic meaning; it exists so the memory store keeps working
// when no embedding provider is reachable.
type HashProvider struct {
	dim int
}

var _ Provider = (*HashProvider)(nil)

// NewHashProvider creates a hash-derived provider with the given dimension.
func NewHashProvider(dim int) *HashProvider {
	if dim <= 0 {
		dim = openaiSmallDimension
	}
	return &HashProvider{dim: dim}
}

// Dimension returns the embedding dimension.
func (p *HashProvider) Dimension() int {
	return p.dim
}

// Embed maps each 4-byte chunk of the running hash to a value in [0, 1),
// re-hashing the digest until the vector is full.
func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, 0, p.dim)
	digest := sha256.Sum256([]byte(text))
	for len(vec) < p.dim {
		for i := 0; i+4 <= len(digest) && len(vec) < p.dim; i += 4 {
			u := binary.BigEndian.Uint32(digest[i : i+4])
			vec = append(vec, float64(u)/(1<<32))
		}
		digest = sha256.Sum256(digest[:])
	}
	return vec, nil
}
