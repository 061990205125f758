// Package embeddings provides the embedding collaborator for the vector
// memory store: an OpenAI adapter, a deterministic hash-derived provider, and
// a fallback combinator that degrades from one to the other.
package embeddings

import "context"

// Provider generates fixed-length embedding vectors for text.
type Provider interface {
	// Embed returns the embedding for text. The returned slice always has
	// length Dimension().
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the embedding dimension.
	Dimension() int
}
