package embeddings

import "context"

// FallbackProvider tries a primary provider and degrades to a secondary one
// when the primary fails. Both providers must share a dimension so that
// vectors from either remain comparable in the same index.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
}

var _ Provider = (*FallbackProvider)(nil)

// NewFallbackProvider combines primary with secondary. If secondary is nil, a
// HashProvider matching the primary's dimension is used.
func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	if secondary == nil {
		secondary = NewHashProvider(primary.Dimension())
	}
	return &FallbackProvider{primary: primary, secondary: secondary}
}

// Dimension returns the primary provider's dimension.
func (p *FallbackProvider) Dimension() int {
	return p.primary.Dimension()
}

// Embed returns the primary embedding, or the secondary embedding if the
// primary call fails.
func (p *FallbackProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := p.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	return p.secondary.Embed(ctx, text)
}
