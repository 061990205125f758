package memory

import "context"

// defaultRecallLimit is how many documents Recall returns when the caller
// does not say otherwise.
const defaultRecallLimit = 5

// Memory is the campaign-facing facade over a VectorStore: remember a note,
// recall the notes most similar to a query.
type Memory struct {
	store *VectorStore
}

// New creates a Memory over the given store.
func New(store *VectorStore) *Memory {
	return &Memory{store: store}
}

// Remember stores a note.
func (m *Memory) Remember(ctx context.Context, text string) error {
	return m.store.Add(ctx, text)
}

// Recall returns the notes most similar to query.
func (m *Memory) Recall(ctx context.Context, query string) ([]string, error) {
	return m.store.Search(ctx, query, defaultRecallLimit)
}
