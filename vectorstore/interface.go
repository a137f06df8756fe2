package vectorstore

import "context"

// VectorStore is a technology-agnostic interface for vector similarity search.
// Implementations can use Qdrant, Pinecone, Supabase Vector, Weaviate, etc.
type VectorStore interface {
	// Search performs vector similarity search with optional filtering.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// Upsert inserts or replaces points by ID.
	Upsert(ctx context.Context, points []Point) error

	// Delete removes every point matching filter. An empty filter is rejected.
	Delete(ctx context.Context, filter SearchFilter) error

	// Close releases any resources held by the vector store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// Owner restricts results to one owner's points.
	Owner string

	// SessionID restricts results to one chat session.
	SessionID string

	// Metadata filters results by metadata key-value pairs.
	Metadata map[string]any

	// MinScore filters results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// IsEmpty reports whether the filter has no conditions.
func (f SearchFilter) IsEmpty() bool {
	return f.Owner == "" && f.SessionID == "" && len(f.Metadata) == 0
}

// Point is a vector with its payload.
type Point struct {
	ID        string
	Vector    []float32
	Content   string
	Owner     string
	SessionID string
	Metadata  map[string]any
}

// SearchResult represents a single result from vector similarity search.
type SearchResult struct {
	// ID is the unique identifier of the result.
	ID string

	// Score is the similarity score (0.0-1.0, higher is more similar).
	Score float32

	// Content is the text content associated with this vector.
	Content string

	// Owner and SessionID identify where the point came from.
	Owner     string
	SessionID string

	// Metadata contains additional key-value pairs.
	Metadata map[string]any
}
