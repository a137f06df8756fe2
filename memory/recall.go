package memory

import (
	"context"
	"fmt"

	"github.com/ChitterSync/SynisterChat/vectorstore"
	"github.com/google/uuid"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// factNamespace seeds deterministic point IDs for facts.
var factNamespace = uuid.MustParse("6f1d0c8e-8a3b-4f61-9b0e-5c2a7d9e4f10")

// Recall indexes a session's memory facts for similarity lookup, so long
// fact lists can be narrowed to the ones relevant to the current message.
type Recall struct {
	store    vectorstore.VectorStore
	embedder Embedder
}

// NewRecall creates a Recall over store and embedder.
func NewRecall(store vectorstore.VectorStore, embedder Embedder) *Recall {
	return &Recall{store: store, embedder: embedder}
}

// Sync replaces the indexed facts of one session with facts.
func (r *Recall) Sync(ctx context.Context, owner, sessionID string, facts []string) error {
	if owner == "" || sessionID == "" {
		return fmt.Errorf("recall sync: owner and session id are required")
	}
	if err := r.store.Delete(ctx, vectorstore.SearchFilter{Owner: owner, SessionID: sessionID}); err != nil {
		return fmt.Errorf("recall sync: clear: %w", err)
	}
	if len(facts) == 0 {
		return nil
	}

	vectors, err := r.embedder.Embed(ctx, facts)
	if err != nil {
		return fmt.Errorf("recall sync: embed: %w", err)
	}
	if len(vectors) != len(facts) {
		return fmt.Errorf("recall sync: got %d vectors for %d facts", len(vectors), len(facts))
	}

	points := make([]vectorstore.Point, len(facts))
	for i, f := range facts {
		points[i] = vectorstore.Point{
			ID:        FactID(owner, sessionID, f),
			Vector:    vectors[i],
			Content:   f,
			Owner:     owner,
			SessionID: sessionID,
		}
	}
	if err := r.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("recall sync: upsert: %w", err)
	}
	return nil
}

// Relevant returns up to k indexed facts of the session closest to query.
func (r *Recall) Relevant(ctx context.Context, owner, sessionID, query string, k int) ([]string, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("recall: embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("recall: got %d vectors for query", len(vectors))
	}

	results, err := r.store.Search(ctx, vectors[0], vectorstore.SearchFilter{Owner: owner, SessionID: sessionID}, k)
	if err != nil {
		return nil, fmt.Errorf("recall: search: %w", err)
	}

	facts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Content != "" {
			facts = appendUnique(facts, res.Content)
		}
	}
	return facts, nil
}

// Forget drops indexed facts for one session, or for every session of owner
// when sessionID is empty.
func (r *Recall) Forget(ctx context.Context, owner, sessionID string) error {
	if owner == "" {
		return fmt.Errorf("recall forget: owner is required")
	}
	return r.store.Delete(ctx, vectorstore.SearchFilter{Owner: owner, SessionID: sessionID})
}

// FactID is the stable point ID of a fact within a session.
func FactID(owner, sessionID, fact string) string {
	return uuid.NewSHA1(factNamespace, []byte(owner+"\x00"+sessionID+"\x00"+fact)).String()
}
