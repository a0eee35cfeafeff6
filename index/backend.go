package index

import "context"

// Entry is one indexed fingerprint, keyed by tenant and document id.
type Entry struct {
	TenantID      string
	DocID         string
	CanonicalHash []byte
	Signature     []uint64
	Embedding     []int8
	Scale         float64
	MetadataJSON  []byte
}

// Backend is the storage abstraction C5 components are built against.
// Implementations: InMemory (per-tenant HNSW graph, index/hnsw) and
// Postgres (pgx/v5 + pgvector's native ANN index).
type Backend interface {
	Put(ctx context.Context, e Entry) error
	BatchPut(ctx context.Context, entries []Entry) error
	Get(ctx context.Context, tenantID, docID string) (*Entry, error)
	Delete(ctx context.Context, tenantID, docID string) error
	Scan(ctx context.Context, tenantID string, fn func(Entry) bool) error
	Flush(ctx context.Context) error

	// NearestByEmbedding returns up to k entries nearest to query in
	// tenantID under cosine distance, using an approximate index where
	// the backend has one. Returns (nil, nil) if tenantID has no indexed
	// embeddings yet.
	NearestByEmbedding(ctx context.Context, tenantID string, query []float32, k int) ([]Entry, error)
}
