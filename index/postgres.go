package index

import (
	"context"
	"errors"
	"sync"

	cferrors "contentfp/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres is a Backend storing fingerprints in a tenant-scoped table. A
// native pgvector column and bigint[] column back indexed exact/ANN
// queries; the canonical source of truth for reads is a compressed,
// schema-versioned record_blob column decoded through the same
// Encode/Decode/Compressor path InMemory uses.
type Postgres struct {
	pool *pgxpool.Pool

	compressionCodec string
	compressor       *Compressor

	dimMu        sync.Mutex
	embeddingDim int
}

// NewPostgres opens a pooled connection to connStr and verifies it with a
// ping, mirroring the teacher's sql.Open-then-Ping bootstrap.
// compressionCodec is "none" (or empty) to store records uncompressed, or
// any other value to zstd-compress them before they reach the database.
func NewPostgres(ctx context.Context, connStr string, compressionCodec string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Backend, "open postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Backend, "ping postgres", err)
	}
	var compressor *Compressor
	if compressionCodec != "" && compressionCodec != "none" {
		compressor = NewCompressor(nil)
	}
	return &Postgres{pool: pool, compressionCodec: compressionCodec, compressor: compressor}, nil
}

// EnsureSchema creates the fingerprints table and its indexes if absent,
// and fixes embeddingDim as the dimension every subsequent Put is checked
// against (the "first writer defines it" invariant, enforced here at
// startup and again defensively on every Put).
func (p *Postgres) EnsureSchema(ctx context.Context, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS fingerprints (
			tenant_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			canonical_hash BYTEA NOT NULL,
			signature BIGINT[],
			embedding VECTOR(` + itoa(embeddingDim) + `),
			embedding_scale DOUBLE PRECISION,
			metadata JSONB DEFAULT '{}'::jsonb,
			record_blob BYTEA,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (tenant_id, doc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_canonical_hash ON fingerprints(tenant_id, canonical_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_embedding ON fingerprints USING ivfflat (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return cferrors.Wrap(stage, cferrors.Backend, "execute schema statement", err)
		}
	}
	if embeddingDim > 0 {
		p.dimMu.Lock()
		p.embeddingDim = embeddingDim
		p.dimMu.Unlock()
	}
	return nil
}

func itoa(n int) string {
	if n <= 0 {
		n = 384
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if len(digits) == 0 {
		digits = []byte{'0'}
	}
	return string(digits)
}

func quantizedToVector(q []int8, scale float64) pgvector.Vector {
	vec := Dequantize(q, scale)
	return pgvector.NewVector(vec)
}

// checkDimension enforces "first writer defines the dimension" for
// Postgres: EnsureSchema normally fixes it at startup, but a Put before
// EnsureSchema (or with EnsureSchema given a zero dim) falls back to
// fixing it from the first non-empty embedding seen.
func (p *Postgres) checkDimension(e Entry) error {
	if len(e.Embedding) == 0 {
		return nil
	}
	p.dimMu.Lock()
	defer p.dimMu.Unlock()
	if p.embeddingDim == 0 {
		p.embeddingDim = len(e.Embedding)
		return nil
	}
	if len(e.Embedding) != p.embeddingDim {
		return cferrors.New(stage, cferrors.InvalidConfig, "embedding dimension does not match the dimension established for this index")
	}
	return nil
}

// Put inserts or replaces one entry.
func (p *Postgres) Put(ctx context.Context, e Entry) error {
	if err := p.checkDimension(e); err != nil {
		return err
	}
	blob, err := EncodeForStorage(e, p.compressionCodec, p.compressor)
	if err != nil {
		return err
	}
	metaJSON := e.MetadataJSON
	if len(metaJSON) == 0 {
		metaJSON = []byte("{}")
	}
	var embeddingValue interface{}
	if len(e.Embedding) > 0 {
		v := quantizedToVector(e.Embedding, e.Scale)
		embeddingValue = &v
	}
	var signatureValue interface{}
	if len(e.Signature) > 0 {
		signatureValue = int64Slice(e.Signature)
	}
	const query = `
		INSERT INTO fingerprints (tenant_id, doc_id, canonical_hash, signature, embedding, embedding_scale, metadata, record_blob, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (tenant_id, doc_id)
		DO UPDATE SET canonical_hash = EXCLUDED.canonical_hash, signature = EXCLUDED.signature,
			embedding = EXCLUDED.embedding, embedding_scale = EXCLUDED.embedding_scale,
			metadata = EXCLUDED.metadata, record_blob = EXCLUDED.record_blob, created_at = NOW()
	`
	if _, err := p.pool.Exec(ctx, query, e.TenantID, e.DocID, e.CanonicalHash, signatureValue, embeddingValue, e.Scale, metaJSON, blob); err != nil {
		return cferrors.Wrap(stage, cferrors.Backend, "upsert fingerprint", err)
	}
	return nil
}

func int64Slice(u []uint64) []int64 {
	out := make([]int64, len(u))
	for i, v := range u {
		out[i] = int64(v)
	}
	return out
}

// BatchPut inserts or replaces multiple entries inside one transaction.
func (p *Postgres) BatchPut(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := p.checkDimension(e); err != nil {
			return err
		}
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return cferrors.Wrap(stage, cferrors.Backend, "begin batch transaction", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		blob, err := EncodeForStorage(e, p.compressionCodec, p.compressor)
		if err != nil {
			return err
		}
		metaJSON := e.MetadataJSON
		if len(metaJSON) == 0 {
			metaJSON = []byte("{}")
		}
		var embeddingValue interface{}
		if len(e.Embedding) > 0 {
			v := quantizedToVector(e.Embedding, e.Scale)
			embeddingValue = &v
		}
		var signatureValue interface{}
		if len(e.Signature) > 0 {
			signatureValue = int64Slice(e.Signature)
		}
		const query = `
			INSERT INTO fingerprints (tenant_id, doc_id, canonical_hash, signature, embedding, embedding_scale, metadata, record_blob, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (tenant_id, doc_id)
			DO UPDATE SET canonical_hash = EXCLUDED.canonical_hash, signature = EXCLUDED.signature,
				embedding = EXCLUDED.embedding, embedding_scale = EXCLUDED.embedding_scale,
				metadata = EXCLUDED.metadata, record_blob = EXCLUDED.record_blob, created_at = NOW()
		`
		if _, err := tx.Exec(ctx, query, e.TenantID, e.DocID, e.CanonicalHash, signatureValue, embeddingValue, e.Scale, metaJSON, blob); err != nil {
			return cferrors.Wrap(stage, cferrors.Backend, "batch upsert fingerprint", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return cferrors.Wrap(stage, cferrors.Backend, "commit batch transaction", err)
	}
	return nil
}

// Get returns the entry for (tenantID, docID), or nil if absent. The
// returned Entry is decoded entirely from record_blob; the native
// embedding/signature columns exist only to support indexed queries.
func (p *Postgres) Get(ctx context.Context, tenantID, docID string) (*Entry, error) {
	const query = `SELECT record_blob, embedding_scale FROM fingerprints WHERE tenant_id = $1 AND doc_id = $2`
	row := p.pool.QueryRow(ctx, query, tenantID, docID)
	var (
		blob  []byte
		scale *float64
	)
	if err := row.Scan(&blob, &scale); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, cferrors.Wrap(stage, cferrors.Backend, "scan fingerprint row", err)
	}
	s := DefaultQuantizeScale
	if scale != nil {
		s = *scale
	}
	e, err := DecodeFromStorage(tenantID, docID, blob, p.compressionCodec, p.compressor, s)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the entry for (tenantID, docID), if present.
func (p *Postgres) Delete(ctx context.Context, tenantID, docID string) error {
	const query = `DELETE FROM fingerprints WHERE tenant_id = $1 AND doc_id = $2`
	if _, err := p.pool.Exec(ctx, query, tenantID, docID); err != nil {
		return cferrors.Wrap(stage, cferrors.Backend, "delete fingerprint", err)
	}
	return nil
}

// Scan iterates every entry for tenantID in storage order, stopping early
// if fn returns false.
func (p *Postgres) Scan(ctx context.Context, tenantID string, fn func(Entry) bool) error {
	const query = `SELECT doc_id, record_blob, embedding_scale FROM fingerprints WHERE tenant_id = $1`
	rows, err := p.pool.Query(ctx, query, tenantID)
	if err != nil {
		return cferrors.Wrap(stage, cferrors.Backend, "query fingerprints", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			docID string
			blob  []byte
			scale *float64
		)
		if err := rows.Scan(&docID, &blob, &scale); err != nil {
			return cferrors.Wrap(stage, cferrors.Backend, "scan fingerprint row", err)
		}
		s := DefaultQuantizeScale
		if scale != nil {
			s = *scale
		}
		e, err := DecodeFromStorage(tenantID, docID, blob, p.compressionCodec, p.compressor, s)
		if err != nil {
			return err
		}
		if !fn(e) {
			break
		}
	}
	return rows.Err()
}

// Flush is a no-op for Postgres: every Put/BatchPut commits synchronously.
func (p *Postgres) Flush(ctx context.Context) error { return nil }

// NearestByEmbedding runs a cosine-distance ANN query using pgvector's <=>
// operator and its ivfflat index, returning up to k entries ordered by
// ascending distance. Postgres has no separate min_vectors_for_ann
// threshold of its own: ivfflat degrades gracefully to a full scan on
// small tables, so it is always queried this way.
func (p *Postgres) NearestByEmbedding(ctx context.Context, tenantID string, query []float32, k int) ([]Entry, error) {
	const q = `
		SELECT doc_id, record_blob, embedding_scale FROM fingerprints
		WHERE tenant_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(query)
	rows, err := p.pool.Query(ctx, q, tenantID, vec, k)
	if err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Backend, "nearest-by-embedding query", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			docID string
			blob  []byte
			scale *float64
		)
		if err := rows.Scan(&docID, &blob, &scale); err != nil {
			return nil, cferrors.Wrap(stage, cferrors.Backend, "scan nearest-by-embedding row", err)
		}
		s := DefaultQuantizeScale
		if scale != nil {
			s = *scale
		}
		e, err := DecodeFromStorage(tenantID, docID, blob, p.compressionCodec, p.compressor, s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
