package index

import (
	"context"
	"sync"

	cferrors "contentfp/errors"
	"contentfp/index/hnsw"
)

func key(tenantID, docID string) string { return tenantID + "\x00" + docID }

// storedRecord is what InMemory actually keeps per key: the §6 wire-format
// record (optionally compressed) plus the quantization scale it was written
// with. The scale isn't part of the persisted record layout itself, so it
// travels alongside the blob the same way Postgres carries it in its own
// embedding_scale column.
type storedRecord struct {
	blob  []byte
	scale float64
}

// InMemory is a Backend over a Go map, suitable for single-process
// deployments and tests. Every entry is round-tripped through the same
// Encode/Decode record format and optional zstd compression the Postgres
// backend uses, so the schema-version boundary is enforced uniformly.
// Each tenant additionally gets its own HNSW graph (index/hnsw): semantic
// search dispatches through it, which itself falls back to a linear scan
// below MinVectorsForANN.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	tenants map[string]map[string]struct{}

	annCfg hnsw.Config
	annMu  sync.Mutex
	ann    map[string]*hnsw.Index

	dimMu        sync.Mutex
	embeddingDim int

	compressionCodec string
	compressor       *Compressor
}

// NewInMemory constructs an empty InMemory backend with HNSW defaults and
// no compression.
func NewInMemory() *InMemory {
	return NewInMemoryWithOptions(hnsw.DefaultConfig(), "none")
}

// NewInMemoryWithOptions constructs an InMemory backend with an explicit
// ANN configuration and record-compression codec ("none" or any non-empty
// value, which enables zstd via index.Compressor).
func NewInMemoryWithOptions(annCfg hnsw.Config, compressionCodec string) *InMemory {
	var compressor *Compressor
	if compressionCodec != "" && compressionCodec != "none" {
		compressor = NewCompressor(nil)
	}
	return &InMemory{
		records:          make(map[string]storedRecord),
		tenants:          make(map[string]map[string]struct{}),
		annCfg:           annCfg,
		ann:              make(map[string]*hnsw.Index),
		compressionCodec: compressionCodec,
		compressor:       compressor,
	}
}

func (m *InMemory) annIndexFor(tenantID string) *hnsw.Index {
	m.annMu.Lock()
	defer m.annMu.Unlock()
	idx, ok := m.ann[tenantID]
	if !ok {
		idx = hnsw.New(m.annCfg)
		m.ann[tenantID] = idx
	}
	return idx
}

func floatsFromQuantized(e Entry) []float32 {
	scale := e.Scale
	if scale == 0 {
		scale = DefaultQuantizeScale
	}
	return Dequantize(e.Embedding, scale)
}

// indexEmbedding inserts e's dequantized vector into its tenant's HNSW
// graph. Insert only fails on an empty vector, which the length check
// below skips before Insert is called.
func (m *InMemory) indexEmbedding(e Entry) {
	if len(e.Embedding) == 0 {
		return
	}
	_ = m.annIndexFor(e.TenantID).Insert(e.DocID, floatsFromQuantized(e))
}

// checkDimension enforces "first writer defines the dimension": the first
// non-empty embedding seen by this backend fixes embeddingDim; every
// subsequent embedding must match it.
func (m *InMemory) checkDimension(e Entry) error {
	if len(e.Embedding) == 0 {
		return nil
	}
	m.dimMu.Lock()
	defer m.dimMu.Unlock()
	if m.embeddingDim == 0 {
		m.embeddingDim = len(e.Embedding)
		return nil
	}
	if len(e.Embedding) != m.embeddingDim {
		return cferrors.New(stage, cferrors.InvalidConfig, "embedding dimension does not match the dimension established by the first indexed vector")
	}
	return nil
}

// Put inserts or replaces one entry.
func (m *InMemory) Put(ctx context.Context, e Entry) error {
	if err := m.checkDimension(e); err != nil {
		return err
	}
	blob, err := EncodeForStorage(e, m.compressionCodec, m.compressor)
	if err != nil {
		return err
	}
	scale := e.Scale
	if scale == 0 {
		scale = DefaultQuantizeScale
	}

	m.mu.Lock()
	k := key(e.TenantID, e.DocID)
	m.records[k] = storedRecord{blob: blob, scale: scale}
	if _, ok := m.tenants[e.TenantID]; !ok {
		m.tenants[e.TenantID] = make(map[string]struct{})
	}
	m.tenants[e.TenantID][e.DocID] = struct{}{}
	m.mu.Unlock()

	m.indexEmbedding(e)
	return nil
}

// BatchPut inserts or replaces multiple entries.
func (m *InMemory) BatchPut(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := m.Put(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the entry for (tenantID, docID), or nil if absent.
func (m *InMemory) Get(ctx context.Context, tenantID, docID string) (*Entry, error) {
	m.mu.RLock()
	sr, ok := m.records[key(tenantID, docID)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	e, err := DecodeFromStorage(tenantID, docID, sr.blob, m.compressionCodec, m.compressor, sr.scale)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the entry for (tenantID, docID), if present. The HNSW
// graph has no node-removal primitive (common among ANN libraries of this
// shape), so a deleted doc's node may still exist there; NearestByEmbedding
// filters it out at lookup time since it's gone from records.
func (m *InMemory) Delete(ctx context.Context, tenantID, docID string) error {
	m.mu.Lock()
	delete(m.records, key(tenantID, docID))
	if docs, ok := m.tenants[tenantID]; ok {
		delete(docs, docID)
	}
	m.mu.Unlock()
	return nil
}

// Scan iterates every entry for tenantID in unspecified order, stopping
// early if fn returns false.
func (m *InMemory) Scan(ctx context.Context, tenantID string, fn func(Entry) bool) error {
	m.mu.RLock()
	docIDs, ok := m.tenants[tenantID]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	ids := make([]string, 0, len(docIDs))
	for docID := range docIDs {
		ids = append(ids, docID)
	}
	snapshot := make(map[string]storedRecord, len(ids))
	for _, docID := range ids {
		snapshot[docID] = m.records[key(tenantID, docID)]
	}
	m.mu.RUnlock()

	for _, docID := range ids {
		sr := snapshot[docID]
		e, err := DecodeFromStorage(tenantID, docID, sr.blob, m.compressionCodec, m.compressor, sr.scale)
		if err != nil {
			return err
		}
		if !fn(e) {
			break
		}
	}
	return nil
}

// Flush is a no-op for InMemory; it exists to satisfy Backend.
func (m *InMemory) Flush(ctx context.Context) error { return nil }

// NearestByEmbedding returns up to k entries nearest to query in tenantID
// under cosine distance, dispatching through that tenant's HNSW graph
// (which itself falls back to a linear scan below MinVectorsForANN).
func (m *InMemory) NearestByEmbedding(ctx context.Context, tenantID string, query []float32, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, nil
	}
	idx := m.annIndexFor(tenantID)
	if idx.Len() == 0 {
		return nil, nil
	}
	results := idx.Search(query, k)
	out := make([]Entry, 0, len(results))
	for _, r := range results {
		e, err := m.Get(ctx, tenantID, r.ID)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue // deleted since being indexed; HNSW has no removal primitive
		}
		out = append(out, *e)
	}
	return out, nil
}
