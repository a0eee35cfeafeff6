package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"contentfp/api/middleware"
	"contentfp/canonical"
	"contentfp/index"
	"contentfp/ingest"
	"contentfp/observability"
	"contentfp/perceptual"
	"contentfp/semantic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IngestHandler runs C1-C4 over a submitted document and stores the
// result in C5.
type IngestHandler struct {
	backend      index.Backend
	ingestCfg    ingest.Config
	canonicalCfg canonical.Config
	perceptualCfg perceptual.Config
	semanticCfg  semantic.Config
	quantScale   float64
	sink         observability.Sink
}

func NewIngestHandler(backend index.Backend, ingestCfg ingest.Config, canonicalCfg canonical.Config, perceptualCfg perceptual.Config, semanticCfg semantic.Config, quantScale float64, sink observability.Sink) *IngestHandler {
	return &IngestHandler{
		backend:       backend,
		ingestCfg:     ingestCfg,
		canonicalCfg:  canonicalCfg,
		perceptualCfg: perceptualCfg,
		semanticCfg:   semanticCfg,
		quantScale:    quantScale,
		sink:          sink,
	}
}

type ingestBody struct {
	ExternalDocID string            `json:"external_doc_id"`
	Source        string            `json:"source"`
	Text          string            `json:"text"`
	Attributes    map[string]string `json:"attributes"`
}

type ingestResponse struct {
	DocID         string `json:"doc_id"`
	CanonicalHash string `json:"canonical_hash"`
	Stored        bool   `json:"stored"`
}

func (h *IngestHandler) Handle(c *gin.Context) {
	start := time.Now()
	tenant := middleware.Tenant(c)

	var body ingestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Source == "" {
		body.Source = string(ingest.SourceAPI)
	}

	raw := ingest.RawRecord{
		IngestID: uuid.NewString(),
		Source:   ingest.SourceTag(body.Source),
		Metadata: ingest.Metadata{
			TenantID:      tenant,
			ExternalDocID: body.ExternalDocID,
			Attributes:    body.Attributes,
		},
		Payload: ingest.Payload{Kind: ingest.PayloadText, Text: body.Text},
	}

	record, err := ingest.Ingest(raw, h.ingestCfg)
	if err != nil {
		h.emit(tenant, "", "", start, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := canonical.Canonicalize(record.DocID, record.NormalizedText, h.canonicalCfg)
	if err != nil {
		h.emit(tenant, record.DocID, "", start, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var tokens []perceptual.Token
	for _, tok := range doc.Tokens {
		tokens = append(tokens, perceptual.Token{Text: tok.Text})
	}
	fp, err := perceptual.Perceptualize(tokens, h.perceptualCfg)
	if err != nil {
		h.emit(tenant, record.DocID, doc.IdentityHash, start, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	emb, err := semantic.Semanticize(c.Request.Context(), record.DocID, record.NormalizedText, h.semanticCfg, semantic.Deps{})
	if err != nil {
		h.emit(tenant, record.DocID, doc.IdentityHash, start, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	canonicalHash, err := hex.DecodeString(doc.IdentityHash)
	if err != nil {
		h.emit(tenant, record.DocID, doc.IdentityHash, start, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode identity hash"})
		return
	}

	metadataJSON, err := json.Marshal(map[string]interface{}{
		"tenant_id":       tenant,
		"external_doc_id": body.ExternalDocID,
		"attributes":      body.Attributes,
	})
	if err != nil {
		h.emit(tenant, record.DocID, doc.IdentityHash, start, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode metadata"})
		return
	}

	entry := index.Entry{
		TenantID:      tenant,
		DocID:         record.DocID,
		CanonicalHash: canonicalHash,
		Signature:     fp.Signature,
		Embedding:     index.Quantize(emb.Vector, h.quantScale),
		Scale:         h.quantScale,
		MetadataJSON:  metadataJSON,
	}
	if err := h.backend.Put(c.Request.Context(), entry); err != nil {
		h.emit(tenant, record.DocID, doc.IdentityHash, start, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store fingerprint"})
		return
	}

	h.sink.Emit(observability.Ok("ingest", tenant, record.DocID, doc.IdentityHash, time.Since(start)))
	c.JSON(http.StatusOK, ingestResponse{DocID: record.DocID, CanonicalHash: doc.IdentityHash, Stored: true})
}

func (h *IngestHandler) emit(tenant, docID, hash string, start time.Time, err error) {
	h.sink.Emit(observability.Err("ingest", tenant, docID, time.Since(start), errorKindOf(err)))
	_ = hash
}
