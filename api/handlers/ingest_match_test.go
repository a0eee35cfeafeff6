package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contentfp/canonical"
	"contentfp/index"
	"contentfp/ingest"
	"contentfp/match"
	"contentfp/observability"
	"contentfp/perceptual"
	"contentfp/semantic"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testIngestConfig() ingest.Config {
	return ingest.Config{Version: 1, DefaultTenantID: "default", MaxPayloadBytes: 1 << 20, MaxNormalizedBytes: 1 << 20}
}

func testCanonicalConfig() canonical.Config {
	return canonical.Config{Version: 1, NormalizeUnicode: true, Lowercase: true}
}

func testPerceptualConfig() perceptual.Config {
	return perceptual.Config{Version: 1, K: 3, W: 4, Bands: 4, RowsPerBand: 4, Seed: 1}
}

func testSemanticConfig() semantic.Config {
	return semantic.Config{Tier: "fast", EmbeddingDim: 16, Normalize: true}
}

func withTenant(req *http.Request, tenant string) *http.Request {
	req.Header.Set("X-Tenant-ID", tenant)
	return req
}

func TestIngestThenExactMatchRoundTrip(t *testing.T) {
	backend := index.NewInMemory()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", "t1")
		c.Next()
	})

	ingestHandler := NewIngestHandler(backend, testIngestConfig(), testCanonicalConfig(), testPerceptualConfig(), testSemanticConfig(), index.DefaultQuantizeScale, observability.NoopSink{})
	matchHandler := NewMatchHandler(backend, match.Config{Mode: "exact", MaxResults: 10, TenantEnforce: true, OversampleFactor: 1}, testCanonicalConfig(), testPerceptualConfig(), testSemanticConfig(), observability.NoopSink{})

	router.POST("/v1/ingest", ingestHandler.Handle)
	router.POST("/v1/match", matchHandler.Handle)

	ingestBody, _ := json.Marshal(map[string]string{"text": "the quick brown fox jumps", "external_doc_id": "doc-1"})
	ingestReq := withTenant(httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(ingestBody)), "t1")
	ingestReq.Header.Set("Content-Type", "application/json")
	ingestRec := httptest.NewRecorder()
	router.ServeHTTP(ingestRec, ingestReq)
	if ingestRec.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d %s", ingestRec.Code, ingestRec.Body.String())
	}

	matchBody, _ := json.Marshal(map[string]interface{}{
		"query_text": "the quick brown fox jumps",
		"strategy":   map[string]string{"kind": "exact"},
	})
	matchReq := withTenant(httptest.NewRequest(http.MethodPost, "/v1/match", bytes.NewReader(matchBody)), "t1")
	matchReq.Header.Set("Content-Type", "application/json")
	matchRec := httptest.NewRecorder()
	router.ServeHTTP(matchRec, matchReq)
	if matchRec.Code != http.StatusOK {
		t.Fatalf("match failed: %d %s", matchRec.Code, matchRec.Body.String())
	}

	var resp struct {
		Hits []matchHit `json:"hits"`
	}
	if err := json.Unmarshal(matchRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].Score != 1.0 {
		t.Fatalf("expected one exact hit with score 1.0, got %+v", resp.Hits)
	}
}

func TestIngestRejectsEmptyText(t *testing.T) {
	backend := index.NewInMemory()
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("tenant_id", "t1"); c.Next() })
	ingestHandler := NewIngestHandler(backend, testIngestConfig(), testCanonicalConfig(), testPerceptualConfig(), testSemanticConfig(), index.DefaultQuantizeScale, observability.NoopSink{})
	router.POST("/v1/ingest", ingestHandler.Handle)

	body, _ := json.Marshal(map[string]string{"source": "raw_text"})
	req := withTenant(httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(body)), "t1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d: %s", rec.Code, rec.Body.String())
	}
}
