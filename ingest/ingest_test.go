package ingest

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func defaultConfig() Config {
	return Config{
		Version:           1,
		DefaultTenantID:   "default",
		DocIDNamespace:    uuid.NameSpaceOID,
		StripControlChars: true,
		MaxPayloadBytes:   1024,
		MaxNormalizedBytes: 1024,
	}
}

func TestMissingPayloadForRawText(t *testing.T) {
	raw := RawRecord{IngestID: "i1", Source: SourceRawText, Payload: Payload{Kind: PayloadNone}}
	_, err := Ingest(raw, defaultConfig())
	if err == nil {
		t.Fatalf("expected MissingPayload error")
	}
}

func TestEmptyBinaryPayload(t *testing.T) {
	raw := RawRecord{IngestID: "i1", Source: SourceAPI, Payload: Payload{Kind: PayloadBinary, Bytes: []byte{}}}
	_, err := Ingest(raw, defaultConfig())
	if err == nil {
		t.Fatalf("expected EmptyBinaryPayload error")
	}
}

func TestPayloadTooLarge(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPayloadBytes = 4
	cfg.MaxNormalizedBytes = 4
	raw := RawRecord{IngestID: "i1", Source: SourceRawText, Payload: Payload{Kind: PayloadText, Text: "hello world"}}
	_, err := Ingest(raw, cfg)
	if err == nil {
		t.Fatalf("expected PayloadTooLarge error")
	}
}

func TestDerivedDocIDIsDeterministic(t *testing.T) {
	cfg := defaultConfig()
	raw := RawRecord{
		IngestID: "ingest-123",
		Source:   SourceRawText,
		Metadata: Metadata{TenantID: "tenant-a"},
		Payload:  Payload{Kind: PayloadText, Text: "hello world"},
	}
	r1, err := Ingest(raw, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Ingest(raw, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.DocID != r2.DocID {
		t.Fatalf("doc id not deterministic: %s != %s", r1.DocID, r2.DocID)
	}
	if r1.TenantID != "tenant-a" {
		t.Fatalf("expected tenant-a, got %s", r1.TenantID)
	}
}

func TestDefaultTenantFallback(t *testing.T) {
	cfg := defaultConfig()
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceRawText,
		Payload:  Payload{Kind: PayloadText, Text: "hello"},
	}
	r, err := Ingest(raw, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TenantID != "default" {
		t.Fatalf("expected default tenant, got %s", r.TenantID)
	}
}

func TestWhitespaceNormalization(t *testing.T) {
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceRawText,
		Payload:  Payload{Kind: PayloadText, Text: "  Hello   World  "},
	}
	r, err := Ingest(raw, defaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.NormalizedText != "Hello World" {
		t.Fatalf("expected collapsed whitespace, got %q", r.NormalizedText)
	}
}

func TestEmptyNormalizedTextFails(t *testing.T) {
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceRawText,
		Payload:  Payload{Kind: PayloadText, Text: "   \t\n  "},
	}
	_, err := Ingest(raw, defaultConfig())
	if err == nil {
		t.Fatalf("expected EmptyNormalizedText error")
	}
}

func TestRequiredFieldsMissing(t *testing.T) {
	cfg := defaultConfig()
	cfg.RequiredFields = []string{"tenant_id"}
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceRawText,
		Payload:  Payload{Kind: PayloadText, Text: "hello"},
	}
	_, err := Ingest(raw, cfg)
	if err == nil {
		t.Fatalf("expected InvalidMetadata error for missing required field")
	}
}

func TestRejectFutureTimestamps(t *testing.T) {
	cfg := defaultConfig()
	cfg.RejectFutureTimestamps = true
	future := time.Now().Add(24 * time.Hour)
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceRawText,
		Metadata: Metadata{ReceivedAt: &future},
		Payload:  Payload{Kind: PayloadText, Text: "hello"},
	}
	_, err := Ingest(raw, cfg)
	if err == nil {
		t.Fatalf("expected InvalidMetadata error for future timestamp")
	}
}

func TestBinaryPassthrough(t *testing.T) {
	raw := RawRecord{
		IngestID: "ingest-1",
		Source:   SourceAPI,
		Payload:  Payload{Kind: PayloadBinary, Bytes: []byte{1, 2, 3}},
	}
	r, err := Ingest(raw, defaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.BinaryPayload) != 3 {
		t.Fatalf("expected binary payload passthrough, got %v", r.BinaryPayload)
	}
}
