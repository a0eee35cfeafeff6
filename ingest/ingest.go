// Package ingest implements C1: raw-record validation, metadata
// sanitization, and payload normalization, producing a canonical ingest
// record ready for C2.
package ingest

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	cferrors "contentfp/errors"

	"github.com/google/uuid"
)

const stage = "ingest"

// SourceTag identifies where a raw record's payload originated.
type SourceTag string

const (
	SourceRawText SourceTag = "raw_text"
	SourceURL     SourceTag = "url"
	SourceFile    SourceTag = "file"
	SourceAPI     SourceTag = "api"
)

// payloadDemandsContent reports whether source requires a non-empty payload.
func payloadDemandsContent(source SourceTag) bool {
	switch source {
	case SourceRawText, SourceURL, SourceFile:
		return true
	default:
		return false
	}
}

// PayloadKind distinguishes the three payload shapes a raw record may carry.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadTextBytes
	PayloadBinary
)

// Payload is a tagged union over the three payload shapes.
type Payload struct {
	Kind  PayloadKind
	Text  string
	Bytes []byte
}

// Metadata is the raw, externally-supplied attribute bag.
type Metadata struct {
	TenantID       string
	ExternalDocID  string
	ReceivedAt     *time.Time
	OriginalSource string
	Attributes     map[string]string
}

// RawRecord is the C1 input.
type RawRecord struct {
	IngestID string
	Source   SourceTag
	Metadata Metadata
	Payload  Payload
}

// Config governs C1 validation policy.
type Config struct {
	Version                int
	DefaultTenantID        string
	DocIDNamespace         uuid.UUID
	StripControlChars      bool
	RequiredFields         []string
	MaxAttributeBytes      int
	RejectFutureTimestamps bool
	MaxPayloadBytes        int
	MaxNormalizedBytes     int
}

// CanonicalIngestRecord is the C1 output.
type CanonicalIngestRecord struct {
	IngestID       string
	TenantID       string
	DocID          string
	ReceivedAt     time.Time
	OriginalSource string
	SourceTag      SourceTag
	NormalizedText string
	BinaryPayload  []byte
	Attributes     map[string]string
}

var controlCharPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
var whitespaceRunPattern = regexp.MustCompile(`\s+`)

func stripControl(s string) string {
	return controlCharPattern.ReplaceAllString(s, "")
}

func collapseWhitespace(s string) string {
	return whitespaceRunPattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Ingest runs the C1 pipeline over raw under cfg.
func Ingest(raw RawRecord, cfg Config) (*CanonicalIngestRecord, error) {
	if cfg.Version <= 0 {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "version must be > 0")
	}
	if seen := make(map[string]struct{}); true {
		for _, f := range cfg.RequiredFields {
			if _, ok := seen[f]; ok {
				return nil, cferrors.New(stage, cferrors.InvalidConfig, "duplicate required field: "+f)
			}
			seen[f] = struct{}{}
		}
	}
	if cfg.MaxNormalizedBytes > 0 && cfg.MaxPayloadBytes > 0 && cfg.MaxNormalizedBytes > cfg.MaxPayloadBytes {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "max_normalized_bytes must be <= max_payload_bytes")
	}

	// Step 1: payload presence.
	if payloadDemandsContent(raw.Source) && raw.Payload.Kind == PayloadNone {
		return nil, cferrors.New(stage, cferrors.MissingPayload, "source requires a payload")
	}

	// Step 2: empty binary payload.
	if raw.Payload.Kind == PayloadBinary && len(raw.Payload.Bytes) == 0 {
		return nil, cferrors.New(stage, cferrors.EmptyBinaryPayload, "binary payload is empty")
	}

	// Step 3: raw payload size.
	rawLen := payloadByteLen(raw.Payload)
	if cfg.MaxPayloadBytes > 0 && rawLen > cfg.MaxPayloadBytes {
		return nil, cferrors.New(stage, cferrors.PayloadTooLarge, "raw payload exceeds max_payload_bytes")
	}

	// Step 4: sanitize metadata strings.
	tenantID := raw.Metadata.TenantID
	docID := raw.Metadata.ExternalDocID
	originalSource := raw.Metadata.OriginalSource
	ingestID := raw.IngestID
	if cfg.StripControlChars {
		tenantID = stripControl(tenantID)
		docID = stripControl(docID)
		originalSource = stripControl(originalSource)
		ingestID = stripControl(ingestID)
	}

	// Step 5: metadata policy.
	fieldValue := func(name string) (string, bool) {
		switch name {
		case "tenant_id":
			return tenantID, tenantID != ""
		case "external_doc_id":
			return docID, docID != ""
		case "original_source":
			return originalSource, originalSource != ""
		case "ingest_id":
			return ingestID, ingestID != ""
		default:
			v, ok := raw.Metadata.Attributes[name]
			return v, ok
		}
	}
	for _, field := range cfg.RequiredFields {
		if _, present := fieldValue(field); !present {
			return nil, cferrors.New(stage, cferrors.InvalidMetadata, "missing required field: "+field)
		}
	}
	if cfg.RejectFutureTimestamps && raw.Metadata.ReceivedAt != nil && raw.Metadata.ReceivedAt.After(time.Now()) {
		return nil, cferrors.New(stage, cferrors.InvalidMetadata, "received_at is in the future")
	}
	if cfg.MaxAttributeBytes > 0 {
		var size int
		for k, v := range raw.Metadata.Attributes {
			size += len(k) + len(v)
		}
		if size > cfg.MaxAttributeBytes {
			return nil, cferrors.New(stage, cferrors.InvalidMetadata, "attributes exceed max_attribute_bytes")
		}
	}

	// Step 6: resolve tenant.
	effectiveTenant := tenantID
	if effectiveTenant == "" {
		effectiveTenant = cfg.DefaultTenantID
	}

	// Step 7: resolve doc id.
	effectiveDocID := docID
	if effectiveDocID == "" {
		if ingestID == "" {
			return nil, cferrors.New(stage, cferrors.DocIdDerivationFailed, "cannot derive doc id without an ingest id")
		}
		namespace := cfg.DocIDNamespace
		if namespace == uuid.Nil {
			namespace = uuid.NameSpaceOID
		}
		name := effectiveTenant + "\x00" + ingestID
		effectiveDocID = uuid.NewSHA1(namespace, []byte(name)).String()
	}

	// Step 8: resolve timestamp.
	receivedAt := time.Now()
	if raw.Metadata.ReceivedAt != nil {
		receivedAt = *raw.Metadata.ReceivedAt
	}

	// Step 9: normalize payload.
	var normalizedText string
	var binaryPayload []byte
	switch raw.Payload.Kind {
	case PayloadText:
		normalizedText = collapseWhitespace(raw.Payload.Text)
	case PayloadTextBytes:
		if !utf8.Valid(raw.Payload.Bytes) {
			return nil, cferrors.New(stage, cferrors.InvalidUtf8, "text payload is not valid utf-8")
		}
		normalizedText = collapseWhitespace(string(raw.Payload.Bytes))
	case PayloadBinary:
		binaryPayload = raw.Payload.Bytes
	}

	// Step 10: normalized size.
	if cfg.MaxNormalizedBytes > 0 && len(normalizedText) > cfg.MaxNormalizedBytes {
		return nil, cferrors.New(stage, cferrors.PayloadTooLarge, "normalized text exceeds max_normalized_bytes")
	}

	// Step 11: empty normalized text (only applies to text payloads).
	if raw.Payload.Kind != PayloadBinary && raw.Payload.Kind != PayloadNone && normalizedText == "" {
		return nil, cferrors.New(stage, cferrors.EmptyNormalizedText, "text payload is empty after normalization")
	}

	attrs := make(map[string]string, len(raw.Metadata.Attributes))
	for k, v := range raw.Metadata.Attributes {
		attrs[k] = v
	}

	return &CanonicalIngestRecord{
		IngestID:       ingestID,
		TenantID:       effectiveTenant,
		DocID:          effectiveDocID,
		ReceivedAt:     receivedAt,
		OriginalSource: originalSource,
		SourceTag:      raw.Source,
		NormalizedText: normalizedText,
		BinaryPayload:  binaryPayload,
		Attributes:     attrs,
	}, nil
}

func payloadByteLen(p Payload) int {
	switch p.Kind {
	case PayloadText:
		return len(p.Text)
	case PayloadTextBytes, PayloadBinary:
		return len(p.Bytes)
	default:
		return 0
	}
}
