package index

import "testing"

func TestEncodeForStorageRoundTripUncompressed(t *testing.T) {
	e := Entry{
		CanonicalHash: []byte{1, 2, 3},
		Signature:     []uint64{10, 20},
		Embedding:     []int8{1, -1, 2},
		MetadataJSON:  []byte(`{"a":1}`),
	}
	blob, err := EncodeForStorage(e, "none", nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeFromStorage("t1", "d1", blob, "none", nil, 100)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.TenantID != "t1" || got.DocID != "d1" || len(got.Signature) != 2 || len(got.Embedding) != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncodeForStorageRoundTripCompressed(t *testing.T) {
	c := NewCompressor(nil)
	e := Entry{CanonicalHash: []byte{1, 2, 3}, MetadataJSON: []byte(`{"a":1}`)}
	blob, err := EncodeForStorage(e, "zstd", c)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeFromStorage("t1", "d1", blob, "zstd", c, 100)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(got.CanonicalHash) != "\x01\x02\x03" {
		t.Fatalf("unexpected canonical hash: %v", got.CanonicalHash)
	}
}

func TestDecodeFromStorageRejectsFutureSchemaVersion(t *testing.T) {
	rec := Record{SchemaVersion: SchemaVersion + 1, CanonicalHash: []byte{1}}
	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := DecodeFromStorage("t1", "d1", data, "none", nil, 100); err == nil {
		t.Fatalf("expected error decoding a record from a newer schema version")
	}
}
