package index

import cferrors "contentfp/errors"

// entryToRecord projects the parts of an Entry that belong to the §6 wire
// format. TenantID and DocID are storage keys, not record payload, and
// Scale isn't part of the persisted layout either (both backends carry it
// alongside the blob instead).
func entryToRecord(e Entry) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		CanonicalHash: e.CanonicalHash,
		HasPerceptual: len(e.Signature) > 0,
		Signature:     e.Signature,
		HasEmbedding:  len(e.Embedding) > 0,
		Embedding:     e.Embedding,
		MetadataJSON:  e.MetadataJSON,
	}
}

func recordToEntry(tenantID, docID string, r Record, scale float64) Entry {
	return Entry{
		TenantID:      tenantID,
		DocID:         docID,
		CanonicalHash: r.CanonicalHash,
		Signature:     r.Signature,
		Embedding:     r.Embedding,
		Scale:         scale,
		MetadataJSON:  r.MetadataJSON,
	}
}

// EncodeForStorage serializes e into the persisted record format and
// optionally compresses it, per the write path's "serialize deterministically,
// then optionally compress" step. compressionCodec "none" (or empty) skips
// compression entirely; any other value requires a non-nil compressor.
func EncodeForStorage(e Entry, compressionCodec string, compressor *Compressor) ([]byte, error) {
	data, err := Encode(entryToRecord(e))
	if err != nil {
		return nil, err
	}
	if compressionCodec == "" || compressionCodec == "none" || compressor == nil {
		return data, nil
	}
	return compressor.Compress(data)
}

// DecodeFromStorage reverses EncodeForStorage and enforces the schema
// boundary: a record whose schema_version exceeds the version this build
// understands is rejected rather than silently misread.
func DecodeFromStorage(tenantID, docID string, blob []byte, compressionCodec string, compressor *Compressor, scale float64) (Entry, error) {
	data := blob
	if compressionCodec != "" && compressionCodec != "none" && compressor != nil {
		decompressed, err := compressor.Decompress(blob)
		if err != nil {
			return Entry{}, err
		}
		data = decompressed
	}
	rec, err := Decode(data)
	if err != nil {
		return Entry{}, err
	}
	if rec.SchemaVersion > SchemaVersion {
		return Entry{}, cferrors.New(stage, cferrors.Decode, "record schema_version exceeds the version this build supports")
	}
	return recordToEntry(tenantID, docID, *rec, scale), nil
}
