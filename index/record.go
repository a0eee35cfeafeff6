// Package index implements C5: persisted fingerprint records, quantization,
// and the pluggable storage backend (in-memory and Postgres/pgvector).
package index

import (
	"bytes"
	"encoding/binary"
	"io"

	cferrors "contentfp/errors"
)

const stage = "index"

// SchemaVersion is the current on-disk record layout version.
const SchemaVersion uint16 = 1

// Record is the persisted representation of one fingerprinted document:
// an identity hash, an optional perceptual signature, an optional
// quantized embedding, and opaque metadata.
type Record struct {
	SchemaVersion  uint16
	CanonicalHash  []byte
	HasPerceptual  bool
	Signature      []uint64
	HasEmbedding   bool
	Embedding      []int8
	MetadataJSON   []byte
}

// Encode serializes r into the little-endian binary layout:
//
//	u16 schema_version
//	u32 canonical_hash_len || bytes
//	u8  has_perceptual
//	    (u32 sig_len || sig_len*u64)?
//	u8  has_embedding
//	    (u32 emb_dim || emb_dim*i8)?
//	u32 metadata_len || bytes metadata_json
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer
	version := r.SchemaVersion
	if version == 0 {
		version = SchemaVersion
	}
	if err := binary.Write(&buf, binary.LittleEndian, version); err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Encode, "write schema version", err)
	}
	if err := writeBytes(&buf, r.CanonicalHash); err != nil {
		return nil, err
	}
	if err := writeBool(&buf, r.HasPerceptual); err != nil {
		return nil, err
	}
	if r.HasPerceptual {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(r.Signature))); err != nil {
			return nil, cferrors.Wrap(stage, cferrors.Encode, "write signature length", err)
		}
		for _, v := range r.Signature {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, cferrors.Wrap(stage, cferrors.Encode, "write signature slot", err)
			}
		}
	}
	if err := writeBool(&buf, r.HasEmbedding); err != nil {
		return nil, err
	}
	if r.HasEmbedding {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(r.Embedding))); err != nil {
			return nil, cferrors.Wrap(stage, cferrors.Encode, "write embedding dim", err)
		}
		for _, v := range r.Embedding {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, cferrors.Wrap(stage, cferrors.Encode, "write embedding component", err)
			}
		}
	}
	if err := writeBytes(&buf, r.MetadataJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses the layout Encode produces.
func Decode(data []byte) (*Record, error) {
	buf := bytes.NewReader(data)
	var r Record
	if err := binary.Read(buf, binary.LittleEndian, &r.SchemaVersion); err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Decode, "read schema version", err)
	}
	var err error
	if r.CanonicalHash, err = readBytes(buf); err != nil {
		return nil, err
	}
	if r.HasPerceptual, err = readBool(buf); err != nil {
		return nil, err
	}
	if r.HasPerceptual {
		var sigLen uint32
		if err := binary.Read(buf, binary.LittleEndian, &sigLen); err != nil {
			return nil, cferrors.Wrap(stage, cferrors.Decode, "read signature length", err)
		}
		r.Signature = make([]uint64, sigLen)
		for i := range r.Signature {
			if err := binary.Read(buf, binary.LittleEndian, &r.Signature[i]); err != nil {
				return nil, cferrors.Wrap(stage, cferrors.Decode, "read signature slot", err)
			}
		}
	}
	if r.HasEmbedding, err = readBool(buf); err != nil {
		return nil, err
	}
	if r.HasEmbedding {
		var dim uint32
		if err := binary.Read(buf, binary.LittleEndian, &dim); err != nil {
			return nil, cferrors.Wrap(stage, cferrors.Decode, "read embedding dim", err)
		}
		r.Embedding = make([]int8, dim)
		for i := range r.Embedding {
			if err := binary.Read(buf, binary.LittleEndian, &r.Embedding[i]); err != nil {
				return nil, cferrors.Wrap(stage, cferrors.Decode, "read embedding component", err)
			}
		}
	}
	if r.MetadataJSON, err = readBytes(buf); err != nil {
		return nil, err
	}
	return &r, nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return cferrors.Wrap(stage, cferrors.Encode, "write length prefix", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return cferrors.Wrap(stage, cferrors.Encode, "write bytes", err)
	}
	return nil
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Decode, "read length prefix", err)
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Decode, "read bytes", err)
	}
	return b, nil
}

func writeBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	if _, err := w.Write([]byte{b}); err != nil {
		return cferrors.Wrap(stage, cferrors.Encode, "write bool", err)
	}
	return nil
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, cferrors.Wrap(stage, cferrors.Decode, "read bool", err)
	}
	return b[0] != 0, nil
}
