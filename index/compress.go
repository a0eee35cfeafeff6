package index

import (
	cferrors "contentfp/errors"

	"github.com/klauspost/compress/zstd"
)

// Compressor wraps zstd encode/decode, optionally primed with a shared
// dictionary so that small, structurally-similar records (as persisted
// Records are) compress well without per-record training.
type Compressor struct {
	dict []byte
}

// NewCompressor builds a Compressor, optionally seeded with dict.
// A nil dict falls back to zstd's default window-based compression.
func NewCompressor(dict []byte) *Compressor {
	return &Compressor{dict: dict}
}

// Compress zstd-encodes data.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	opts := []zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedDefault)}
	if len(c.dict) > 0 {
		opts = append(opts, zstd.WithEncoderDict(c.dict))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Compression, "create zstd encoder", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress reverses Compress.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	opts := []zstd.DOption{}
	if len(c.dict) > 0 {
		opts = append(opts, zstd.WithDecoderDicts(c.dict))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Compression, "create zstd decoder", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, cferrors.Wrap(stage, cferrors.Compression, "decode zstd payload", err)
	}
	return out, nil
}
