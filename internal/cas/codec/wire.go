package codec

import (
	"fmt"

	"github.com/kenneth/git-cas/internal/cas/types"
)

// wireManifest is the serialized shape shared by both codecs. Field tags
// cover both encoding/json and fxamacker/cbor, which honor the same
// struct-tag convention.
type wireChunk struct {
	Index  int    `json:"index" cbor:"index"`
	Size   int    `json:"size" cbor:"size"`
	Digest string `json:"digest" cbor:"digest"`
	Blob   string `json:"blob" cbor:"blob"`
}

type wireKdfParams struct {
	Algorithm       string `json:"algorithm" cbor:"algorithm"`
	Salt            string `json:"salt" cbor:"salt"`
	KeyLength       int    `json:"keyLength" cbor:"keyLength"`
	Iterations      int    `json:"iterations,omitempty" cbor:"iterations,omitempty"`
	Cost            int    `json:"cost,omitempty" cbor:"cost,omitempty"`
	BlockSize       int    `json:"blockSize,omitempty" cbor:"blockSize,omitempty"`
	Parallelization int    `json:"parallelization,omitempty" cbor:"parallelization,omitempty"`
}

type wireEncryptionMeta struct {
	Algorithm string         `json:"algorithm" cbor:"algorithm"`
	Nonce     string         `json:"nonce" cbor:"nonce"`
	Tag       string         `json:"tag" cbor:"tag"`
	Encrypted bool           `json:"encrypted" cbor:"encrypted"`
	Kdf       *wireKdfParams `json:"kdf,omitempty" cbor:"kdf,omitempty"`
}

type wireCompressionMeta struct {
	Algorithm string `json:"algorithm" cbor:"algorithm"`
}

type wireSubManifestRef struct {
	OID        string `json:"oid" cbor:"oid"`
	ChunkCount int    `json:"chunkCount" cbor:"chunkCount"`
	StartIndex int    `json:"startIndex" cbor:"startIndex"`
}

type wireManifest struct {
	Version      int                  `json:"version" cbor:"version"`
	Slug         string               `json:"slug" cbor:"slug"`
	Filename     string               `json:"filename" cbor:"filename"`
	Size         int64                `json:"size" cbor:"size"`
	Chunks       []wireChunk          `json:"chunks" cbor:"chunks"`
	Encryption   *wireEncryptionMeta  `json:"encryption,omitempty" cbor:"encryption,omitempty"`
	Compression  *wireCompressionMeta `json:"compression,omitempty" cbor:"compression,omitempty"`
	SubManifests []wireSubManifestRef `json:"subManifests,omitempty" cbor:"subManifests,omitempty"`
}

func toWire(m types.Manifest) wireManifest {
	chunks := m.Chunks()
	wireChunks := make([]wireChunk, len(chunks))
	for i, c := range chunks {
		wireChunks[i] = wireChunk{Index: c.Index(), Size: c.Size(), Digest: c.Digest(), Blob: c.Blob()}
	}

	w := wireManifest{
		Version:  m.Version(),
		Slug:     m.Slug(),
		Filename: m.Filename(),
		Size:     m.Size(),
		Chunks:   wireChunks,
	}

	if enc := m.Encryption(); enc != nil {
		we := &wireEncryptionMeta{
			Algorithm: enc.Algorithm(),
			Nonce:     enc.Nonce(),
			Tag:       enc.Tag(),
			Encrypted: enc.Encrypted(),
		}
		if kdf := enc.Kdf(); kdf != nil {
			we.Kdf = &wireKdfParams{
				Algorithm:       kdf.Algorithm(),
				Salt:            kdf.Salt(),
				KeyLength:       kdf.KeyLength(),
				Iterations:      kdf.Iterations(),
				Cost:            kdf.Cost(),
				BlockSize:       kdf.BlockSize(),
				Parallelization: kdf.Parallelization(),
			}
		}
		w.Encryption = we
	}

	if comp := m.Compression(); comp != nil {
		w.Compression = &wireCompressionMeta{Algorithm: comp.Algorithm()}
	}

	if subs := m.SubManifests(); len(subs) > 0 {
		wireSubs := make([]wireSubManifestRef, len(subs))
		for i, s := range subs {
			wireSubs[i] = wireSubManifestRef{OID: s.OID(), ChunkCount: s.ChunkCount(), StartIndex: s.StartIndex()}
		}
		w.SubManifests = wireSubs
	}

	return w
}

func fromWire(w wireManifest) (types.Manifest, error) {
	chunks := make([]types.Chunk, len(w.Chunks))
	for i, wc := range w.Chunks {
		c, err := types.NewChunk(wc.Index, wc.Size, wc.Digest, wc.Blob)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("decoding chunk %d: %w", i, err)
		}
		chunks[i] = c
	}

	opts := []types.ManifestOption{types.WithVersion(w.Version)}

	if w.Encryption != nil {
		var kdf *types.KdfParams
		if w.Encryption.Kdf != nil {
			k := w.Encryption.Kdf
			var kdfOpts []types.KdfParamsOption
			if k.Iterations > 0 {
				kdfOpts = append(kdfOpts, types.WithIterations(k.Iterations))
			}
			if k.Cost > 0 {
				kdfOpts = append(kdfOpts, types.WithCost(k.Cost))
			}
			if k.BlockSize > 0 {
				kdfOpts = append(kdfOpts, types.WithBlockSize(k.BlockSize))
			}
			if k.Parallelization > 0 {
				kdfOpts = append(kdfOpts, types.WithParallelization(k.Parallelization))
			}
			params, err := types.NewKdfParams(k.Algorithm, k.Salt, k.KeyLength, kdfOpts...)
			if err != nil {
				return types.Manifest{}, fmt.Errorf("decoding kdf params: %w", err)
			}
			kdf = &params
		}
		enc, err := types.NewEncryptionMeta(w.Encryption.Nonce, w.Encryption.Tag, kdf)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("decoding encryption meta: %w", err)
		}
		opts = append(opts, types.WithEncryption(enc))
	}

	if w.Compression != nil {
		comp, err := types.NewCompressionMeta(w.Compression.Algorithm)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("decoding compression meta: %w", err)
		}
		opts = append(opts, types.WithCompression(comp))
	}

	if len(w.SubManifests) > 0 {
		subs := make([]types.SubManifestRef, len(w.SubManifests))
		for i, ws := range w.SubManifests {
			s, err := types.NewSubManifestRef(ws.OID, ws.ChunkCount, ws.StartIndex)
			if err != nil {
				return types.Manifest{}, fmt.Errorf("decoding sub-manifest %d: %w", i, err)
			}
			subs[i] = s
		}
		opts = append(opts, types.WithSubManifests(subs))
	}

	return types.NewManifest(w.Slug, w.Filename, w.Size, chunks, opts...)
}
