package engine

import (
	"bytes"
	"context"
	"io"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/cryptoport"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// StoreInput bundles the parameters of a store operation. Exactly one of
// EncryptionKey or Passphrase may be set.
type StoreInput struct {
	Source        io.Reader
	Slug          string
	Filename      string
	EncryptionKey []byte
	Passphrase    string
	KdfOptions    *cryptoport.DeriveKeyRequest // Algorithm/Iterations/Cost/etc; Passphrase/Salt ignored
	Compress      bool
}

// Store runs the chunking/encryption/compression pipeline over in.Source
// and returns the resulting Manifest. It does not call createTree; callers
// that want a persisted tree OID call Engine.CreateTree on the result.
func (e *Engine) Store(ctx context.Context, in StoreInput) (types.Manifest, error) {
	if in.EncryptionKey != nil && in.Passphrase != "" {
		return types.Manifest{}, errBothKeyAndPassphrase()
	}

	raw, err := io.ReadAll(in.Source)
	if err != nil {
		wrapped := caserr.StreamErr(0, err)
		e.maybeEmitError(wrapped)
		return types.Manifest{}, wrapped
	}
	rawSize := int64(len(raw))

	data := raw
	var compMeta *types.CompressionMeta
	if in.Compress {
		comp, err := e.newGzipCompressor()
		if err != nil {
			return types.Manifest{}, err
		}
		compressed, err := comp.Compress(data)
		if err != nil {
			return types.Manifest{}, err
		}
		data = compressed
		m := comp.Meta()
		compMeta = &m
	}

	var encMeta *types.EncryptionMeta
	key, kdfParams, err := e.resolveEncryptionKey(in)
	if err != nil {
		return types.Manifest{}, err
	}
	if key != nil {
		stream, err := e.crypto.CreateEncryptionStream(key)
		if err != nil {
			return types.Manifest{}, err
		}
		ciphertext, err := io.ReadAll(stream.Encrypt(bytes.NewReader(data)))
		if err != nil {
			return types.Manifest{}, err
		}
		meta, err := stream.Finalize()
		if err != nil {
			return types.Manifest{}, err
		}
		if kdfParams != nil {
			meta, err = types.NewEncryptionMeta(meta.Nonce(), meta.Tag(), kdfParams)
			if err != nil {
				return types.Manifest{}, err
			}
		}
		data = ciphertext
		encMeta = &meta
	}

	chunks, err := e.writeChunks(ctx, in.Slug, data)
	if err != nil {
		return types.Manifest{}, err
	}

	opts := []types.ManifestOption{}
	if encMeta != nil {
		opts = append(opts, types.WithEncryption(*encMeta))
	}
	if compMeta != nil {
		opts = append(opts, types.WithCompression(*compMeta))
	}

	manifest, err := types.NewManifest(in.Slug, in.Filename, rawSize, chunks, opts...)
	if err != nil {
		return types.Manifest{}, err
	}

	e.emit(Event{
		Type:       EventFileStored,
		Slug:       in.Slug,
		Size:       int(rawSize),
		ChunkCount: manifest.ChunkCount(),
		Encrypted:  encMeta != nil,
	})
	return manifest, nil
}

// resolveEncryptionKey returns the raw key to encrypt under (nil if neither
// EncryptionKey nor Passphrase was supplied) and, for the passphrase case,
// the KdfParams to attach to the manifest's EncryptionMeta.
func (e *Engine) resolveEncryptionKey(in StoreInput) ([]byte, *types.KdfParams, error) {
	if in.EncryptionKey != nil {
		if err := validateKey(in.EncryptionKey); err != nil {
			return nil, nil, err
		}
		return in.EncryptionKey, nil, nil
	}
	if in.Passphrase != "" {
		req := cryptoport.DeriveKeyRequest{}
		if in.KdfOptions != nil {
			req = *in.KdfOptions
		}
		req.Passphrase = in.Passphrase
		result, err := e.crypto.DeriveKey(req)
		if err != nil {
			return nil, nil, err
		}
		params := result.Params
		return result.Key, &params, nil
	}
	return nil, nil, nil
}

// writeChunks splits data into e.chunkSize windows (the last possibly
// shorter), writing each as a blob in index order and emitting
// EventChunkStored as it goes. An empty data slice produces no chunks and
// calls writeBlob zero times, matching the empty-input law.
func (e *Engine) writeChunks(ctx context.Context, slug string, data []byte) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for offset := 0; offset < len(data); offset += e.chunkSize {
		end := offset + e.chunkSize
		if end > len(data) {
			end = len(data)
		}
		piece := data[offset:end]
		digest := e.crypto.SHA256(piece)

		blob, err := e.persist.WriteBlob(ctx, piece)
		if err != nil {
			wrapped := caserr.GitErr("writeBlob", err)
			e.maybeEmitError(wrapped)
			return nil, wrapped
		}

		chunk, err := types.NewChunk(len(chunks), len(piece), digest, blob)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)

		e.emit(Event{Type: EventChunkStored, Index: chunk.Index(), Size: chunk.Size(), Digest: digest, Blob: blob})
	}
	return chunks, nil
}

func (e *Engine) maybeEmitError(err error) {
	if !e.hasListeners() {
		return
	}
	code := ""
	if ce, ok := err.(*caserr.Error); ok {
		code = string(ce.Code)
	}
	e.emit(Event{Type: EventError, Code: code, Message: err.Error()})
}

func validateKey(key []byte) error {
	if len(key) != cryptoport.KeySize {
		return caserr.InvalidKeyLengthErr(len(key))
	}
	return nil
}
