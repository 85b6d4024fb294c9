package codec

import (
	"testing"

	"github.com/kenneth/git-cas/internal/cas/types"
)

func sampleManifest(t *testing.T) types.Manifest {
	t.Helper()
	chunk, err := types.NewChunk(0, 11, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", "oid-1")
	if err != nil {
		t.Fatalf("NewChunk() error: %v", err)
	}
	kdf, err := types.NewKdfParams(types.KdfScrypt, "c2FsdA==", 32, types.WithCost(32768), types.WithBlockSize(8), types.WithParallelization(1))
	if err != nil {
		t.Fatalf("NewKdfParams() error: %v", err)
	}
	enc, err := types.NewEncryptionMeta("bm9uY2U=", "dGFn", &kdf)
	if err != nil {
		t.Fatalf("NewEncryptionMeta() error: %v", err)
	}
	comp, err := types.NewCompressionMeta(types.AlgorithmGzip)
	if err != nil {
		t.Fatalf("NewCompressionMeta() error: %v", err)
	}
	m, err := types.NewManifest("slug-1", "file.bin", 11, []types.Chunk{chunk},
		types.WithEncryption(enc), types.WithCompression(comp))
	if err != nil {
		t.Fatalf("NewManifest() error: %v", err)
	}
	return m
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := NewJSONCodec()
	m := sampleManifest(t)

	data, err := c.Encode(m)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	decoded, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	assertManifestsEqual(t, m, decoded)
	if c.Extension() != "json" {
		t.Fatalf("Extension() = %s, want json", c.Extension())
	}
}

func TestCBORCodecRoundTrip(t *testing.T) {
	c, err := NewCBORCodec()
	if err != nil {
		t.Fatalf("NewCBORCodec() error: %v", err)
	}
	m := sampleManifest(t)

	data, err := c.Encode(m)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	decoded, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	assertManifestsEqual(t, m, decoded)
	if c.Extension() != "cbor" {
		t.Fatalf("Extension() = %s, want cbor", c.Extension())
	}
}

func assertManifestsEqual(t *testing.T, want, got types.Manifest) {
	t.Helper()
	if want.Slug() != got.Slug() || want.Filename() != got.Filename() || want.Size() != got.Size() {
		t.Fatalf("manifest identity mismatch: got %+v, want %+v", got, want)
	}
	if want.ChunkCount() != got.ChunkCount() {
		t.Fatalf("chunk count mismatch: got %d, want %d", got.ChunkCount(), want.ChunkCount())
	}
	for i, c := range want.Chunks() {
		gc := got.Chunks()[i]
		if c.Index() != gc.Index() || c.Size() != gc.Size() || c.Digest() != gc.Digest() || c.Blob() != gc.Blob() {
			t.Fatalf("chunk %d mismatch: got %+v, want %+v", i, gc, c)
		}
	}
	if (want.Encryption() == nil) != (got.Encryption() == nil) {
		t.Fatalf("encryption presence mismatch")
	}
	if want.Encryption() != nil {
		if want.Encryption().Nonce() != got.Encryption().Nonce() || want.Encryption().Tag() != got.Encryption().Tag() {
			t.Fatalf("encryption meta mismatch")
		}
	}
	if (want.Compression() == nil) != (got.Compression() == nil) {
		t.Fatalf("compression presence mismatch")
	}
}
