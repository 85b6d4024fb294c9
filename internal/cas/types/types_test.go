package types

import "testing"

func validDigest() string {
	return "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
}

func TestNewChunkValid(t *testing.T) {
	c, err := NewChunk(0, 1024, validDigest(), "deadbeef")
	if err != nil {
		t.Fatalf("NewChunk() error: %v", err)
	}
	if c.Index() != 0 || c.Size() != 1024 || c.Digest() != validDigest() || c.Blob() != "deadbeef" {
		t.Fatalf("unexpected chunk fields: %+v", c)
	}
}

func TestNewChunkRejectsNegativeIndex(t *testing.T) {
	if _, err := NewChunk(-1, 10, validDigest(), "blob"); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestNewChunkRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewChunk(0, 0, validDigest(), "blob"); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestNewChunkRejectsBadDigest(t *testing.T) {
	if _, err := NewChunk(0, 10, "not-hex", "blob"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestNewChunkRejectsEmptyBlob(t *testing.T) {
	if _, err := NewChunk(0, 10, validDigest(), ""); err == nil {
		t.Fatal("expected error for empty blob OID")
	}
}

func TestNewKdfParamsPBKDF2RequiresIterations(t *testing.T) {
	if _, err := NewKdfParams(KdfPBKDF2, "salt", 32); err == nil {
		t.Fatal("expected error when pbkdf2 iterations are unset")
	}
	p, err := NewKdfParams(KdfPBKDF2, "salt", 32, WithIterations(600000))
	if err != nil {
		t.Fatalf("NewKdfParams() error: %v", err)
	}
	if p.Iterations() != 600000 || p.Algorithm() != KdfPBKDF2 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestNewKdfParamsScryptRequiresCostParams(t *testing.T) {
	if _, err := NewKdfParams(KdfScrypt, "salt", 32); err == nil {
		t.Fatal("expected error when scrypt cost params are unset")
	}
	p, err := NewKdfParams(KdfScrypt, "salt", 32, WithCost(1<<15), WithBlockSize(8), WithParallelization(1))
	if err != nil {
		t.Fatalf("NewKdfParams() error: %v", err)
	}
	if p.Cost() != 1<<15 || p.BlockSize() != 8 || p.Parallelization() != 1 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestNewKdfParamsRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewKdfParams("md5", "salt", 32); err == nil {
		t.Fatal("expected error for unknown KDF algorithm")
	}
}

func TestNewEncryptionMetaRequiresNonceAndTag(t *testing.T) {
	if _, err := NewEncryptionMeta("", "tag", nil); err == nil {
		t.Fatal("expected error for empty nonce")
	}
	if _, err := NewEncryptionMeta("nonce", "", nil); err == nil {
		t.Fatal("expected error for empty tag")
	}
	m, err := NewEncryptionMeta("nonce", "tag", nil)
	if err != nil {
		t.Fatalf("NewEncryptionMeta() error: %v", err)
	}
	if !m.Encrypted() || m.Algorithm() != AlgorithmAES256GCM {
		t.Fatalf("unexpected meta: %+v", m)
	}
}

func TestEncryptionMetaZeroValueNotEncrypted(t *testing.T) {
	var m EncryptionMeta
	if m.Encrypted() {
		t.Fatal("zero-value EncryptionMeta must report Encrypted() == false")
	}
}

func TestNewCompressionMetaRejectsUnknown(t *testing.T) {
	if _, err := NewCompressionMeta("zstd"); err == nil {
		t.Fatal("expected error for unsupported compression algorithm")
	}
	m, err := NewCompressionMeta(AlgorithmGzip)
	if err != nil {
		t.Fatalf("NewCompressionMeta() error: %v", err)
	}
	if m.IsZero() {
		t.Fatal("a constructed CompressionMeta must not report IsZero()")
	}
}

func TestNewSubManifestRefValidation(t *testing.T) {
	if _, err := NewSubManifestRef("", 10, 0); err == nil {
		t.Fatal("expected error for empty OID")
	}
	if _, err := NewSubManifestRef("oid", 0, 0); err == nil {
		t.Fatal("expected error for non-positive chunkCount")
	}
	if _, err := NewSubManifestRef("oid", 10, -1); err == nil {
		t.Fatal("expected error for negative startIndex")
	}
	ref, err := NewSubManifestRef("oid", 10, 5)
	if err != nil {
		t.Fatalf("NewSubManifestRef() error: %v", err)
	}
	if ref.OID() != "oid" || ref.ChunkCount() != 10 || ref.StartIndex() != 5 {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestNewManifestRequiresSlugAndFilename(t *testing.T) {
	if _, err := NewManifest("", "f.txt", 0, nil); err == nil {
		t.Fatal("expected error for empty slug")
	}
	if _, err := NewManifest("slug", "", 0, nil); err == nil {
		t.Fatal("expected error for empty filename")
	}
}

func TestNewManifestContiguousChunksFromZero(t *testing.T) {
	c0, _ := NewChunk(0, 10, validDigest(), "b0")
	c1, _ := NewChunk(1, 10, validDigest(), "b1")
	m, err := NewManifest("slug", "f.txt", 20, []Chunk{c0, c1})
	if err != nil {
		t.Fatalf("NewManifest() error: %v", err)
	}
	if m.ChunkCount() != 2 || m.Version() != 1 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestNewManifestRejectsNonContiguousChunks(t *testing.T) {
	c0, _ := NewChunk(0, 10, validDigest(), "b0")
	c2, _ := NewChunk(2, 10, validDigest(), "b2")
	if _, err := NewManifest("slug", "f.txt", 20, []Chunk{c0, c2}); err == nil {
		t.Fatal("expected error for non-contiguous chunk indices")
	}
}

func TestNewManifestSubManifestRootMustHaveNoChunks(t *testing.T) {
	c0, _ := NewChunk(0, 10, validDigest(), "b0")
	ref, _ := NewSubManifestRef("oid", 10, 0)
	_, err := NewManifest("slug", "f.txt", 20, []Chunk{c0}, WithSubManifests([]SubManifestRef{ref}))
	if err == nil {
		t.Fatal("expected error when both chunks and sub-manifests are set")
	}
}

func TestNewManifestSubManifestContiguousFromStartIndex(t *testing.T) {
	c5, _ := NewChunk(5, 10, validDigest(), "b5")
	c6, _ := NewChunk(6, 10, validDigest(), "b6")
	m, err := NewManifest("slug", "f.txt", 20, []Chunk{c5, c6})
	if err != nil {
		t.Fatalf("NewManifest() error: %v", err)
	}
	if m.Chunks()[0].Index() != 5 {
		t.Fatalf("expected first chunk index 5, got %d", m.Chunks()[0].Index())
	}
}

func TestNewManifestRejectsBadVersion(t *testing.T) {
	if _, err := NewManifest("slug", "f.txt", 0, nil, WithVersion(3)); err == nil {
		t.Fatal("expected error for unsupported manifest version")
	}
}

func TestManifestIsMerkleRoot(t *testing.T) {
	ref, _ := NewSubManifestRef("oid", 10, 0)
	m, err := NewManifest("slug", "f.txt", 20, nil, WithSubManifests([]SubManifestRef{ref}))
	if err != nil {
		t.Fatalf("NewManifest() error: %v", err)
	}
	if !m.IsMerkleRoot() {
		t.Fatal("expected IsMerkleRoot() == true")
	}
}

func TestManifestChunksGetterReturnsCopy(t *testing.T) {
	c0, _ := NewChunk(0, 10, validDigest(), "b0")
	m, err := NewManifest("slug", "f.txt", 10, []Chunk{c0})
	if err != nil {
		t.Fatalf("NewManifest() error: %v", err)
	}
	chunks := m.Chunks()
	chunks[0] = Chunk{}
	if m.Chunks()[0].Blob() != "b0" {
		t.Fatal("Chunks() must return a defensive copy, mutation leaked into the manifest")
	}
}
