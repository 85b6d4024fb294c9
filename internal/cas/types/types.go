// Package types holds the validated, immutable value records that make up
// the on-disk model: chunks, manifests, and the encryption/compression/KDF
// metadata attached to them. Records are constructed only through the
// factories in this file; once built they are never mutated.
package types

import (
	"fmt"
	"regexp"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Chunk is one fixed-size (or final short) window of a logical file's bytes,
// stored as a single blob in the object database.
type Chunk struct {
	index  int
	size   int
	digest string
	blob   string
}

func NewChunk(index, size int, digest, blob string) (Chunk, error) {
	if index < 0 {
		return Chunk{}, fmt.Errorf("chunk index must be non-negative, got %d", index)
	}
	if size <= 0 {
		return Chunk{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if !hexDigest.MatchString(digest) {
		return Chunk{}, fmt.Errorf("chunk digest must be 64 lowercase hex characters, got %q", digest)
	}
	if blob == "" {
		return Chunk{}, fmt.Errorf("chunk blob OID must not be empty")
	}
	return Chunk{index: index, size: size, digest: digest, blob: blob}, nil
}

func (c Chunk) Index() int      { return c.index }
func (c Chunk) Size() int       { return c.size }
func (c Chunk) Digest() string  { return c.digest }
func (c Chunk) Blob() string    { return c.blob }
func (c Chunk) IsZero() bool    { return c.blob == "" && c.digest == "" }

// KdfParams records the passphrase-derivation parameters used to produce a
// 32-byte key, echoing back the actual values used (including any randomly
// chosen salt) so restore can reproduce the same key.
type KdfParams struct {
	algorithm      string // "pbkdf2" or "scrypt"
	salt           string // base64 of 32 random bytes
	keyLength      int
	iterations     int // pbkdf2 only
	cost           int // scrypt only (N)
	blockSize      int // scrypt only (r)
	parallelization int // scrypt only (p)
}

const (
	KdfPBKDF2 = "pbkdf2"
	KdfScrypt = "scrypt"
)

type KdfParamsOption func(*KdfParams)

func WithIterations(n int) KdfParamsOption     { return func(p *KdfParams) { p.iterations = n } }
func WithCost(n int) KdfParamsOption           { return func(p *KdfParams) { p.cost = n } }
func WithBlockSize(n int) KdfParamsOption      { return func(p *KdfParams) { p.blockSize = n } }
func WithParallelization(n int) KdfParamsOption { return func(p *KdfParams) { p.parallelization = n } }

func NewKdfParams(algorithm, salt string, keyLength int, opts ...KdfParamsOption) (KdfParams, error) {
	if algorithm != KdfPBKDF2 && algorithm != KdfScrypt {
		return KdfParams{}, fmt.Errorf("unknown KDF algorithm %q", algorithm)
	}
	if salt == "" {
		return KdfParams{}, fmt.Errorf("KDF salt must not be empty")
	}
	if keyLength <= 0 {
		keyLength = 32
	}
	p := KdfParams{algorithm: algorithm, salt: salt, keyLength: keyLength}
	for _, opt := range opts {
		opt(&p)
	}
	if algorithm == KdfPBKDF2 && p.iterations <= 0 {
		return KdfParams{}, fmt.Errorf("pbkdf2 requires a positive iteration count")
	}
	if algorithm == KdfScrypt {
		if p.cost <= 0 || p.blockSize <= 0 || p.parallelization <= 0 {
			return KdfParams{}, fmt.Errorf("scrypt requires positive cost, blockSize, and parallelization")
		}
	}
	return p, nil
}

func (p KdfParams) Algorithm() string      { return p.algorithm }
func (p KdfParams) Salt() string           { return p.salt }
func (p KdfParams) KeyLength() int         { return p.keyLength }
func (p KdfParams) Iterations() int        { return p.iterations }
func (p KdfParams) Cost() int              { return p.cost }
func (p KdfParams) BlockSize() int         { return p.blockSize }
func (p KdfParams) Parallelization() int   { return p.parallelization }
func (p KdfParams) IsZero() bool           { return p.algorithm == "" }

// EncryptionMeta describes the AEAD parameters used to encrypt a manifest's
// chunk stream. A zero-value EncryptionMeta (Encrypted() == false) means the
// chunks are plaintext.
type EncryptionMeta struct {
	algorithm string // always "aes-256-gcm"
	nonce     string // base64, 12 bytes decoded
	tag       string // base64, 16 bytes decoded
	encrypted bool
	kdf       *KdfParams
}

const AlgorithmAES256GCM = "aes-256-gcm"

func NewEncryptionMeta(nonce, tag string, kdf *KdfParams) (EncryptionMeta, error) {
	if nonce == "" {
		return EncryptionMeta{}, fmt.Errorf("encryption nonce must not be empty")
	}
	if tag == "" {
		return EncryptionMeta{}, fmt.Errorf("encryption tag must not be empty")
	}
	return EncryptionMeta{
		algorithm: AlgorithmAES256GCM,
		nonce:     nonce,
		tag:       tag,
		encrypted: true,
		kdf:       kdf,
	}, nil
}

func (m EncryptionMeta) Algorithm() string { return m.algorithm }
func (m EncryptionMeta) Nonce() string     { return m.nonce }
func (m EncryptionMeta) Tag() string       { return m.tag }
func (m EncryptionMeta) Encrypted() bool   { return m.encrypted }
func (m EncryptionMeta) Kdf() *KdfParams   { return m.kdf }

// CompressionMeta records the compression algorithm applied before chunking.
// Only "gzip" exists today; the field is additive for future algorithms.
type CompressionMeta struct {
	algorithm string
}

const AlgorithmGzip = "gzip"

func NewCompressionMeta(algorithm string) (CompressionMeta, error) {
	if algorithm != AlgorithmGzip {
		return CompressionMeta{}, fmt.Errorf("unknown compression algorithm %q", algorithm)
	}
	return CompressionMeta{algorithm: algorithm}, nil
}

func (m CompressionMeta) Algorithm() string { return m.algorithm }
func (m CompressionMeta) IsZero() bool      { return m.algorithm == "" }

// SubManifestRef points at a nested Manifest blob holding a contiguous slice
// of a Merkle-split file's chunks.
type SubManifestRef struct {
	oid        string
	chunkCount int
	startIndex int
}

func NewSubManifestRef(oid string, chunkCount, startIndex int) (SubManifestRef, error) {
	if oid == "" {
		return SubManifestRef{}, fmt.Errorf("sub-manifest OID must not be empty")
	}
	if chunkCount <= 0 {
		return SubManifestRef{}, fmt.Errorf("sub-manifest chunkCount must be positive, got %d", chunkCount)
	}
	if startIndex < 0 {
		return SubManifestRef{}, fmt.Errorf("sub-manifest startIndex must be non-negative, got %d", startIndex)
	}
	return SubManifestRef{oid: oid, chunkCount: chunkCount, startIndex: startIndex}, nil
}

func (r SubManifestRef) OID() string        { return r.oid }
func (r SubManifestRef) ChunkCount() int    { return r.chunkCount }
func (r SubManifestRef) StartIndex() int    { return r.startIndex }

// Manifest is the validated, immutable record describing a logical file's
// identity, original size, and ordered chunk list (or, for a Merkle root,
// its sub-manifest references).
type Manifest struct {
	version       int
	slug          string
	filename      string
	size          int64
	chunks        []Chunk
	encryption    *EncryptionMeta
	compression   *CompressionMeta
	subManifests  []SubManifestRef
}

type ManifestOption func(*Manifest)

func WithEncryption(m EncryptionMeta) ManifestOption {
	return func(mf *Manifest) { mf.encryption = &m }
}

func WithCompression(m CompressionMeta) ManifestOption {
	return func(mf *Manifest) { mf.compression = &m }
}

func WithSubManifests(refs []SubManifestRef) ManifestOption {
	return func(mf *Manifest) { mf.subManifests = refs }
}

func WithVersion(v int) ManifestOption {
	return func(mf *Manifest) { mf.version = v }
}

// NewManifest validates and constructs a root-shaped or flat Manifest.
// version defaults to 1 when unset via WithVersion.
func NewManifest(slug, filename string, size int64, chunks []Chunk, opts ...ManifestOption) (Manifest, error) {
	if slug == "" {
		return Manifest{}, fmt.Errorf("manifest slug must not be empty")
	}
	if filename == "" {
		return Manifest{}, fmt.Errorf("manifest filename must not be empty")
	}
	if size < 0 {
		return Manifest{}, fmt.Errorf("manifest size must be non-negative, got %d", size)
	}
	m := Manifest{version: 1, slug: slug, filename: filename, size: size, chunks: append([]Chunk(nil), chunks...)}
	for _, opt := range opts {
		opt(&m)
	}
	if m.version != 1 && m.version != 2 {
		return Manifest{}, fmt.Errorf("manifest version must be 1 or 2, got %d", m.version)
	}
	if len(m.subManifests) > 0 && len(m.chunks) > 0 {
		return Manifest{}, fmt.Errorf("a manifest with sub-manifests must have an empty chunk list at the root")
	}
	// Chunks must be contiguously indexed starting from whatever index the
	// first one carries: 0 for a flat root manifest, or a sub-manifest's
	// startIndex when this record is one group of a Merkle split.
	for i, c := range m.chunks {
		if c.Index() != m.chunks[0].Index()+i {
			return Manifest{}, fmt.Errorf("chunk at position %d carries non-contiguous index %d", i, c.Index())
		}
	}
	return m, nil
}

func (m Manifest) Version() int                   { return m.version }
func (m Manifest) Slug() string                   { return m.slug }
func (m Manifest) Filename() string                { return m.filename }
func (m Manifest) Size() int64                    { return m.size }
func (m Manifest) Chunks() []Chunk                { return append([]Chunk(nil), m.chunks...) }
func (m Manifest) ChunkCount() int                { return len(m.chunks) }
func (m Manifest) Encryption() *EncryptionMeta     { return m.encryption }
func (m Manifest) Compression() *CompressionMeta   { return m.compression }
func (m Manifest) SubManifests() []SubManifestRef  { return append([]SubManifestRef(nil), m.subManifests...) }
func (m Manifest) IsMerkleRoot() bool              { return len(m.subManifests) > 0 }
