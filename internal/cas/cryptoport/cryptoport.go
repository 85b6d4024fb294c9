// Package cryptoport defines the crypto port the engine drives: hashing,
// randomness, one-shot and streaming AEAD, and passphrase key derivation.
package cryptoport

import (
	"io"

	"github.com/kenneth/git-cas/internal/cas/types"
)

// KeySize is the required raw key length in bytes (AES-256).
const KeySize = 32

// NonceSize and TagSize are the AES-256-GCM wire sizes this engine uses.
const (
	NonceSize = 12
	TagSize   = 16
)

// EncryptedBuffer is the result of a one-shot encryptBuffer call.
type EncryptedBuffer struct {
	Buf  []byte
	Meta types.EncryptionMeta
}

// EncryptionStream encrypts a lazily-produced plaintext sequence. Finalize
// must be called exactly once, only after Encrypt's returned reader has been
// fully drained.
type EncryptionStream interface {
	// Encrypt wraps source, returning a reader over the emitted ciphertext.
	// Backed by a one-shot AEAD, the returned reader may buffer internally
	// and yield nothing until source is exhausted.
	Encrypt(source io.Reader) io.Reader
	// Finalize returns the nonce/tag metadata for the whole stream. Must be
	// called after Encrypt's reader has returned io.EOF.
	Finalize() (types.EncryptionMeta, error)
}

// DeriveKeyRequest bundles the inputs to Port.DeriveKey.
type DeriveKeyRequest struct {
	Passphrase      string
	Salt            []byte // if nil, a random 32-byte salt is generated
	Algorithm       string // types.KdfPBKDF2 or types.KdfScrypt
	KeyLength       int    // defaults to 32
	Iterations      int    // pbkdf2
	Cost            int    // scrypt N
	BlockSize       int    // scrypt r
	Parallelization int    // scrypt p
}

// DeriveKeyResult echoes the actual parameters used (including any
// randomly-chosen salt) alongside the derived key.
type DeriveKeyResult struct {
	Key    []byte
	Params types.KdfParams
}

// Port is the crypto port the engine depends on.
type Port interface {
	SHA256(data []byte) string
	RandomBytes(n int) ([]byte, error)
	EncryptBuffer(plaintext, key []byte) (EncryptedBuffer, error)
	DecryptBuffer(ciphertext, key []byte, meta types.EncryptionMeta) ([]byte, error)
	CreateEncryptionStream(key []byte) (EncryptionStream, error)
	DeriveKey(req DeriveKeyRequest) (DeriveKeyResult, error)
	// DeriveKeyFromManifest replays a manifest's stored KdfParams to
	// reproduce the exact key restore needs from a passphrase.
	DeriveKeyFromManifest(passphrase string, params types.KdfParams) (DeriveKeyResult, error)
}
