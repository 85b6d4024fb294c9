// Package cryptobackend is the default implementation of cryptoport.Port:
// SHA-256 digesting, CSPRNG randomness, AES-256-GCM AEAD (one-shot and
// streaming), and PBKDF2/scrypt key derivation. The AEAD design uses one
// nonce and one tag per file rather than per chunk, since EncryptionMeta
// models a single whole-stream seal.
package cryptobackend

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/cryptoport"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// Backend is the default cryptoport.Port implementation.
type Backend struct {
	pool *BufferPool
}

func New() *Backend {
	return &Backend{pool: GetGlobalBufferPool()}
}

func (b *Backend) SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (b *Backend) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// freshNonce draws a random 12-byte nonce from the shared buffer pool,
// scratching it first so a reused slot never leaks a prior nonce. The
// returned slice is independent of the pool and safe for the caller to keep.
func (b *Backend) freshNonce() ([]byte, error) {
	scratch := b.pool.Get12()
	defer b.pool.Put12(scratch)
	if _, err := io.ReadFull(rand.Reader, scratch); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return append([]byte(nil), scratch...), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if err := ValidateKeyBytes(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return gcm, nil
}

// EncryptBuffer seals plaintext under key with a freshly random 12-byte
// nonce, splitting the trailing 16-byte GCM tag out into the returned
// EncryptionMeta so integrity-bit-flip tests can corrupt it independently
// of the ciphertext bytes.
func (b *Backend) EncryptBuffer(plaintext, key []byte) (cryptoport.EncryptedBuffer, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return cryptoport.EncryptedBuffer{}, err
	}
	nonce, err := b.freshNonce()
	if err != nil {
		return cryptoport.EncryptedBuffer{}, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := splitTag(sealed)

	meta, err := types.NewEncryptionMeta(encodeB64(nonce), encodeB64(tag), nil)
	if err != nil {
		return cryptoport.EncryptedBuffer{}, err
	}
	return cryptoport.EncryptedBuffer{Buf: ciphertext, Meta: meta}, nil
}

// DecryptBuffer reassembles ciphertext+tag and opens it under key. Any
// authentication failure — wrong key, tampered ciphertext, tampered nonce,
// or tampered tag — surfaces as caserr.IntegrityError.
func (b *Backend) DecryptBuffer(ciphertext, key []byte, meta types.EncryptionMeta) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := decodeB64(meta.Nonce())
	if err != nil {
		return nil, caserr.New(caserr.IntegrityError, "invalid stored nonce", nil)
	}
	tag, err := decodeB64(meta.Tag())
	if err != nil {
		return nil, caserr.New(caserr.IntegrityError, "invalid stored tag", nil)
	}
	sealed := append(append([]byte(nil), ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, caserr.Wrap(caserr.IntegrityError, "AEAD authentication failed", err, nil)
	}
	return plaintext, nil
}

func splitTag(sealed []byte) (ciphertext, tag []byte) {
	n := len(sealed) - cryptoport.TagSize
	if n < 0 {
		n = 0
	}
	return append([]byte(nil), sealed[:n]...), append([]byte(nil), sealed[n:]...)
}

func encodeB64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func decodeB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// aeadStream is the one-shot-AEAD-backed EncryptionStream. Go's
// crypto/cipher GCM cannot emit ciphertext before it has seen the whole
// plaintext (the tag authenticates the entire message), so — per the design
// note above — it buffers the full source internally and yields a
// single trailing emission once the source is exhausted.
type aeadStream struct {
	gcm        cipher.AEAD
	nonce      []byte
	ciphertext []byte
	tag        []byte
	finalized  bool
}

func (b *Backend) CreateEncryptionStream(key []byte) (cryptoport.EncryptionStream, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := b.freshNonce()
	if err != nil {
		return nil, err
	}
	return &aeadStream{gcm: gcm, nonce: nonce}, nil
}

func (s *aeadStream) Encrypt(source io.Reader) io.Reader {
	return &aeadStreamReader{stream: s, source: source}
}

func (s *aeadStream) Finalize() (types.EncryptionMeta, error) {
	if !s.finalized {
		return types.EncryptionMeta{}, fmt.Errorf("encryption stream finalized before its reader reached EOF")
	}
	return types.NewEncryptionMeta(encodeB64(s.nonce), encodeB64(s.tag), nil)
}

// aeadStreamReader drains source fully on its first Read, seals once, then
// serves the resulting ciphertext bytes out of an internal cursor.
type aeadStreamReader struct {
	stream *aeadStream
	source io.Reader
	sealed bool
	pos    int
}

func (r *aeadStreamReader) Read(p []byte) (int, error) {
	if !r.sealed {
		plaintext, err := io.ReadAll(r.source)
		if err != nil {
			return 0, caserr.StreamErr(0, err)
		}
		sealed := r.stream.gcm.Seal(nil, r.stream.nonce, plaintext, nil)
		r.stream.ciphertext, r.stream.tag = splitTag(sealed)
		r.sealed = true
	}
	if r.pos >= len(r.stream.ciphertext) {
		r.stream.finalized = true
		return 0, io.EOF
	}
	n := copy(p, r.stream.ciphertext[r.pos:])
	r.pos += n
	return n, nil
}
