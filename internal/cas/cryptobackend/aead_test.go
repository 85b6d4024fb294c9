package cryptobackend

import (
	"bytes"
	"io"
	"testing"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/types"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecryptBufferRoundTrip(t *testing.T) {
	b := New()
	key := testKey(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	enc, err := b.EncryptBuffer(plaintext, key)
	if err != nil {
		t.Fatalf("EncryptBuffer() error: %v", err)
	}
	if !enc.Meta.Encrypted() {
		t.Fatalf("expected EncryptionMeta.Encrypted() == true")
	}
	if bytes.Equal(enc.Buf, plaintext) {
		t.Fatalf("ciphertext must differ from plaintext")
	}

	decrypted, err := b.DecryptBuffer(enc.Buf, key, enc.Meta)
	if err != nil {
		t.Fatalf("DecryptBuffer() error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptBufferTamperedTagFails(t *testing.T) {
	b := New()
	key := testKey(t)
	enc, err := b.EncryptBuffer([]byte("payload"), key)
	if err != nil {
		t.Fatalf("EncryptBuffer() error: %v", err)
	}

	tagBytes, err := decodeB64(enc.Meta.Tag())
	if err != nil {
		t.Fatalf("decodeB64(tag) error: %v", err)
	}
	tagBytes[0] ^= 0xFF
	tampered, err := types.NewEncryptionMeta(enc.Meta.Nonce(), encodeB64(tagBytes), enc.Meta.Kdf())
	if err != nil {
		t.Fatalf("NewEncryptionMeta() error: %v", err)
	}

	if _, err := b.DecryptBuffer(enc.Buf, key, tampered); !caserr.Is(err, caserr.IntegrityError) {
		t.Fatalf("expected IntegrityError for tampered tag, got %v", err)
	}
}

func TestDecryptBufferWrongKeyFails(t *testing.T) {
	b := New()
	key := testKey(t)
	enc, err := b.EncryptBuffer([]byte("payload"), key)
	if err != nil {
		t.Fatalf("EncryptBuffer() error: %v", err)
	}

	wrongKey := make([]byte, 32)
	copy(wrongKey, key)
	wrongKey[0] ^= 0xFF

	if _, err := b.DecryptBuffer(enc.Buf, wrongKey, enc.Meta); !caserr.Is(err, caserr.IntegrityError) {
		t.Fatalf("expected IntegrityError for wrong key, got %v", err)
	}
}

func TestEncryptBufferRejectsShortKey(t *testing.T) {
	b := New()
	_, err := b.EncryptBuffer([]byte("payload"), make([]byte, 16))
	if !caserr.Is(err, caserr.InvalidKeyLength) {
		t.Fatalf("expected InvalidKeyLength, got %v", err)
	}
}

func TestEncryptionStreamRoundTrip(t *testing.T) {
	b := New()
	key := testKey(t)
	plaintext := bytes.Repeat([]byte("stream-me-"), 4096)

	stream, err := b.CreateEncryptionStream(key)
	if err != nil {
		t.Fatalf("CreateEncryptionStream() error: %v", err)
	}
	ciphertext, err := io.ReadAll(stream.Encrypt(bytes.NewReader(plaintext)))
	if err != nil {
		t.Fatalf("reading encrypted stream: %v", err)
	}
	meta, err := stream.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	decrypted, err := b.DecryptBuffer(ciphertext, key, meta)
	if err != nil {
		t.Fatalf("DecryptBuffer() error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("streamed round trip mismatch: got %d bytes, want %d", len(decrypted), len(plaintext))
	}
}

func TestEncryptionStreamFinalizeBeforeEOF(t *testing.T) {
	b := New()
	stream, err := b.CreateEncryptionStream(testKey(t))
	if err != nil {
		t.Fatalf("CreateEncryptionStream() error: %v", err)
	}
	if _, err := stream.Finalize(); err == nil {
		t.Fatalf("expected Finalize() to fail before the reader reaches EOF")
	}
}

func TestSHA256IsStableHexDigest(t *testing.T) {
	b := New()
	got := b.SHA256([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("SHA256() = %s, want %s", got, want)
	}
}

func TestRandomBytesLength(t *testing.T) {
	b := New()
	got, err := b.RandomBytes(12)
	if err != nil {
		t.Fatalf("RandomBytes() error: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("RandomBytes(12) returned %d bytes", len(got))
	}
}
