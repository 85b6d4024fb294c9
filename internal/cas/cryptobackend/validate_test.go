package cryptobackend

import (
	"testing"

	"github.com/kenneth/git-cas/internal/cas/caserr"
)

func TestValidateKeyAccepts32Bytes(t *testing.T) {
	key := make([]byte, 32)
	got, err := ValidateKey(key)
	if err != nil {
		t.Fatalf("ValidateKey() error: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("len(got) = %d, want 32", len(got))
	}
}

func TestValidateKeyWrongType(t *testing.T) {
	_, err := ValidateKey("not a byte slice")
	if !caserr.Is(err, caserr.InvalidKeyType) {
		t.Fatalf("ValidateKey() error = %v, want InvalidKeyType", err)
	}
}

func TestValidateKeyWrongLength(t *testing.T) {
	_, err := ValidateKey(make([]byte, 16))
	if !caserr.Is(err, caserr.InvalidKeyLength) {
		t.Fatalf("ValidateKey() error = %v, want InvalidKeyLength", err)
	}
}

func TestValidateKeyBytesWrongLength(t *testing.T) {
	err := ValidateKeyBytes(make([]byte, 31))
	if !caserr.Is(err, caserr.InvalidKeyLength) {
		t.Fatalf("ValidateKeyBytes() error = %v, want InvalidKeyLength", err)
	}
}

func TestValidateKeyBytesAccepts32(t *testing.T) {
	if err := ValidateKeyBytes(make([]byte, 32)); err != nil {
		t.Fatalf("ValidateKeyBytes() error: %v", err)
	}
}
