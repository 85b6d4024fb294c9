package cryptobackend

import (
	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/cryptoport"
)

// ValidateKey enforces the key validation contract: a key
// must be exactly 32 bytes of raw byte material. Accepting `any` lets callers
// at the config/CLI boundary pass through whatever they decoded (a []byte, or
// something else entirely) and get INVALID_KEY_TYPE instead of a panic.
func ValidateKey(key any) ([]byte, error) {
	b, ok := key.([]byte)
	if !ok {
		return nil, caserr.InvalidKeyTypeErr()
	}
	if len(b) != cryptoport.KeySize {
		return nil, caserr.InvalidKeyLengthErr(len(b))
	}
	return b, nil
}

// ValidateKeyBytes is the typed-argument variant used internally once a
// caller already has a []byte in hand.
func ValidateKeyBytes(key []byte) error {
	if len(key) != cryptoport.KeySize {
		return caserr.InvalidKeyLengthErr(len(key))
	}
	return nil
}
