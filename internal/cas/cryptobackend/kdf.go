package cryptobackend

import (
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"crypto/sha256"

	"github.com/kenneth/git-cas/internal/cas/cryptoport"
	"github.com/kenneth/git-cas/internal/cas/types"
)

const (
	defaultSaltSize   = 32
	defaultIterations = 600000 // OWASP 2023 minimum for PBKDF2-HMAC-SHA256
	defaultScryptCost = 1 << 15
	defaultScryptR    = 8
	defaultScryptP    = 1
)

// DeriveKey turns a passphrase into a 32-byte key via PBKDF2-HMAC-SHA256 or
// scrypt, generating a random salt when the caller hasn't pinned one (the
// store path) and otherwise reproducing the exact key restore needs from a
// manifest's stored KdfParams.
func (b *Backend) DeriveKey(req cryptoport.DeriveKeyRequest) (cryptoport.DeriveKeyResult, error) {
	if req.Passphrase == "" {
		return cryptoport.DeriveKeyResult{}, fmt.Errorf("passphrase must not be empty")
	}
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = types.KdfScrypt
	}
	keyLength := req.KeyLength
	if keyLength <= 0 {
		keyLength = cryptoport.KeySize
	}

	salt := req.Salt
	if len(salt) == 0 {
		generated, err := b.RandomBytes(defaultSaltSize)
		if err != nil {
			return cryptoport.DeriveKeyResult{}, err
		}
		salt = generated
	}

	switch algorithm {
	case types.KdfPBKDF2:
		iterations := req.Iterations
		if iterations <= 0 {
			iterations = defaultIterations
		}
		key := pbkdf2.Key(seedFromPassphrase(req.Passphrase), salt, iterations, keyLength, sha256.New)
		params, err := types.NewKdfParams(types.KdfPBKDF2, encodeB64(salt), keyLength, types.WithIterations(iterations))
		if err != nil {
			return cryptoport.DeriveKeyResult{}, err
		}
		return cryptoport.DeriveKeyResult{Key: key, Params: params}, nil

	case types.KdfScrypt:
		cost := req.Cost
		if cost <= 0 {
			cost = defaultScryptCost
		}
		blockSize := req.BlockSize
		if blockSize <= 0 {
			blockSize = defaultScryptR
		}
		parallelization := req.Parallelization
		if parallelization <= 0 {
			parallelization = defaultScryptP
		}
		key, err := scrypt.Key(seedFromPassphrase(req.Passphrase), salt, cost, blockSize, parallelization, keyLength)
		if err != nil {
			return cryptoport.DeriveKeyResult{}, fmt.Errorf("scrypt key derivation failed: %w", err)
		}
		params, err := types.NewKdfParams(types.KdfScrypt, encodeB64(salt), keyLength,
			types.WithCost(cost), types.WithBlockSize(blockSize), types.WithParallelization(parallelization))
		if err != nil {
			return cryptoport.DeriveKeyResult{}, err
		}
		return cryptoport.DeriveKeyResult{Key: key, Params: params}, nil

	default:
		return cryptoport.DeriveKeyResult{}, fmt.Errorf("unknown KDF algorithm %q", algorithm)
	}
}

// seedFromPassphrase passes the passphrase through as raw bytes; kept as a
// named conversion point so a future normalization pass (NFC, etc.) has one
// place to live.
func seedFromPassphrase(passphrase string) []byte {
	return []byte(passphrase)
}

// DeriveKeyFromManifest rebuilds the key restore needs by replaying the
// KdfParams a manifest already carries, rather than minting new ones.
func (b *Backend) DeriveKeyFromManifest(passphrase string, params types.KdfParams) (cryptoport.DeriveKeyResult, error) {
	salt, err := decodeB64(params.Salt())
	if err != nil {
		return cryptoport.DeriveKeyResult{}, fmt.Errorf("invalid stored KDF salt: %w", err)
	}
	return b.DeriveKey(cryptoport.DeriveKeyRequest{
		Passphrase:      passphrase,
		Salt:            salt,
		Algorithm:       params.Algorithm(),
		KeyLength:       params.KeyLength(),
		Iterations:      params.Iterations(),
		Cost:            params.Cost(),
		BlockSize:       params.BlockSize(),
		Parallelization: params.Parallelization(),
	})
}
