package engine

import "fmt"

func errChunkSizeTooSmall(n int) error {
	return fmt.Errorf("chunk size must be at least %d bytes, got %d", MinChunkSize, n)
}

func errMerkleThresholdInvalid(n int) error {
	return fmt.Errorf("merkle threshold must be positive, got %d", n)
}

func errBothKeyAndPassphrase() error {
	return fmt.Errorf("exactly one of an encryption key or a passphrase may be supplied, not both")
}

func errPassphraseRestoreWithoutKdf() error {
	return fmt.Errorf("passphrase-based restore requires the manifest's encryption block to carry KDF parameters")
}
