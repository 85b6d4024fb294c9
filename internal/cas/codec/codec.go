// Package codec defines the manifest serialization port and its two
// concrete implementations: a textual codec (extension "json") and a
// compact binary codec (extension "cbor"). Both satisfy the round-trip
// law decode(encode(m)) == m for every valid Manifest.
package codec

import "github.com/kenneth/git-cas/internal/cas/types"

// Codec encodes and decodes Manifest records to and from bytes. Decode
// errors propagate unwrapped — the engine interprets any decode failure as
// manifest corruption.
type Codec interface {
	Encode(m types.Manifest) ([]byte, error)
	Decode(data []byte) (types.Manifest, error)
	// Extension names the manifest blob inside a tree: "manifest.<extension>".
	Extension() string
}
