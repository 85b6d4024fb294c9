package codec

import (
	"encoding/json"
	"fmt"

	"github.com/kenneth/git-cas/internal/cas/types"
)

// JSONCodec is the textual, human-readable manifest codec. It mirrors the
// teacher's encodeManifest/decodeManifest pair in internal/crypto/chunked.go,
// generalized from a base64-wrapped metadata blob to a full Manifest record.
type JSONCodec struct{}

func NewJSONCodec() JSONCodec { return JSONCodec{} }

func (JSONCodec) Encode(m types.Manifest) ([]byte, error) {
	data, err := json.Marshal(toWire(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (types.Manifest, error) {
	var w wireManifest
	if err := json.Unmarshal(data, &w); err != nil {
		return types.Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return fromWire(w)
}

func (JSONCodec) Extension() string { return "json" }
