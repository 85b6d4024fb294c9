package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// CBORCodec is the compact binary manifest codec. Struct tags follow the
// `cbor:"..."` convention used throughout the retrieval pack's content-chunk
// types (beenet's pkg/content).
type CBORCodec struct {
	encMode cbor.EncMode
}

func NewCBORCodec() (CBORCodec, error) {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return CBORCodec{}, fmt.Errorf("failed to build cbor encode mode: %w", err)
	}
	return CBORCodec{encMode: mode}, nil
}

func (c CBORCodec) Encode(m types.Manifest) ([]byte, error) {
	data, err := c.encMode.Marshal(toWire(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

func (CBORCodec) Decode(data []byte) (types.Manifest, error) {
	var w wireManifest
	if err := cbor.Unmarshal(data, &w); err != nil {
		return types.Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return fromWire(w)
}

func (CBORCodec) Extension() string { return "cbor" }
