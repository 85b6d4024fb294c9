// Package engine implements the CAS pipeline: store, restore, createTree,
// readManifest, verifyIntegrity, deleteAsset, and findOrphanedChunks. It
// orchestrates the persistence, crypto, codec, and compression ports without
// owning any state of its own between calls.
package engine

import (
	"github.com/kenneth/git-cas/internal/cas/codec"
	"github.com/kenneth/git-cas/internal/cas/compression"
	"github.com/kenneth/git-cas/internal/cas/cryptoport"
	"github.com/kenneth/git-cas/internal/cas/persistport"
	"github.com/kenneth/git-cas/internal/metrics"
)

const (
	// DefaultChunkSize matches spec: 256 KiB.
	DefaultChunkSize = 262144
	// MinChunkSize is the constructor-enforced floor.
	MinChunkSize = 1024
	// DefaultMerkleThreshold is a production-scale default; tests use a
	// smaller value to exercise the Merkle split path cheaply.
	DefaultMerkleThreshold = 4096
)

// Engine is the CAS pipeline orchestrator. Construct with New.
type Engine struct {
	emitter

	persist persistport.Port
	crypto  cryptoport.Port
	codec   codec.Codec
	metrics *metrics.Metrics

	chunkSize       int
	merkleThreshold int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithChunkSize(n int) Option {
	return func(e *Engine) { e.chunkSize = n }
}

func WithMerkleThreshold(n int) Option {
	return func(e *Engine) { e.merkleThreshold = n }
}

func WithCodec(c codec.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithMetrics attaches m so CreateTree records a Merkle split every time a
// manifest's chunk count exceeds the configured threshold. Optional: an
// Engine with no metrics attached behaves exactly as before.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an Engine over the given persistence and crypto ports. The
// manifest codec defaults to JSON; pass WithCodec to use the CBOR codec
// instead.
func New(persist persistport.Port, crypto cryptoport.Port, opts ...Option) (*Engine, error) {
	e := &Engine{
		persist:         persist,
		crypto:          crypto,
		codec:           codec.NewJSONCodec(),
		chunkSize:       DefaultChunkSize,
		merkleThreshold: DefaultMerkleThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.chunkSize < MinChunkSize {
		return nil, errChunkSizeTooSmall(e.chunkSize)
	}
	if e.merkleThreshold <= 0 {
		return nil, errMerkleThresholdInvalid(e.merkleThreshold)
	}
	return e, nil
}

// newGzipCompressor returns the Compressor a store/restore call should use,
// currently always gzip since it is the only algorithm the data model names.
func (e *Engine) newGzipCompressor() (compression.Compressor, error) {
	return compression.NewGzip(-1) // gzip.DefaultCompression
}
