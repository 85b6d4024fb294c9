// Package compression implements the optional pre-chunking compression
// stage. It wraps klauspost/compress/gzip, the drop-in accelerated gzip the
// rest of the retrieval pack reaches for instead of compress/gzip.
package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/kenneth/git-cas/internal/cas/types"
)

// Compressor applies and reverses a single compression algorithm over a
// whole byte buffer, matching the engine's buffer-before-chunk pipeline.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Meta() types.CompressionMeta
}

// gzipCompressor is the only Compressor implementation today; the
// CompressionMeta.Algorithm() field exists so a future one can be added
// without touching the manifest shape.
type gzipCompressor struct {
	meta  types.CompressionMeta
	level int
}

// NewGzip builds a Compressor at the given gzip compression level (use
// gzip.DefaultCompression for the library's default).
func NewGzip(level int) (Compressor, error) {
	meta, err := types.NewCompressionMeta(types.AlgorithmGzip)
	if err != nil {
		return nil, err
	}
	return &gzipCompressor{meta: meta, level: level}, nil
}

func (c *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gzip reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	return out, nil
}

func (c *gzipCompressor) Meta() types.CompressionMeta { return c.meta }

// ForMeta resolves a stored CompressionMeta back to the Compressor that can
// reverse it, for use on the restore path.
func ForMeta(meta types.CompressionMeta) (Compressor, error) {
	switch meta.Algorithm() {
	case types.AlgorithmGzip:
		return NewGzip(gzip.DefaultCompression)
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", meta.Algorithm())
	}
}
