package engine

import (
	"context"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// VerifyIntegrity re-reads and re-digests every chunk blob in manifest's
// chunk list, reporting false on the first mismatch rather than failing.
// It never returns an error for a digest mismatch; only a port failure
// aborts with an error.
func (e *Engine) VerifyIntegrity(ctx context.Context, manifest types.Manifest) (bool, error) {
	for _, chunk := range manifest.Chunks() {
		blob, err := e.persist.ReadBlob(ctx, chunk.Blob())
		if err != nil {
			return false, caserr.GitErr("readBlob", err)
		}
		digest := e.crypto.SHA256(blob)
		if digest != chunk.Digest() {
			e.emit(Event{
				Type:       EventIntegrityFail,
				Slug:       manifest.Slug(),
				ChunkIndex: chunk.Index(),
				Expected:   chunk.Digest(),
				Actual:     digest,
			})
			return false, nil
		}
	}
	e.emit(Event{Type: EventIntegrityPass, Slug: manifest.Slug()})
	return true, nil
}
