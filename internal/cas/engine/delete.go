package engine

import "context"

// DeleteResult reports what deleting an asset's tree would orphan, without
// performing any destructive operation itself.
type DeleteResult struct {
	Slug           string
	ChunksOrphaned int
}

// DeleteAsset reads the manifest at treeOID and reports how many chunks
// would become orphaned. It never writes to or deletes from the object
// database; reference removal and garbage collection are the caller's
// responsibility.
func (e *Engine) DeleteAsset(ctx context.Context, treeOID string) (DeleteResult, error) {
	manifest, err := e.ReadManifest(ctx, treeOID)
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Slug: manifest.Slug(), ChunksOrphaned: manifest.ChunkCount()}, nil
}
