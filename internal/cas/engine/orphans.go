package engine

import (
	"context"

	"github.com/ryanuber/go-glob"
)

// OrphanReport summarizes chunk-blob reachability across a set of trees.
type OrphanReport struct {
	Referenced map[string]struct{}
	Total      int
}

// FindOrphanedChunks reads the manifest behind each tree OID and records
// every chunk blob it references. If any tree lacks a manifest, the whole
// call fails closed with MANIFEST_NOT_FOUND rather than returning a partial
// report. This is analysis only: no writes, no deletes.
//
// slugGlob is optional: pass no pattern (or "") to include every tree's
// chunks in the report, or a single glob pattern (e.g. "release-*") to
// restrict the report to manifests whose slug matches it. Every treeOID is
// still read and must resolve to a manifest regardless of the filter, so a
// missing manifest still fails the whole call closed even if its slug
// would have been filtered out.
func (e *Engine) FindOrphanedChunks(ctx context.Context, treeOIDs []string, slugGlob ...string) (OrphanReport, error) {
	pattern := ""
	if len(slugGlob) > 0 {
		pattern = slugGlob[0]
	}

	referenced := make(map[string]struct{})
	total := 0
	for _, treeOID := range treeOIDs {
		manifest, err := e.ReadManifest(ctx, treeOID)
		if err != nil {
			return OrphanReport{}, err
		}
		if pattern != "" && !glob.Glob(pattern, manifest.Slug()) {
			continue
		}
		for _, chunk := range manifest.Chunks() {
			referenced[chunk.Blob()] = struct{}{}
			total++
		}
	}
	return OrphanReport{Referenced: referenced, Total: total}, nil
}
