package engine

import (
	"context"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// ReadManifest reads the tree at treeOID, locates its manifest.<ext> entry,
// decodes it, and — if it is a v2 Merkle root — expands its sub-manifests
// into a single v1-shaped (flat chunks) Manifest so callers see one uniform
// interface regardless of how the asset was split.
func (e *Engine) ReadManifest(ctx context.Context, treeOID string) (types.Manifest, error) {
	entries, err := e.persist.ReadTree(ctx, treeOID)
	if err != nil {
		return types.Manifest{}, caserr.GitErr("readTree", err)
	}

	expectedName := "manifest." + e.codec.Extension()
	var manifestOID string
	for _, entry := range entries {
		if entry.Name == expectedName {
			manifestOID = entry.OID
			break
		}
	}
	if manifestOID == "" {
		return types.Manifest{}, caserr.ManifestNotFoundErr(treeOID, expectedName)
	}

	blob, err := e.persist.ReadBlob(ctx, manifestOID)
	if err != nil {
		return types.Manifest{}, caserr.GitErr("readBlob(manifest)", err)
	}
	root, err := e.codec.Decode(blob)
	if err != nil {
		return types.Manifest{}, err
	}

	if !root.IsMerkleRoot() {
		return root, nil
	}
	return e.flattenMerkleRoot(ctx, root)
}

func (e *Engine) flattenMerkleRoot(ctx context.Context, root types.Manifest) (types.Manifest, error) {
	var chunks []types.Chunk
	for _, ref := range root.SubManifests() {
		blob, err := e.persist.ReadBlob(ctx, ref.OID())
		if err != nil {
			return types.Manifest{}, caserr.GitErr("readBlob(subManifest)", err)
		}
		sub, err := e.codec.Decode(blob)
		if err != nil {
			return types.Manifest{}, err
		}
		if sub.ChunkCount() != ref.ChunkCount() || (sub.ChunkCount() > 0 && sub.Chunks()[0].Index() != ref.StartIndex()) {
			return types.Manifest{}, caserr.New(caserr.TreeParseError,
				"sub-manifest chunk layout does not match its SubManifestRef", map[string]any{
					"expectedStartIndex": ref.StartIndex(),
					"expectedChunkCount": ref.ChunkCount(),
				})
		}
		chunks = append(chunks, sub.Chunks()...)
	}

	opts := []types.ManifestOption{}
	if enc := root.Encryption(); enc != nil {
		opts = append(opts, types.WithEncryption(*enc))
	}
	if comp := root.Compression(); comp != nil {
		opts = append(opts, types.WithCompression(*comp))
	}
	return types.NewManifest(root.Slug(), root.Filename(), root.Size(), chunks, opts...)
}
