package engine

import (
	"context"
	"fmt"

	"github.com/kenneth/git-cas/internal/cas/caserr"
	"github.com/kenneth/git-cas/internal/cas/persistport"
	"github.com/kenneth/git-cas/internal/cas/types"
)

// CreateTree persists manifest (splitting it into a Merkle root plus
// sub-manifest blobs when its chunk count exceeds the engine's configured
// threshold) and writes a tree listing the manifest blob and every chunk
// blob. It returns the tree's OID.
func (e *Engine) CreateTree(ctx context.Context, manifest types.Manifest) (string, error) {
	flatChunks := manifest.Chunks()
	root := manifest

	if len(flatChunks) > e.merkleThreshold {
		if e.metrics != nil {
			e.metrics.RecordMerkleSplit()
		}
		subRefs, err := e.writeSubManifests(ctx, manifest, flatChunks)
		if err != nil {
			return "", err
		}
		root, err = types.NewManifest(manifest.Slug(), manifest.Filename(), manifest.Size(), nil,
			withOptionalEncryption(manifest), withOptionalCompression(manifest),
			types.WithVersion(2), types.WithSubManifests(subRefs))
		if err != nil {
			return "", err
		}
	}

	encoded, err := e.codec.Encode(root)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	manifestOID, err := e.persist.WriteBlob(ctx, encoded)
	if err != nil {
		return "", wrapGitErr(e, "writeBlob(manifest)", err)
	}

	entries := make([]persistport.TreeEntry, 0, len(flatChunks)+1)
	entries = append(entries, persistport.TreeEntry{
		Mode: persistport.ModeRegularFile,
		Type: persistport.ObjectBlob,
		OID:  manifestOID,
		Name: "manifest." + e.codec.Extension(),
	})
	for _, c := range flatChunks {
		entries = append(entries, persistport.TreeEntry{
			Mode: persistport.ModeRegularFile,
			Type: persistport.ObjectBlob,
			OID:  c.Blob(),
			Name: c.Digest(),
		})
	}

	treeOID, err := e.persist.WriteTree(ctx, entries)
	if err != nil {
		return "", wrapGitErr(e, "writeTree", err)
	}
	return treeOID, nil
}

// writeSubManifests groups flatChunks into runs of up to e.merkleThreshold,
// persisting each as its own Manifest blob and recording a SubManifestRef.
func (e *Engine) writeSubManifests(ctx context.Context, parent types.Manifest, flatChunks []types.Chunk) ([]types.SubManifestRef, error) {
	var refs []types.SubManifestRef
	for start := 0; start < len(flatChunks); start += e.merkleThreshold {
		end := start + e.merkleThreshold
		if end > len(flatChunks) {
			end = len(flatChunks)
		}
		group := flatChunks[start:end]

		sub, err := types.NewManifest(parent.Slug(), parent.Filename(), parent.Size(), group,
			withOptionalEncryption(parent), withOptionalCompression(parent))
		if err != nil {
			return nil, err
		}
		encoded, err := e.codec.Encode(sub)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sub-manifest: %w", err)
		}
		oid, err := e.persist.WriteBlob(ctx, encoded)
		if err != nil {
			return nil, wrapGitErr(e, "writeBlob(subManifest)", err)
		}
		ref, err := types.NewSubManifestRef(oid, len(group), group[0].Index())
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func withOptionalEncryption(m types.Manifest) types.ManifestOption {
	if enc := m.Encryption(); enc != nil {
		return types.WithEncryption(*enc)
	}
	return func(*types.Manifest) {}
}

func withOptionalCompression(m types.Manifest) types.ManifestOption {
	if comp := m.Compression(); comp != nil {
		return types.WithCompression(*comp)
	}
	return func(*types.Manifest) {}
}

func wrapGitErr(e *Engine, op string, err error) error {
	wrapped := caserr.GitErr(op, err)
	e.maybeEmitError(wrapped)
	return wrapped
}
