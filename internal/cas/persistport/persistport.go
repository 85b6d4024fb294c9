// Package persistport defines the port the engine uses to talk to a
// git-like object database: content-addressed blob storage and tree objects
// whose entries are lines of the form "<mode> <type> <oid>\t<name>".
package persistport

import (
	"context"
)

// ObjectType distinguishes the two object kinds a tree entry can name.
type ObjectType string

const (
	ObjectBlob ObjectType = "blob"
	ObjectTree ObjectType = "tree"
)

// Default file modes used when writing tree entries, mirroring git's own
// plumbing conventions.
const (
	ModeRegularFile = "100644"
	ModeTree        = "040000"
)

// TreeEntry is one line of a tree object: a mode, an object type, the OID it
// points at, and the name it's reachable under within that tree.
type TreeEntry struct {
	Mode string
	Type ObjectType
	OID  string
	Name string
}

// Port is the persistence port the engine depends on. Implementations need
// only provide git's four primitive plumbing operations; the engine builds
// manifests, chunk layouts, and Merkle splits entirely in terms of them.
type Port interface {
	// WriteBlob stores data as a single blob object and returns its OID.
	WriteBlob(ctx context.Context, data []byte) (string, error)
	// WriteTree stores entries as a tree object and returns its OID.
	WriteTree(ctx context.Context, entries []TreeEntry) (string, error)
	// ReadBlob returns the content of the blob object named by oid.
	ReadBlob(ctx context.Context, oid string) ([]byte, error)
	// ReadTree returns the parsed entries of the tree object named by oid.
	ReadTree(ctx context.Context, oid string) ([]TreeEntry, error)
}
