// Package memadapter is an in-memory persistport.Port used by tests and the
// demo CLI. It stores blobs and trees keyed by their SHA-1-shaped OID the
// same way the git-cli adapter does, without shelling out to git.
package memadapter

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kenneth/git-cas/internal/cas/persistport"
)

// Adapter is a concurrency-safe in-memory object store.
type Adapter struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	trees map[string][]persistport.TreeEntry
}

func New() *Adapter {
	return &Adapter{
		blobs: make(map[string][]byte),
		trees: make(map[string][]persistport.TreeEntry),
	}
}

func blobOID(data []byte) string {
	return objectOID("blob", data)
}

func objectOID(kind string, data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *Adapter) WriteBlob(ctx context.Context, data []byte) (string, error) {
	oid := blobOID(data)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[oid] = append([]byte(nil), data...)
	return oid, nil
}

func (a *Adapter) WriteTree(ctx context.Context, entries []persistport.TreeEntry) (string, error) {
	raw := persistport.FormatTree(entries)
	oid := objectOID("tree", raw)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trees[oid] = append([]persistport.TreeEntry(nil), entries...)
	return oid, nil
}

func (a *Adapter) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.blobs[oid]
	if !ok {
		return nil, fmt.Errorf("blob object %s not found", oid)
	}
	return append([]byte(nil), data...), nil
}

func (a *Adapter) ReadTree(ctx context.Context, oid string) ([]persistport.TreeEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entries, ok := a.trees[oid]
	if !ok {
		return nil, fmt.Errorf("tree object %s not found", oid)
	}
	return append([]persistport.TreeEntry(nil), entries...), nil
}

var _ persistport.Port = (*Adapter)(nil)
