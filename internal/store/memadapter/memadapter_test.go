package memadapter

import (
	"context"
	"testing"

	"github.com/kenneth/git-cas/internal/cas/persistport"
)

func TestWriteReadBlobRoundTrip(t *testing.T) {
	a := New()
	ctx := context.Background()

	oid, err := a.WriteBlob(ctx, []byte("hello world"))
	if err != nil {
		t.Fatalf("WriteBlob() error: %v", err)
	}
	got, err := a.ReadBlob(ctx, oid)
	if err != nil {
		t.Fatalf("ReadBlob() error: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("ReadBlob() = %q, want %q", got, "hello world")
	}
}

func TestWriteBlobIsContentAddressed(t *testing.T) {
	a := New()
	ctx := context.Background()

	oid1, _ := a.WriteBlob(ctx, []byte("same content"))
	oid2, _ := a.WriteBlob(ctx, []byte("same content"))
	if oid1 != oid2 {
		t.Fatalf("identical content produced different OIDs: %s != %s", oid1, oid2)
	}
}

func TestReadBlobMissingErrors(t *testing.T) {
	a := New()
	if _, err := a.ReadBlob(context.Background(), "deadbeef"); err == nil {
		t.Fatal("expected error reading a blob that was never written")
	}
}

func TestWriteReadTreeRoundTrip(t *testing.T) {
	a := New()
	ctx := context.Background()

	blobOID, err := a.WriteBlob(ctx, []byte("chunk-0"))
	if err != nil {
		t.Fatalf("WriteBlob() error: %v", err)
	}
	entries := []persistport.TreeEntry{
		{Mode: "100644", Type: persistport.ObjectBlob, OID: blobOID, Name: "chunk-0"},
	}
	treeOID, err := a.WriteTree(ctx, entries)
	if err != nil {
		t.Fatalf("WriteTree() error: %v", err)
	}
	got, err := a.ReadTree(ctx, treeOID)
	if err != nil {
		t.Fatalf("ReadTree() error: %v", err)
	}
	if len(got) != 1 || got[0].OID != blobOID || got[0].Name != "chunk-0" {
		t.Fatalf("ReadTree() = %+v, want one entry matching %s", got, blobOID)
	}
}

func TestReadTreeMissingErrors(t *testing.T) {
	a := New()
	if _, err := a.ReadTree(context.Background(), "deadbeef"); err == nil {
		t.Fatal("expected error reading a tree that was never written")
	}
}

func TestReadBlobReturnsDefensiveCopy(t *testing.T) {
	a := New()
	ctx := context.Background()

	oid, _ := a.WriteBlob(ctx, []byte("original"))
	got, _ := a.ReadBlob(ctx, oid)
	got[0] = 'X'

	again, _ := a.ReadBlob(ctx, oid)
	if string(again) != "original" {
		t.Fatal("mutating a returned blob slice leaked into the adapter's store")
	}
}
