package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalFileStore(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, "project.zip", strings.NewReader("archive bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(ref, ".zip") {
		t.Errorf("ref = %s, want .zip extension preserved", ref)
	}
	if strings.Contains(ref, "project") {
		t.Errorf("ref = %s, must not leak the original name", ref)
	}

	r, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "archive bytes" {
		t.Errorf("blob = %q", data)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, ref); err == nil {
		t.Error("blob still readable after delete")
	}

	// Deleting again is fine.
	if err := store.Delete(ctx, ref); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Delete(ctx, "../etc/passwd"); err == nil {
		t.Error("Delete accepted a traversal reference")
	}
	if _, err := store.Open(ctx, "../../secret"); err == nil {
		t.Error("Open accepted a traversal reference")
	}
}

func TestSaveGeneratesUniqueRefs(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}
	ctx := context.Background()

	first, err := store.Save(ctx, "same.pdf", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save(ctx, "same.pdf", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first == second {
		t.Error("two saves of the same name produced the same ref")
	}
}
