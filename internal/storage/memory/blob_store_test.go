package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/JakeFAU/board-crawler/internal/board"
)

var _ board.BlobStore = (*BlobStore)(nil)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "runs/b.json", "application/json", bytes.NewReader([]byte("content")))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://runs/b.json" {
		t.Fatalf("unexpected uri %s", uri)
	}

	obj, ok := store.Get("runs/b.json")
	if !ok {
		t.Fatal("expected object to be stored")
	}
	obj.Data[0] = 'C'
	again, _ := store.Get("runs/b.json")
	if string(again.Data) != "content" || again.ContentType != "application/json" {
		t.Fatalf("expected stored copy to be immutable, got %+v", again)
	}

	if _, err := store.PutObject(context.Background(), "runs/a.json", "", bytes.NewReader(nil)); err != nil {
		t.Fatal(err)
	}
	if got := store.Paths(); len(got) != 2 || got[0] != "runs/a.json" {
		t.Fatalf("unexpected paths %v", got)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected missing object")
	}
}
