package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/dukerupert/undangan/internal/database"
)

func setupAssetTestDB(t *testing.T) *AssetStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAssetStore(db)
}

func TestAssetPutGet(t *testing.T) {
	s := setupAssetTestDB(t)
	url := "https://api.example.com/storage/song.mp3"

	got, err := s.Get(url)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing asset, got %+v", got)
	}

	if _, err := s.Put(url, "audio/mpeg", []byte("ID3abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err = s.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected asset, got nil")
	}
	if got.ContentType != "audio/mpeg" || !bytes.Equal(got.Body, []byte("ID3abc")) {
		t.Errorf("asset = %q %q", got.ContentType, got.Body)
	}
	if got.Key != AssetKey(url) {
		t.Errorf("key = %q, want %q", got.Key, AssetKey(url))
	}

	// Replace
	if _, err := s.Put(url, "audio/ogg", []byte("OggS")); err != nil {
		t.Fatalf("put replace: %v", err)
	}
	got, _ = s.Get(url)
	if got.ContentType != "audio/ogg" || string(got.Body) != "OggS" {
		t.Errorf("replaced asset = %q %q", got.ContentType, got.Body)
	}
}

func TestAssetKeyStable(t *testing.T) {
	a := AssetKey("https://x/a.mp3")
	if a != AssetKey("https://x/a.mp3") {
		t.Error("key not deterministic")
	}
	if a == AssetKey("https://x/b.mp3") {
		t.Error("distinct urls share a key")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64", len(a))
	}
}

func TestAssetDeleteOlderThan(t *testing.T) {
	s := setupAssetTestDB(t)
	s.Put("https://x/old.mp3", "audio/mpeg", []byte("old"))

	n, err := s.DeleteOlderThan(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d fresh assets, want 0", n)
	}

	n, err = s.DeleteOlderThan(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if got, _ := s.Get("https://x/old.mp3"); got != nil {
		t.Error("expected asset to be gone")
	}
}

func TestAssetStat(t *testing.T) {
	s := setupAssetTestDB(t)
	url := "https://api.example.com/storage/song.mp3"

	if got, err := s.Stat(url); err != nil || got != nil {
		t.Fatalf("stat missing = %+v, %v", got, err)
	}
	if _, err := s.Put(url, "audio/mpeg", []byte("ID3abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Stat(url)
	if err != nil || got == nil {
		t.Fatalf("stat = %+v, %v", got, err)
	}
	if got.ContentType != "audio/mpeg" || got.Body != nil {
		t.Errorf("stat = %+v, want metadata only", got)
	}
}
