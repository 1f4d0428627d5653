package testsupport

import (
	"context"
	"testing"

	"songaday/internal/catalog"
	"songaday/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveEntry inserts a catalog entry with the given number and title.
func SaveEntry(t testing.TB, store *catalog.Store, songNumber int, title string) *catalog.Entry {
	t.Helper()

	entry := &catalog.Entry{SongNumber: songNumber, Title: title, URL: "https://youtu.be/test"}
	if err := store.SaveEntry(context.Background(), entry); err != nil {
		t.Fatalf("store.SaveEntry: %v", err)
	}
	return entry
}
