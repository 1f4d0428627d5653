package merge_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"songaday/internal/assembly"
	"songaday/internal/catalog"
	"songaday/internal/merge"
	"songaday/internal/search"
	"songaday/internal/services"
	"songaday/internal/testsupport"
)

func int64Ptr(v int64) *int64 { return &v }

func sampleRecords() []assembly.Record {
	return []assembly.Record{
		{
			SongNumber:  12345,
			ReleaseDate: "12/30/2016",
			Title:       "Test Song",
			URL:         "https://youtu.be/ABC",
			DownloadURL: "http://dl/1",
			Tags:        []string{"Fun", "folk", "FUN"},
			Description: "desc",
			YouTubeID:   "ABC",
			ViewCount:   int64Ptr(10),
		},
		{SongNumber: 12346, Title: "No Date", URL: "https://youtu.be/DEF", Tags: []string{"folk"}},
	}
}

func TestMergeCreatesEntriesAndTags(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	stats, err := merge.New(store).Merge(ctx, sampleRecords())
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if stats.Created != 2 || stats.Updated != 0 || stats.Merged() != 2 || stats.DateWarnings != 0 {
		t.Fatalf("unexpected stats %#v", stats)
	}

	entry, err := store.EntryByNumber(ctx, 12345)
	if err != nil || entry == nil {
		t.Fatalf("EntryByNumber = %#v, %v", entry, err)
	}
	if !reflect.DeepEqual(entry.TagTexts(), []string{"folk", "fun"}) {
		t.Fatalf("tags = %v", entry.TagTexts())
	}
	want := time.Date(2016, 12, 30, 0, 0, 0, 0, time.UTC)
	if entry.ReleaseDate == nil || !entry.ReleaseDate.Equal(want) {
		t.Fatalf("release date = %v", entry.ReleaseDate)
	}
	if entry.ViewCount == nil || *entry.ViewCount != 10 || entry.DownloadURL != "http://dl/1" {
		t.Fatalf("unexpected entry fields %#v", entry)
	}

	undated, err := store.EntryByNumber(ctx, 12346)
	if err != nil || undated == nil || undated.ReleaseDate != nil {
		t.Fatalf("expected entry without release date, got %#v, %v", undated, err)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	merger := merge.New(store)

	if _, err := merger.Merge(ctx, sampleRecords()); err != nil {
		t.Fatalf("first Merge returned error: %v", err)
	}
	stats, err := merger.Merge(ctx, sampleRecords())
	if err != nil {
		t.Fatalf("second Merge returned error: %v", err)
	}
	if stats.Created != 0 || stats.Updated != 2 {
		t.Fatalf("expected updates only, got %#v", stats)
	}

	entries, err := store.ListEntries(ctx)
	if err != nil || len(entries) != 2 {
		t.Fatalf("ListEntries = %d, %v", len(entries), err)
	}
	tags, err := store.ListTags(ctx)
	if err != nil || len(tags) != 2 {
		t.Fatalf("ListTags = %#v, %v", tags, err)
	}
	byTag, err := store.EntriesByTag(ctx, "folk")
	if err != nil || len(byTag) != 2 {
		t.Fatalf("EntriesByTag = %d, %v", len(byTag), err)
	}
	if got := byTag[0].TagTexts(); !reflect.DeepEqual(got, []string{"folk", "fun"}) {
		t.Fatalf("expected no duplicate associations, got %v", got)
	}
}

func TestMergeKeepsPriorDateOnMalformedText(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	merger := merge.New(store)

	rec := assembly.Record{SongNumber: 5, Title: "Five", URL: "u", ReleaseDate: "3/1/2017"}
	if _, err := merger.Merge(ctx, []assembly.Record{rec}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	rec.ReleaseDate = "sometime in March"
	stats, err := merger.Merge(ctx, []assembly.Record{rec})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if stats.DateWarnings != 1 {
		t.Fatalf("expected one date warning, got %#v", stats)
	}

	rec.ReleaseDate = ""
	stats, err = merger.Merge(ctx, []assembly.Record{rec})
	if err != nil || stats.DateWarnings != 0 {
		t.Fatalf("blank date should be silent, got %#v, %v", stats, err)
	}

	entry, err := store.EntryByNumber(ctx, 5)
	if err != nil {
		t.Fatalf("EntryByNumber: %v", err)
	}
	want := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	if entry.ReleaseDate == nil || !entry.ReleaseDate.Equal(want) {
		t.Fatalf("release date = %v, want %v", entry.ReleaseDate, want)
	}
}

func TestMergeRejectsRecordWithoutNumber(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := merge.New(store).Merge(context.Background(), []assembly.Record{{Title: "Nameless", URL: "u"}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	entries, _ := store.ListEntries(context.Background())
	if len(entries) != 0 {
		t.Fatalf("expected nothing written, got %d entries", len(entries))
	}
}

func TestMergeOverwritesEnrichmentFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	merger := merge.New(store)

	rec := assembly.Record{SongNumber: 8, Title: "Eight", URL: "u", ViewCount: int64Ptr(5), ThumbnailURL: "http://img"}
	if _, err := merger.Merge(ctx, []assembly.Record{rec}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	rec.ViewCount = nil
	rec.ThumbnailURL = ""
	if _, err := merger.Merge(ctx, []assembly.Record{rec}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	entry, err := store.EntryByNumber(ctx, 8)
	if err != nil {
		t.Fatalf("EntryByNumber: %v", err)
	}
	if entry.ViewCount != nil || entry.ThumbnailURL != "" {
		t.Fatalf("expected cleared enrichment fields, got %#v", entry)
	}
}

func TestMergeUpdatesSearchIndex(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	idx, err := search.Open(search.Options{})
	if err != nil {
		t.Fatalf("search.Open: %v", err)
	}
	defer idx.Close()

	if _, err := merge.New(store, merge.WithIndexer(idx)).Merge(context.Background(), sampleRecords()); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	hits, err := idx.Search(context.Background(), "test song", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].SongNumber != 12345 {
		t.Fatalf("unexpected hits %#v", hits)
	}
}

type failingIndexer struct{ calls int }

func (f *failingIndexer) IndexEntry(catalog.Entry) error {
	f.calls++
	return errors.New("disk full")
}

func TestMergeToleratesIndexFailure(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	indexer := &failingIndexer{}
	stats, err := merge.New(store, merge.WithIndexer(indexer)).Merge(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if stats.Merged() != 2 || indexer.calls != 2 {
		t.Fatalf("stats %#v, index calls %d", stats, indexer.calls)
	}
}

func TestParseReleaseDate(t *testing.T) {
	cases := []struct {
		text   string
		ok     bool
		hasErr bool
	}{
		{text: "12/30/2016", ok: true},
		{text: "01/02/2006", ok: true},
		{text: "3/1/2017", ok: true},
		{text: "", ok: false},
		{text: "2016-12-30", hasErr: true},
		{text: "13/01/2016", hasErr: true},
		{text: "12/30/16", hasErr: true},
	}
	for _, tc := range cases {
		_, ok, err := merge.ParseReleaseDate(tc.text)
		if ok != tc.ok || (err != nil) != tc.hasErr {
			t.Fatalf("ParseReleaseDate(%q) = ok %v err %v", tc.text, ok, err)
		}
	}
}
