package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"songaday/internal/catalog"
	"songaday/internal/testsupport"
)

func TestOpenAppliesSchemaAndMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	versions, err := store.AppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("AppliedMigrations returned error: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_lookup_indexes" {
		t.Fatalf("unexpected migrations %v", versions)
	}
	if store.Path() != filepath.Join(cfg.Paths.DataDir, "catalog.db") {
		t.Fatalf("unexpected path %s", store.Path())
	}

	// Reopening an initialized database keeps it usable.
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	reopened, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.ListEntries(context.Background()); err != nil {
		t.Fatalf("ListEntries after reopen: %v", err)
	}
}

func TestSaveEntryInsertsThenUpdates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	views := int64(12)
	released := time.Date(2016, 12, 30, 0, 0, 0, 0, time.UTC)
	entry := &catalog.Entry{SongNumber: 42, Title: "First", URL: "u", ViewCount: &views, ReleaseDate: &released}
	if err := store.SaveEntry(ctx, entry); err != nil {
		t.Fatalf("SaveEntry insert: %v", err)
	}
	if entry.ID == 0 || entry.CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamps, got %#v", entry)
	}

	entry.Title = "Renamed"
	entry.ViewCount = nil
	entry.ThumbnailURL = "http://img"
	if err := store.SaveEntry(ctx, entry); err != nil {
		t.Fatalf("SaveEntry update: %v", err)
	}

	got, err := store.EntryByNumber(ctx, 42)
	if err != nil {
		t.Fatalf("EntryByNumber: %v", err)
	}
	if got == nil || got.ID != entry.ID || got.Title != "Renamed" || got.ViewCount != nil || got.ThumbnailURL != "http://img" {
		t.Fatalf("unexpected entry %#v", got)
	}
	if got.ReleaseDate == nil || !got.ReleaseDate.Equal(released) {
		t.Fatalf("release date = %v, want %v", got.ReleaseDate, released)
	}

	all, err := store.ListEntries(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListEntries = %d entries, err %v", len(all), err)
	}
}

func TestEntryByNumberMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := store.EntryByNumber(context.Background(), 7)
	if err != nil || got != nil {
		t.Fatalf("EntryByNumber(missing) = %#v, %v", got, err)
	}
}

func TestSaveEntryRejectsMissingNumber(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.SaveEntry(context.Background(), &catalog.Entry{Title: "x"}); err == nil {
		t.Fatal("expected error for entry without song number")
	}
}

func TestUpsertTagNormalizesAndConverges(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.UpsertTag(ctx, " Folk ")
	if err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	second, err := store.UpsertTag(ctx, "FOLK")
	if err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if first.ID != second.ID || first.Text != "folk" {
		t.Fatalf("expected one folk tag, got %#v and %#v", first, second)
	}
	if _, err := store.UpsertTag(ctx, "   "); !errors.Is(err, catalog.ErrEmptyTag) {
		t.Fatalf("expected ErrEmptyTag, got %v", err)
	}
}

func TestUpsertTagConcurrentCallersShareRow(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := store.UpsertTag(ctx, "Rock")
			ids[i], errs[i] = tag.ID, err
		}(i)
	}
	wg.Wait()
	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("UpsertTag %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("tag ids diverged: %v", ids)
		}
	}
	tags, err := store.ListTags(ctx)
	if err != nil || len(tags) != 1 {
		t.Fatalf("ListTags = %#v, %v", tags, err)
	}
}

func TestAttachTagsIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	entry := testsupport.SaveEntry(t, store, 1, "One")

	var ids []int64
	for _, text := range []string{"zeta", "alpha"} {
		tag, err := store.UpsertTag(ctx, text)
		if err != nil {
			t.Fatalf("UpsertTag: %v", err)
		}
		ids = append(ids, tag.ID)
	}
	for range 2 {
		if err := store.AttachTags(ctx, entry.ID, ids); err != nil {
			t.Fatalf("AttachTags: %v", err)
		}
	}

	got, err := store.EntryByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("EntryByNumber: %v", err)
	}
	if !reflect.DeepEqual(got.TagTexts(), []string{"alpha", "zeta"}) {
		t.Fatalf("tags = %v", got.TagTexts())
	}

	byTag, err := store.EntriesByTag(ctx, "ALPHA")
	if err != nil || len(byTag) != 1 || byTag[0].SongNumber != 1 {
		t.Fatalf("EntriesByTag = %#v, %v", byTag, err)
	}
}

func TestEntriesByDateAndNumbers(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	day := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	for n := 1; n <= 3; n++ {
		entry := &catalog.Entry{SongNumber: n, Title: "song", URL: "u"}
		if n == 2 {
			entry.ReleaseDate = &day
		}
		if err := store.SaveEntry(ctx, entry); err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
	}

	local := time.Date(2017, 3, 1, 21, 30, 0, 0, time.FixedZone("PST", -8*3600))
	byDate, err := store.EntriesByDate(ctx, local)
	if err != nil || len(byDate) != 1 || byDate[0].SongNumber != 2 {
		t.Fatalf("EntriesByDate = %#v, %v", byDate, err)
	}

	ordered, err := store.EntriesByNumbers(ctx, []int{3, 99, 1})
	if err != nil {
		t.Fatalf("EntriesByNumbers: %v", err)
	}
	if len(ordered) != 2 || ordered[0].SongNumber != 3 || ordered[1].SongNumber != 1 {
		t.Fatalf("unexpected order %#v", ordered)
	}
}

func TestRunTokenLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	token, err := store.StartRun(ctx, "run-1", started)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.MarkRunStage(ctx, token.ID, catalog.StageMerging); err != nil {
		t.Fatalf("MarkRunStage: %v", err)
	}
	latest, err := store.LatestRun(ctx)
	if err != nil || latest == nil || latest.Stage != catalog.StageMerging || latest.Finished() {
		t.Fatalf("LatestRun = %#v, %v", latest, err)
	}

	if err := store.FinishRun(ctx, token.ID, time.Now(), 310, 2); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.FinishRun(ctx, token.ID, time.Now(), 1, 0); err == nil {
		t.Fatal("expected second FinishRun to fail")
	}

	done, err := store.RunByID(ctx, token.ID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if !done.Finished() || done.SongCount != 310 || done.DateWarnings != 2 || done.Stage != catalog.StageCompleted {
		t.Fatalf("unexpected finished token %#v", done)
	}
	if done.Duration() <= 0 {
		t.Fatalf("expected positive duration, got %v", done.Duration())
	}
}

func TestUnfinishedRunsBefore(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	old, err := store.StartRun(ctx, "old", now.Add(-3*time.Hour))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	finished, err := store.StartRun(ctx, "finished", now.Add(-4*time.Hour))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, finished.ID, now.Add(-4*time.Hour+time.Minute), 1, 0); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if _, err := store.StartRun(ctx, "fresh", now.Add(-time.Minute)); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	stale, err := store.UnfinishedRunsBefore(ctx, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("UnfinishedRunsBefore: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != old.ID || !stale[0].Stale(now, 2*time.Hour) {
		t.Fatalf("unexpected stale runs %#v", stale)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil || len(runs) != 2 || runs[0].RunID != "fresh" {
		t.Fatalf("ListRuns = %#v, %v", runs, err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Runs != 3 || health.Unfinished != 2 || health.LatestRun == nil || health.LatestRun.RunID != "fresh" {
		t.Fatalf("unexpected health %#v", health)
	}
}

func TestNormalizeTag(t *testing.T) {
	for in, want := range map[string]string{" Folk ": "folk", "ÉTÉ": "été", "rock": "rock"} {
		if got := catalog.NormalizeTag(in); got != want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}
