package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songaday/internal/daemon"
)

const testFeed = `gdata.io.handleScriptLoaded({"feed":{"entry":[
{"gs$cell":{"row":"1","col":"1","$t":"Song"}},
{"gs$cell":{"row":"2","col":"1","$t":"#101"}},
{"gs$cell":{"row":"2","col":"2","$t":"1/1/2017"}},
{"gs$cell":{"row":"2","col":"3","$t":"New Year"}},
{"gs$cell":{"row":"2","col":"4","$t":"https://youtu.be/aaa"}},
{"gs$cell":{"row":"2","col":"6","$t":"holiday, Party"}},
{"gs$cell":{"row":"3","col":"1","$t":"#102"}},
{"gs$cell":{"row":"3","col":"2","$t":"1/2/2017"}},
{"gs$cell":{"row":"3","col":"3","$t":"Second Day"}},
{"gs$cell":{"row":"3","col":"4","$t":"https://www.youtube.com/watch?v=bbb"}}
]}});`

type cliTestEnv struct {
	configPath string
	dataDir    string
	quota      bool
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("SONGADAY_FEED_URL", "")
	t.Setenv("YOUTUBE_API_KEY", "")

	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		dataDir:    filepath.Join(base, "data"),
	}

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeed)
	}))
	t.Cleanup(feedServer.Close)

	ytServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.quota {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`)
			return
		}
		var items []string
		for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			items = append(items, fmt.Sprintf(`{"id":%q,"snippet":{"description":"about %s","tags":["Vlog"]},"statistics":{"viewCount":"1200","likeCount":"7"}}`, id, id))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
	}))
	t.Cleanup(ytServer.Close)

	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[feed]
url = %q

[youtube]
api_key = "test"
base_url = %q
requests_per_second = 0.0

[search]
enabled = true
min_score = 0.0

[logging]
level = "error"
log_to_file = false
`, env.dataDir, filepath.Join(base, "logs"), feedServer.URL, ytServer.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Run interval")
	requireContains(t, out, "30m0s")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRunCLI(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	mustRunCLI(t, env, "config", "init", "--path", target, "--overwrite")
}

func TestRunThenQueryCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "run")
	requireContains(t, out, "completed: 2 songs (2 new, 0 updated), 0 date warnings")

	out = mustRunCLI(t, env, "catalog", "show", "#101")
	requireContains(t, out, "New Year")
	requireContains(t, out, "1,200")

	var entry entryView
	decodeJSON(t, mustRunCLI(t, env, "--json", "catalog", "show", "101"), &entry)
	if entry.Description != "about aaa" || entry.ReleaseDate != "2017-01-01" || entry.LikeCount == nil || *entry.LikeCount != 7 {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if strings.Join(entry.Tags, ",") != "holiday,party,vlog" {
		t.Fatalf("tags = %v", entry.Tags)
	}

	requireContains(t, mustRunCLI(t, env, "catalog", "list"), "Second Day")
	requireContains(t, mustRunCLI(t, env, "catalog", "tags"), "party")
	requireContains(t, mustRunCLI(t, env, "catalog", "tag", "HOLIDAY"), "New Year")
	requireContains(t, mustRunCLI(t, env, "catalog", "date", "1/2/2017"), "Second Day")
	requireContains(t, mustRunCLI(t, env, "catalog", "date", "3/3/2017"), "No songs found")

	var hits []entryView
	decodeJSON(t, mustRunCLI(t, env, "--json", "catalog", "search", "new", "year"), &hits)
	if len(hits) == 0 || hits[0].SongNumber != 101 {
		t.Fatalf("unexpected search hits %#v", hits)
	}

	requireContains(t, mustRunCLI(t, env, "catalog", "reindex"), "Indexed 2 songs")

	var runs []runView
	decodeJSON(t, mustRunCLI(t, env, "--json", "runs", "list"), &runs)
	if len(runs) != 1 || runs[0].Stage != "completed" || runs[0].SongCount != 2 || runs[0].FinishedAt == "" {
		t.Fatalf("unexpected runs %#v", runs)
	}
	requireContains(t, mustRunCLI(t, env, "runs", "latest"), "completed")
	requireContains(t, mustRunCLI(t, env, "runs", "stale"), "No runs found")
}

func TestRunTwiceUpdatesInPlace(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "run")
	out := mustRunCLI(t, env, "run")
	requireContains(t, out, "(0 new, 2 updated)")

	var entries []entryView
	decodeJSON(t, mustRunCLI(t, env, "--json", "catalog", "list"), &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestRunLeavesTokenUnfinishedOnQuotaFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.quota = true

	_, err := runCLI(t, env, "run")
	if err == nil {
		t.Fatal("expected run to fail")
	}
	requireContains(t, err.Error(), "external")

	var latest runView
	decodeJSON(t, mustRunCLI(t, env, "--json", "runs", "latest"), &latest)
	if latest.Stage != "enriching" || latest.FinishedAt != "" {
		t.Fatalf("unexpected latest run %#v", latest)
	}
	requireContains(t, mustRunCLI(t, env, "catalog", "list"), "No songs found")
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	holder := daemon.NewRunLock(filepath.Join(env.dataDir, "songaday.lock"))
	if err := holder.TryAcquire(); err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer holder.Release()

	_, err := runCLI(t, env, "run")
	if !errors.Is(err, daemon.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestStatusReportsStagesAndCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "status")
	requireContains(t, out, "== Pipeline ==")
	requireContains(t, out, "no runs yet")

	mustRunCLI(t, env, "run")
	var report statusReport
	decodeJSON(t, mustRunCLI(t, env, "--json", "status"), &report)
	if report.Entries != 2 || report.Runs != 1 || report.LatestRun == nil || len(report.Stages) != 3 {
		t.Fatalf("unexpected report %#v", report)
	}
	for _, h := range report.Stages {
		if !h.Ready {
			t.Fatalf("stage %s not ready: %s", h.Name, h.Detail)
		}
	}
	if report.SearchDocs == nil || *report.SearchDocs != 2 {
		t.Fatalf("expected 2 search documents, got %v", report.SearchDocs)
	}
}

func TestCatalogShowErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := runCLI(t, env, "catalog", "show", "abc"); err == nil {
		t.Fatal("expected invalid number error")
	}
	_, err := runCLI(t, env, "catalog", "show", "999")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := runCLI(t, env, "catalog", "date", "2017-01-01"); err == nil {
		t.Fatal("expected date parse error")
	}
}
