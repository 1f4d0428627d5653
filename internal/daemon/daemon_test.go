package daemon_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"songaday/internal/catalog"
	"songaday/internal/daemon"
	"songaday/internal/stage"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (*stage.Run, error) {
	n := r.calls.Add(1)
	return &stage.Run{ID: "run", TokenID: int64(n)}, r.err
}

type fixedTokens struct {
	token *catalog.RunToken
}

func (f fixedTokens) LatestRun(context.Context) (*catalog.RunToken, error) {
	return f.token, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newDaemon(t *testing.T, runner daemon.Runner, opts ...func(*daemon.Options)) *daemon.Daemon {
	t.Helper()
	options := daemon.Options{
		Runner:   runner,
		Lock:     daemon.NewRunLock(filepath.Join(t.TempDir(), "songaday.lock")),
		Interval: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	d, err := daemon.New(options)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDaemonRunsImmediatelyAndOnInterval(t *testing.T) {
	runner := &countingRunner{}
	d := newDaemon(t, runner)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
	waitFor(t, func() bool { return runner.calls.Load() >= 3 })

	status := d.Status()
	if !status.Running || status.Runs < 3 || status.LastRun == nil {
		t.Fatalf("unexpected status %#v", status)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	stopped := runner.calls.Load()
	time.Sleep(40 * time.Millisecond)
	if runner.calls.Load() != stopped {
		t.Fatal("expected no runs after Stop")
	}
}

func TestDaemonRecordsFailures(t *testing.T) {
	runner := &countingRunner{err: errors.New("feed unavailable")}
	d := newDaemon(t, runner)

	if _, err := d.RunOnce(context.Background()); err == nil {
		t.Fatal("expected run error")
	}
	status := d.Status()
	if status.Failures != 1 || status.LastError != "feed unavailable" {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "songaday.lock")
	holder := daemon.NewRunLock(lockPath)
	if err := holder.TryAcquire(); err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	runner := &countingRunner{}
	d := newDaemon(t, runner, func(o *daemon.Options) { o.Lock = daemon.NewRunLock(lockPath) })

	if _, err := d.RunOnce(context.Background()); !errors.Is(err, daemon.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if runner.calls.Load() != 0 || d.Status().Skipped != 1 {
		t.Fatalf("expected skipped run, calls=%d status=%#v", runner.calls.Load(), d.Status())
	}

	if err := holder.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce after release: %v", err)
	}
	if runner.calls.Load() != 1 {
		t.Fatalf("expected one run, got %d", runner.calls.Load())
	}
}

func TestStartWarnsAboutStaleToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logs := &syncBuffer{}
	d := newDaemon(t, &countingRunner{}, func(o *daemon.Options) {
		o.Interval = time.Hour
		o.StaleAfter = time.Hour
		o.Clock = func() time.Time { return now }
		o.Logger = slog.New(slog.NewTextHandler(logs, nil))
		o.Tokens = fixedTokens{token: &catalog.RunToken{
			RunID:     "abandoned",
			Stage:     catalog.StageEnriching,
			StartedAt: now.Add(-3 * time.Hour),
		}}
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "latest run never finished") || !strings.Contains(out, "run_id=abandoned") {
		t.Fatalf("expected stale warning, got %q", out)
	}
}

func TestStartIgnoresFinishedToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := now.Add(-2 * time.Hour)
	logs := &syncBuffer{}
	d := newDaemon(t, &countingRunner{}, func(o *daemon.Options) {
		o.Interval = time.Hour
		o.StaleAfter = time.Hour
		o.Clock = func() time.Time { return now }
		o.Logger = slog.New(slog.NewTextHandler(logs, nil))
		o.Tokens = fixedTokens{token: &catalog.RunToken{StartedAt: now.Add(-3 * time.Hour), FinishedAt: &finished}}
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if strings.Contains(logs.String(), "never finished") {
		t.Fatalf("unexpected stale warning: %q", logs.String())
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := daemon.New(daemon.Options{}); err == nil {
		t.Fatal("expected error without runner")
	}
	_, err := daemon.New(daemon.Options{
		Runner: &countingRunner{},
		Lock:   daemon.NewRunLock(filepath.Join(t.TempDir(), "x.lock")),
	})
	if err == nil {
		t.Fatal("expected error for zero interval")
	}
}
