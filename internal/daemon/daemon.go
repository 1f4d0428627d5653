package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"songaday/internal/catalog"
	"songaday/internal/logging"
	"songaday/internal/stage"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*stage.Run, error)
}

// TokenStore exposes the run tokens the daemon inspects on start.
type TokenStore interface {
	LatestRun(ctx context.Context) (*catalog.RunToken, error)
}

// Options configures a Daemon.
type Options struct {
	Runner     Runner
	Tokens     TokenStore
	Lock       *RunLock
	Interval   time.Duration
	StaleAfter time.Duration
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Daemon schedules pipeline runs.
type Daemon struct {
	runner     Runner
	tokens     TokenStore
	lock       *RunLock
	interval   time.Duration
	staleAfter time.Duration
	logger     *slog.Logger
	clock      func() time.Time

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	status Status
}

// Status summarises scheduler activity since Start.
type Status struct {
	Running   bool
	Runs      int
	Failures  int
	Skipped   int
	LastStart time.Time
	LastRun   *stage.Run
	LastError string
	LockPath  string
}

// New validates options and builds a daemon.
func New(opts Options) (*Daemon, error) {
	if opts.Runner == nil {
		return nil, errors.New("daemon requires a pipeline runner")
	}
	if opts.Lock == nil {
		return nil, errors.New("daemon requires a run lock")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("daemon interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Daemon{
		runner:     opts.Runner,
		tokens:     opts.Tokens,
		lock:       opts.Lock,
		interval:   opts.Interval,
		staleAfter: opts.StaleAfter,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		clock:      clock,
	}, nil
}

// Start checks for stale tokens and launches the scheduling loop. The first
// run fires immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	d.warnStale(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go d.loop(loopCtx)

	d.logger.Info("scheduler started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.Duration("interval", d.interval),
		logging.String("lock", d.lock.Path()),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.cancel = nil
	d.running.Store(false)
	d.logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Wait blocks until ctx is done and then stops the daemon.
func (d *Daemon) Wait(ctx context.Context) {
	<-ctx.Done()
	d.Stop()
}

func (d *Daemon) loop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Daemon) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := d.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		logging.WarnWithContext(d.logger, "run skipped", "run_skipped",
			logging.String(logging.FieldErrorHint, "another run holds the lock"),
			logging.String(logging.FieldImpact, "catalog refresh waits for the next interval"),
		)
	case err != nil && ctx.Err() == nil:
		d.logger.Debug("scheduled run failed", logging.Error(err))
	}
}

// RunOnce executes a single locked run. Pipeline logs carry the failure
// detail; the error is also returned to the caller.
func (d *Daemon) RunOnce(ctx context.Context) (*stage.Run, error) {
	if err := d.lock.TryAcquire(); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			d.record(func(s *Status) { s.Skipped++ })
		}
		return nil, err
	}
	defer func() {
		if err := d.lock.Release(); err != nil {
			d.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	started := d.clock()
	run, err := d.runner.Run(ctx)
	d.record(func(s *Status) {
		s.Runs++
		s.LastStart = started
		s.LastRun = run
		s.LastError = ""
		if err != nil {
			s.Failures++
			s.LastError = err.Error()
		}
	})
	return run, err
}

// Status returns a snapshot of scheduler activity.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := d.status
	status.Running = d.running.Load()
	status.LockPath = d.lock.Path()
	return status
}

func (d *Daemon) record(update func(*Status)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	update(&d.status)
}

func (d *Daemon) warnStale(ctx context.Context) {
	if d.tokens == nil || d.staleAfter <= 0 {
		return
	}
	latest, err := d.tokens.LatestRun(ctx)
	if err != nil {
		d.logger.Warn("unable to inspect latest run token", logging.Error(err))
		return
	}
	if latest == nil || !latest.Stale(d.clock(), d.staleAfter) {
		return
	}
	logging.WarnWithContext(d.logger, "latest run never finished", "stale_run",
		logging.String(logging.FieldRunID, latest.RunID),
		logging.String(logging.FieldStage, latest.Stage),
		logging.Time("started_at", latest.StartedAt),
		logging.String(logging.FieldErrorHint, "a previous process died mid-run; check logs for that run id"),
		logging.String(logging.FieldImpact, "catalog may be behind the feed until the next run completes"),
	)
}
