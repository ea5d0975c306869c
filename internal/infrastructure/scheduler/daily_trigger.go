// Package scheduler runs background jobs on a wall-clock schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// dateLayout keys the last run so the job fires at most once per local date
const dateLayout = "2006-01-02"

// Job is the work fired by a DailyTrigger. asOf is the trigger time in the
// configured location.
type Job func(ctx context.Context, asOf time.Time) error

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour     int
	Minute   int
	Location *time.Location

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultDailyTriggerConfig fires at 06:00 in America/Sao_Paulo
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return DailyTriggerConfig{
		Hour:          6,
		Minute:        0,
		Location:      loc,
		CheckInterval: time.Minute,
		JobTimeout:    30 * time.Minute,
	}
}

// DailyTriggerConfigFrom converts the scheduler settings
func DailyTriggerConfigFrom(cfg config.SchedulerConfig) (DailyTriggerConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return DailyTriggerConfig{}, errors.Wrapf(ErrInvalidConfig, "timezone %q: %v", cfg.Timezone, err)
	}
	at, err := time.Parse("15:04", cfg.RunAt)
	if err != nil {
		return DailyTriggerConfig{}, errors.Wrapf(ErrInvalidConfig, "run_at %q", cfg.RunAt)
	}
	return DailyTriggerConfig{
		Hour:          at.Hour(),
		Minute:        at.Minute(),
		Location:      loc,
		CheckInterval: cfg.CheckInterval,
		JobTimeout:    cfg.JobTimeout,
	}, nil
}

func (c DailyTriggerConfig) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return errors.Wrapf(ErrInvalidConfig, "run time %02d:%02d", c.Hour, c.Minute)
	}
	if c.Location == nil {
		return errors.Wrap(ErrInvalidConfig, "location is required")
	}
	if c.CheckInterval <= 0 {
		return errors.Wrap(ErrInvalidConfig, "check interval must be positive")
	}
	return nil
}

// DailyTriggerOption configures a DailyTrigger
type DailyTriggerOption func(*DailyTrigger)

// WithClock replaces time.Now
func WithClock(now func() time.Time) DailyTriggerOption {
	return func(t *DailyTrigger) {
		t.now = now
	}
}

// DailyTrigger fires a job once per local date, on the first check at or
// after the configured time. A process started after the run time still runs
// that day's job.
type DailyTrigger struct {
	config DailyTriggerConfig
	job    Job
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a daily trigger for job
func NewDailyTrigger(cfg DailyTriggerConfig, job Job, logger *zap.Logger, opts ...DailyTriggerOption) (*DailyTrigger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "job is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &DailyTrigger{
		config: cfg,
		job:    job,
		logger: logger.Named("daily_trigger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start starts the trigger loop. Calling Start twice is a no-op.
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Daily trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.String("timezone", t.config.Location.String()),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop cancels the loop and waits for a running job to return, or for ctx
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the job if today's run time has passed and it has
// not run today. Reports whether the job was fired.
func (t *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := t.now().In(t.config.Location)
	today := now.Format(dateLayout)

	t.mu.Lock()
	if t.lastRunDate == today {
		t.mu.Unlock()
		return false
	}
	runAt := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, t.config.Location)
	if now.Before(runAt) {
		t.mu.Unlock()
		return false
	}
	t.lastRunDate = today
	t.mu.Unlock()

	t.fire(ctx, now)
	return true
}

func (t *DailyTrigger) fire(ctx context.Context, asOf time.Time) {
	if t.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	t.logger.Info("Daily job triggered", zap.String("date", asOf.Format(dateLayout)))
	if err := t.job(ctx, asOf); err != nil {
		t.logger.Error("Daily job failed",
			zap.String("date", asOf.Format(dateLayout)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	t.logger.Info("Daily job finished", zap.Duration("elapsed", time.Since(start)))
}
