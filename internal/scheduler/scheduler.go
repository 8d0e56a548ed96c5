package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 5 * time.Minute

// JobFunc is the work of a scheduled job
type JobFunc func(ctx context.Context) error

// Scheduler runs the server's background jobs on cron specs.  A job still running when its next slot comes up is
// skipped rather than overlapped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New(timezone string) (*Scheduler, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", timezone, err)
		}
	}

	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Add registers a job.  An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, job JobFunc) error {
	if spec == "" {
		log.Info("Scheduled job disabled", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	log.Info("Scheduled job", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, job JobFunc) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		log.Error("Scheduled job failed", "job", name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	log.Debug("Scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return, or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes the cron library's own logging through the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Trace("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
