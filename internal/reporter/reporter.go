// Package reporter saves a learner's watch position for one lesson while it plays.
package reporter

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/PizzaHomicide/lectern/internal/client"
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/player"
)

// State is the reporter's position in its save cycle
type State int

const (
	// Idle means playback is not running and no save is in flight
	Idle State = iota
	// Playing means playback is running and the position moved since the last save
	Playing
	// PendingSave means a save is in flight
	PendingSave
	// Saved means the most recent save succeeded and nothing changed since
	Saved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case PendingSave:
		return "pending-save"
	case Saved:
		return "saved"
	default:
		return "unknown"
	}
}

// Sender delivers a progress report and returns the canonical stored values
type Sender interface {
	ReportProgress(ctx context.Context, report domain.ProgressReport) (*domain.ReportResult, error)
}

// Options tune when the reporter saves
type Options struct {
	Interval          time.Duration
	Debounce          time.Duration
	CompletionRetries int
	RetryDelay        time.Duration
	FlushTimeout      time.Duration
}

// OptionsFromConfig builds Options from the reporter configuration
func OptionsFromConfig(cfg config.ReporterConfig) Options {
	return Options{
		Interval:          cfg.Interval(),
		Debounce:          time.Duration(cfg.DebounceSeconds) * time.Second,
		CompletionRetries: cfg.CompletionRetries,
		RetryDelay:        cfg.RetryDelay(),
		FlushTimeout:      cfg.FlushTimeout(),
	}
}

// Status is a snapshot for display.  The saved values are the service's canonical ones, so they lag behind the
// player while saves fail.
type Status struct {
	State           State
	SavedWatchTime  int
	SavedCompleted  bool
	PercentComplete float64
	LastErr         error
	Unauthorized    bool
}

// Reporter implements player.Observer and turns playback notifications into progress reports
type Reporter struct {
	sender   Sender
	lessonID uint
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                 sync.Mutex
	state              State
	playing            bool
	inFlight           int
	position           float64
	duration           float64
	expectedDuration   float64
	hasSent            bool
	lastSent           int
	completionObserved bool
	saved              domain.Progress
	lastErr            error
	unauthorized       bool
	closed             bool
}

var _ player.Observer = (*Reporter)(nil)

// New creates a reporter for the lesson.  existing is the progress already stored for the caller, if any.
// expectedDurationSeconds is used for the percentage until the player reports a duration.
func New(sender Sender, lessonID uint, opts Options, existing *domain.Progress, expectedDurationSeconds *int) *Reporter {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reporter{
		sender:   sender,
		lessonID: lessonID,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
	if existing != nil {
		r.saved = *existing
		r.position = float64(existing.WatchTimeSeconds)
	}
	if expectedDurationSeconds != nil {
		r.expectedDuration = float64(*expectedDurationSeconds)
	}
	return r
}

// ResumePosition is where playback should start, the stored watch time
func (r *Reporter) ResumePosition() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(r.saved.WatchTimeSeconds)
}

// Run triggers periodic saves while playing until ctx is cancelled or the reporter is closed
func (r *Reporter) Run(ctx context.Context) {
	if r.opts.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Reporter) tick() {
	r.spawn(func() bool { return r.playing }, func() {
		if err := r.save(r.ctx, false); err != nil {
			log.Warn("Periodic progress save failed", "lesson_id", r.lessonID, "error", err)
		}
	})
}

// spawn runs fn on a tracked goroutine when the reporter is open and ready reports true.  The WaitGroup is only
// incremented under mu while open, so Add never races the Wait that follows Close.
func (r *Reporter) spawn(ready func() bool, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !ready() {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// PlaybackStateChanged implements player.Observer
func (r *Reporter) PlaybackStateChanged(playing bool, position float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = playing
	r.position = position
	r.settle()
}

// TimeUpdated implements player.Observer
func (r *Reporter) TimeUpdated(position, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
	if duration > 0 {
		r.duration = duration
	}
	if r.state == Saved && r.playing && int(math.Floor(position)) != r.lastSent {
		r.state = Playing
	}
}

// CompletionReached implements player.Observer.  The completion is saved at once, bypassing the debounce, and
// retried on transient failures.
func (r *Reporter) CompletionReached(position float64) {
	r.mu.Lock()
	r.position = position
	r.completionObserved = true
	r.mu.Unlock()

	r.spawn(func() bool { return true }, func() {
		r.saveCompletion(r.ctx)
	})
}

// PlaybackFailed implements player.Observer
func (r *Reporter) PlaybackFailed(err error) {
	log.Warn("Playback failed, progress reporting stops", "lesson_id", r.lessonID, "error", err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.settle()
}

// Status returns a snapshot for display
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := r.duration
	if duration <= 0 {
		duration = r.expectedDuration
	}
	var percent float64
	if duration > 0 {
		percent = math.Min(100, float64(r.saved.WatchTimeSeconds)*100/duration)
	}
	return Status{
		State:           r.state,
		SavedWatchTime:  r.saved.WatchTimeSeconds,
		SavedCompleted:  r.saved.Completed,
		PercentComplete: percent,
		LastErr:         r.lastErr,
		Unauthorized:    r.unauthorized,
	}
}

// Close performs a final save bounded by the flush timeout and stops further reporting.  Safe to call more than once.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.playing = false
	force := r.completionObserved && !r.saved.Completed
	r.mu.Unlock()

	timeout := r.opts.FlushTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Debug("Flushing progress", "lesson_id", r.lessonID)
	if err := r.save(ctx, force); err != nil {
		log.Warn("Final progress save failed", "lesson_id", r.lessonID, "error", err)
	}
	r.cancel()
}

// Wait blocks until every background save has returned
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) saveCompletion(ctx context.Context) {
	attempts := r.opts.CompletionRetries + 1
	if attempts < 2 {
		attempts = 2
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := r.save(ctx, true)
		if err == nil {
			return
		}
		if !client.IsRetryable(err) {
			log.Warn("Completion save rejected", "lesson_id", r.lessonID, "error", err)
			return
		}
		log.Warn("Completion save failed", "lesson_id", r.lessonID, "attempt", attempt, "error", err)
		if attempt == attempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.opts.RetryDelay):
		}
	}
}

// save sends the current position.  Unless force is set it is skipped when the position is within the debounce
// window of the last successfully sent one.
func (r *Reporter) save(ctx context.Context, force bool) error {
	r.mu.Lock()
	if r.unauthorized {
		r.mu.Unlock()
		return nil
	}

	report := domain.ProgressReport{
		LessonID:         r.lessonID,
		WatchTimeSeconds: int(math.Floor(math.Max(0, r.position))),
		Completed:        r.completionObserved,
	}
	if !force && r.hasSent {
		delta := math.Abs(float64(report.WatchTimeSeconds - r.lastSent))
		if delta < r.opts.Debounce.Seconds() {
			r.mu.Unlock()
			log.Trace("Progress save debounced", "lesson_id", r.lessonID, "position", report.WatchTimeSeconds)
			return nil
		}
	}

	r.inFlight++
	r.state = PendingSave
	r.mu.Unlock()

	res, err := r.sender.ReportProgress(ctx, report)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--

	if err != nil {
		r.lastErr = err
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Warn("Progress save unauthorized, dropping further saves", "lesson_id", r.lessonID)
			r.unauthorized = true
		}
		r.settle()
		return err
	}

	r.lastErr = nil
	r.hasSent = true
	r.lastSent = report.WatchTimeSeconds
	// Responses of overlapping saves can arrive in any order, so they are merged rather than replacing the last one
	r.saved, _ = r.saved.Merge(domain.ProgressReport{
		LessonID:         r.lessonID,
		WatchTimeSeconds: res.WatchTimeSeconds,
		Completed:        res.Completed,
	}, time.Now())
	if r.inFlight == 0 {
		r.state = Saved
	}
	return nil
}

// settle picks the resting state once nothing is in flight.  Caller holds mu.
func (r *Reporter) settle() {
	if r.inFlight > 0 {
		r.state = PendingSave
		return
	}
	switch {
	case r.playing:
		r.state = Playing
	case r.state == Saved:
	default:
		r.state = Idle
	}
}
