package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

var (
	// ErrUnplayable is returned by every operation once the media failed to load or play
	ErrUnplayable = errors.New("media is unplayable")
	// ErrUnsupportedRate is returned when a playback rate outside PlaybackRates is requested
	ErrUnsupportedRate = errors.New("unsupported playback rate")
)

// PlaybackRates are the supported playback speed multipliers, in cycling order
var PlaybackRates = []float64{0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// SkipSeconds is the distance of a relative seek triggered from the keyboard
const SkipSeconds = 10.0

// State is a snapshot of the controller's transport state
type State struct {
	IsPlaying               bool
	CurrentTime             float64
	Duration                float64
	Volume                  float64
	Muted                   bool
	PlaybackRate            float64
	IsFullscreen            bool
	HasCompletedThisSession bool
	ProgressPercent         float64
	Ended                   bool
	Closed                  bool
	// Unplayable is terminal.  Err holds the cause.
	Unplayable bool
	Err        error
}

// Observer receives playback notifications from a Controller.  Callbacks run on the controller's event loop and must
// not block.
type Observer interface {
	PlaybackStateChanged(playing bool, position float64)
	TimeUpdated(position, duration float64)
	// CompletionReached is called once per session, the first time the position reaches the completion threshold
	CompletionReached(position float64)
	PlaybackFailed(err error)
}

// Controller owns the transport state of a native media element.  It is the only component that observes the true
// playback position.
type Controller struct {
	mu         sync.Mutex
	media      MediaElement
	state      State
	lastVolume float64
	observers  []Observer
	changes    chan struct{}
}

// NewController creates a controller over the media element
func NewController(media MediaElement, observers ...Observer) *Controller {
	return &Controller{
		media: media,
		state: State{
			Volume:       1,
			PlaybackRate: 1,
		},
		lastVolume: 1,
		observers:  observers,
		changes:    make(chan struct{}, 1),
	}
}

// Mount loads the media and positions it at resumeAt, the previously persisted watch time, before the first
// time update is raised.
func (c *Controller) Mount(ctx context.Context, url string, resumeAt float64) error {
	if resumeAt < 0 {
		resumeAt = 0
	}

	c.mu.Lock()
	c.state.CurrentTime = resumeAt
	c.mu.Unlock()

	log.Info("Mounting media", "url", url, "resume_at", resumeAt)
	if err := c.media.Load(ctx, url, resumeAt); err != nil {
		c.HandleEvent(MediaEvent{Type: MediaError, Err: err})
		return fmt.Errorf("%w: %v", ErrUnplayable, err)
	}
	return nil
}

// Run processes media events until the element's event channel closes or ctx is cancelled
func (c *Controller) Run(ctx context.Context) {
	events := c.media.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.HandleEvent(MediaEvent{Type: MediaClosed})
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// Changes signals whenever the state changed.  Signals are coalesced, so readers should call State after each one.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases the media element
func (c *Controller) Close() error {
	return c.media.Close()
}

// HandleEvent applies a media element notification to the state and notifies observers
func (c *Controller) HandleEvent(ev MediaEvent) {
	c.mu.Lock()
	if c.state.Unplayable {
		c.mu.Unlock()
		return
	}

	var notify []func(Observer)
	s := &c.state

	switch ev.Type {
	case MediaTimeUpdate:
		s.CurrentTime = math.Max(0, ev.Value)
		s.ProgressPercent = progressPercent(s.CurrentTime, s.Duration)
		pos, dur := s.CurrentTime, s.Duration
		notify = append(notify, func(o Observer) { o.TimeUpdated(pos, dur) })

		if !s.HasCompletedThisSession && s.Duration > 0 && s.ProgressPercent >= domain.CompletionThresholdPercent {
			s.HasCompletedThisSession = true
			log.Info("Completion threshold reached", "position", pos, "duration", dur, "percent", s.ProgressPercent)
			notify = append(notify, func(o Observer) { o.CompletionReached(pos) })
		}
	case MediaDurationChange:
		s.Duration = math.Max(0, ev.Value)
		s.ProgressPercent = progressPercent(s.CurrentTime, s.Duration)
	case MediaPlay, MediaPause:
		playing := ev.Type == MediaPlay
		if playing {
			s.Ended = false
		}
		if s.IsPlaying != playing {
			s.IsPlaying = playing
			pos := s.CurrentTime
			notify = append(notify, func(o Observer) { o.PlaybackStateChanged(playing, pos) })
		}
	case MediaFullscreenChange:
		s.IsFullscreen = ev.Flag
	case MediaVolumeChange:
		s.Volume = clamp(ev.Value, 0, 1)
		if s.Volume > 0 {
			c.lastVolume = s.Volume
		} else {
			s.Muted = true
		}
	case MediaMuteChange:
		s.Muted = ev.Flag || s.Volume == 0
	case MediaRateChange:
		if ev.Value > 0 {
			s.PlaybackRate = ev.Value
		}
	case MediaEnded, MediaClosed:
		if ev.Type == MediaEnded {
			s.Ended = true
		} else {
			s.Closed = true
		}
		if s.IsPlaying {
			s.IsPlaying = false
			pos := s.CurrentTime
			notify = append(notify, func(o Observer) { o.PlaybackStateChanged(false, pos) })
		}
	case MediaError:
		log.Error("Media is unplayable", "error", ev.Err)
		s.Unplayable = true
		s.IsPlaying = false
		s.Err = ev.Err
		err := ev.Err
		notify = append(notify, func(o Observer) { o.PlaybackFailed(err) })
	}
	c.mu.Unlock()

	for _, o := range c.observers {
		for _, n := range notify {
			n(o)
		}
	}
	c.signal()
}

// Play resumes playback.  No-op if already playing.
func (c *Controller) Play() error {
	return c.setPlaying(true)
}

// Pause pauses playback.  No-op if already paused.
func (c *Controller) Pause() error {
	return c.setPlaying(false)
}

// TogglePlay switches between playing and paused
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	playing := c.state.IsPlaying
	c.mu.Unlock()
	return c.setPlaying(!playing)
}

func (c *Controller) setPlaying(playing bool) error {
	c.mu.Lock()
	if c.state.Unplayable {
		c.mu.Unlock()
		return ErrUnplayable
	}
	if c.state.IsPlaying == playing {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.media.SetPaused(!playing); err != nil {
		return fmt.Errorf("failed to change playback state: %w", err)
	}
	if playing {
		c.HandleEvent(MediaEvent{Type: MediaPlay})
	} else {
		c.HandleEvent(MediaEvent{Type: MediaPause})
	}
	return nil
}

// Seek moves playback to target seconds, clamped to [0, duration].  Only the lower bound applies while the duration
// is unknown.
func (c *Controller) Seek(target float64) error {
	c.mu.Lock()
	if c.state.Unplayable {
		c.mu.Unlock()
		return ErrUnplayable
	}
	target = math.Max(0, target)
	if c.state.Duration > 0 {
		target = math.Min(target, c.state.Duration)
	}
	c.mu.Unlock()

	if err := c.media.Seek(target); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	c.mu.Lock()
	c.state.CurrentTime = target
	c.state.ProgressPercent = progressPercent(target, c.state.Duration)
	c.mu.Unlock()
	c.signal()
	return nil
}

// Skip seeks relative to the current position
func (c *Controller) Skip(delta float64) error {
	c.mu.Lock()
	current := c.state.CurrentTime
	c.mu.Unlock()
	return c.Seek(current + delta)
}

// SetPlaybackRate sets one of the supported PlaybackRates
func (c *Controller) SetPlaybackRate(rate float64) error {
	if rateIndex(rate) < 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedRate, rate)
	}
	if err := c.checkPlayable(); err != nil {
		return err
	}
	if err := c.media.SetSpeed(rate); err != nil {
		return fmt.Errorf("failed to set playback rate: %w", err)
	}
	c.HandleEvent(MediaEvent{Type: MediaRateChange, Value: rate})
	return nil
}

// CyclePlaybackRate advances to the next supported rate, wrapping around, and returns it
func (c *Controller) CyclePlaybackRate() (float64, error) {
	c.mu.Lock()
	i := rateIndex(c.state.PlaybackRate)
	c.mu.Unlock()

	next := PlaybackRates[(i+1)%len(PlaybackRates)]
	if i < 0 {
		next = 1
	}
	return next, c.SetPlaybackRate(next)
}

// SetVolume sets the volume, clamped to [0,1].  A volume of zero mutes; any other volume unmutes.
func (c *Controller) SetVolume(v float64) error {
	if err := c.checkPlayable(); err != nil {
		return err
	}
	v = clamp(v, 0, 1)
	if err := c.media.SetVolume(v); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	if err := c.media.SetMuted(v == 0); err != nil {
		return fmt.Errorf("failed to set mute: %w", err)
	}
	c.HandleEvent(MediaEvent{Type: MediaVolumeChange, Value: v})
	c.HandleEvent(MediaEvent{Type: MediaMuteChange, Flag: v == 0})
	return nil
}

// ToggleMute mutes or unmutes.  Unmuting from a volume of zero restores the last audible volume.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	muted, volume, restore := c.state.Muted, c.state.Volume, c.lastVolume
	c.mu.Unlock()

	if !muted {
		if err := c.checkPlayable(); err != nil {
			return err
		}
		if err := c.media.SetMuted(true); err != nil {
			return fmt.Errorf("failed to mute: %w", err)
		}
		c.HandleEvent(MediaEvent{Type: MediaMuteChange, Flag: true})
		return nil
	}

	if volume == 0 {
		return c.SetVolume(restore)
	}
	if err := c.checkPlayable(); err != nil {
		return err
	}
	if err := c.media.SetMuted(false); err != nil {
		return fmt.Errorf("failed to unmute: %w", err)
	}
	c.HandleEvent(MediaEvent{Type: MediaMuteChange, Flag: false})
	return nil
}

// ToggleFullscreen asks the element to enter or leave fullscreen.  The state only changes when the element reports
// the change, so fullscreen exits made outside the controller are reflected too.
func (c *Controller) ToggleFullscreen() error {
	c.mu.Lock()
	if c.state.Unplayable {
		c.mu.Unlock()
		return ErrUnplayable
	}
	target := !c.state.IsFullscreen
	c.mu.Unlock()

	if err := c.media.SetFullscreen(target); err != nil {
		return fmt.Errorf("failed to toggle fullscreen: %w", err)
	}
	return nil
}

func (c *Controller) checkPlayable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Unplayable {
		return ErrUnplayable
	}
	return nil
}

func (c *Controller) signal() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func progressPercent(current, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return current * 100 / duration
}

func rateIndex(rate float64) int {
	for i, r := range PlaybackRates {
		if math.Abs(r-rate) < 1e-9 {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
