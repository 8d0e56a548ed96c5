package player

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMedia records requests and lets tests raise events by hand
type fakeMedia struct {
	mu         sync.Mutex
	loadedURL  string
	startAt    float64
	loadErr    error
	paused     []bool
	seeks      []float64
	volumes    []float64
	mutes      []bool
	speeds     []float64
	fullscreen []bool
	events     chan MediaEvent
	closed     bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{events: make(chan MediaEvent, 16)}
}

func (f *fakeMedia) Load(_ context.Context, url string, startAt float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadedURL, f.startAt = url, startAt
	return f.loadErr
}

func (f *fakeMedia) SetPaused(paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = append(f.paused, paused)
	return nil
}

func (f *fakeMedia) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeMedia) SetVolume(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, volume)
	return nil
}

func (f *fakeMedia) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutes = append(f.mutes, muted)
	return nil
}

func (f *fakeMedia) SetSpeed(rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speeds = append(f.speeds, rate)
	return nil
}

func (f *fakeMedia) SetFullscreen(fullscreen bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = append(f.fullscreen, fullscreen)
	return nil
}

func (f *fakeMedia) Events() <-chan MediaEvent {
	return f.events
}

func (f *fakeMedia) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// recordingObserver keeps every notification it receives
type recordingObserver struct {
	mu          sync.Mutex
	states      []bool
	updates     []float64
	completions []float64
	failures    []error
}

func (r *recordingObserver) PlaybackStateChanged(playing bool, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, playing)
}

func (r *recordingObserver) TimeUpdated(position, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, position)
}

func (r *recordingObserver) CompletionReached(position float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, position)
}

func (r *recordingObserver) PlaybackFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func newTestController(t *testing.T, duration float64) (*Controller, *fakeMedia, *recordingObserver) {
	t.Helper()
	media := newFakeMedia()
	obs := &recordingObserver{}
	c := NewController(media, obs)
	require.NoError(t, c.Mount(context.Background(), "https://cdn.example.com/lesson.mp4", 0))
	if duration > 0 {
		c.HandleEvent(MediaEvent{Type: MediaDurationChange, Value: duration})
	}
	return c, media, obs
}

func TestControllerCompletionThreshold(t *testing.T) {
	t.Run("ExactlyNinetyPercentCompletes", func(t *testing.T) {
		c, _, obs := newTestController(t, 1000)
		c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: 900})

		assert.True(t, c.State().HasCompletedThisSession)
		assert.Equal(t, []float64{900}, obs.completions)
	})

	t.Run("JustBelowDoesNotComplete", func(t *testing.T) {
		c, _, obs := newTestController(t, 1000)
		c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: 899})

		assert.InDelta(t, 89.9, c.State().ProgressPercent, 1e-9)
		assert.False(t, c.State().HasCompletedThisSession)
		assert.Empty(t, obs.completions)
	})

	t.Run("OncePerSession", func(t *testing.T) {
		c, _, obs := newTestController(t, 600)
		for _, pos := range []float64{500, 540, 560, 10, 590, 600} {
			c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: pos})
		}

		assert.Equal(t, []float64{540}, obs.completions)
	})

	t.Run("UnknownDurationNeverCompletes", func(t *testing.T) {
		c, _, obs := newTestController(t, 0)
		c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: 5000})

		assert.Zero(t, c.State().ProgressPercent)
		assert.Empty(t, obs.completions)
	})
}

func TestControllerMountResumesPosition(t *testing.T) {
	media := newFakeMedia()
	c := NewController(media)

	require.NoError(t, c.Mount(context.Background(), "https://cdn.example.com/lesson.mp4", 312))

	assert.Equal(t, 312.0, media.startAt)
	assert.Equal(t, 312.0, c.State().CurrentTime, "position must be restored before the first time update")
}

func TestControllerPlayPause(t *testing.T) {
	c, media, obs := newTestController(t, 600)

	require.NoError(t, c.Play())
	require.NoError(t, c.Play())
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, []bool{false}, media.paused, "second play must be a no-op")

	// The element confirming the request must not notify twice
	c.HandleEvent(MediaEvent{Type: MediaPlay})

	require.NoError(t, c.Pause())
	require.NoError(t, c.Pause())
	assert.False(t, c.State().IsPlaying)
	assert.Equal(t, []bool{false, true}, media.paused)

	require.NoError(t, c.TogglePlay())
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, []bool{true, false, true}, obs.states)
}

func TestControllerSeek(t *testing.T) {
	c, media, _ := newTestController(t, 600)

	require.NoError(t, c.Seek(700))
	require.NoError(t, c.Seek(-5))
	require.NoError(t, c.Seek(120))
	assert.Equal(t, []float64{600, 0, 120}, media.seeks)
	assert.Equal(t, 120.0, c.State().CurrentTime)

	require.NoError(t, c.Skip(SkipSeconds))
	require.NoError(t, c.Skip(-200))
	assert.Equal(t, []float64{600, 0, 120, 130, 0}, media.seeks)

	c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: 595})
	require.NoError(t, c.Skip(SkipSeconds))
	assert.Equal(t, 600.0, media.seeks[len(media.seeks)-1])
}

func TestControllerSeekWithoutDuration(t *testing.T) {
	c, media, _ := newTestController(t, 0)

	require.NoError(t, c.Seek(1200))
	require.NoError(t, c.Seek(-1))
	assert.Equal(t, []float64{1200, 0}, media.seeks)
}

func TestControllerPlaybackRate(t *testing.T) {
	c, media, _ := newTestController(t, 600)

	rate, err := c.CyclePlaybackRate()
	require.NoError(t, err)
	assert.Equal(t, 1.25, rate)

	require.NoError(t, c.SetPlaybackRate(2))
	rate, err = c.CyclePlaybackRate()
	require.NoError(t, err)
	assert.Equal(t, 0.5, rate, "cycling wraps around")
	assert.Equal(t, 0.5, c.State().PlaybackRate)

	err = c.SetPlaybackRate(3)
	assert.True(t, errors.Is(err, ErrUnsupportedRate))
	assert.Equal(t, []float64{1.25, 2, 0.5}, media.speeds)
}

func TestControllerVolume(t *testing.T) {
	c, media, _ := newTestController(t, 600)

	require.NoError(t, c.SetVolume(0.4))
	assert.Equal(t, 0.4, c.State().Volume)
	assert.False(t, c.State().Muted)

	require.NoError(t, c.SetVolume(0))
	assert.True(t, c.State().Muted, "zero volume implies muted")

	require.NoError(t, c.ToggleMute())
	assert.False(t, c.State().Muted)
	assert.Equal(t, 0.4, c.State().Volume, "unmuting from zero restores the last audible volume")

	require.NoError(t, c.ToggleMute())
	assert.True(t, c.State().Muted)
	assert.Equal(t, 0.4, c.State().Volume)

	require.NoError(t, c.SetVolume(7))
	assert.Equal(t, 1.0, c.State().Volume)
	assert.False(t, c.State().Muted)
	assert.Equal(t, []float64{0.4, 0, 0.4, 1}, media.volumes)
}

func TestControllerFullscreen(t *testing.T) {
	c, media, _ := newTestController(t, 600)

	require.NoError(t, c.ToggleFullscreen())
	assert.False(t, c.State().IsFullscreen, "state follows the element, not the request")

	c.HandleEvent(MediaEvent{Type: MediaFullscreenChange, Flag: true})
	assert.True(t, c.State().IsFullscreen)

	// Fullscreen left from the player window itself
	c.HandleEvent(MediaEvent{Type: MediaFullscreenChange, Flag: false})
	assert.False(t, c.State().IsFullscreen)

	require.NoError(t, c.ToggleFullscreen())
	assert.Equal(t, []bool{true, true}, media.fullscreen)
}

func TestControllerUnplayable(t *testing.T) {
	t.Run("LoadFailure", func(t *testing.T) {
		media := newFakeMedia()
		media.loadErr = errors.New("exec: mpv not found")
		obs := &recordingObserver{}
		c := NewController(media, obs)

		err := c.Mount(context.Background(), "https://cdn.example.com/lesson.mp4", 0)
		assert.True(t, errors.Is(err, ErrUnplayable))
		assert.True(t, c.State().Unplayable)
		assert.Len(t, obs.failures, 1)
		assert.True(t, errors.Is(c.Play(), ErrUnplayable))
		assert.True(t, errors.Is(c.Seek(10), ErrUnplayable))
	})

	t.Run("ElementErrorIsTerminal", func(t *testing.T) {
		c, media, obs := newTestController(t, 600)
		require.NoError(t, c.Play())

		c.HandleEvent(MediaEvent{Type: MediaError, Err: errors.New("loading failed")})
		c.HandleEvent(MediaEvent{Type: MediaTimeUpdate, Value: 590})

		s := c.State()
		assert.True(t, s.Unplayable)
		assert.False(t, s.IsPlaying)
		assert.Zero(t, s.CurrentTime, "events after failure are ignored")
		assert.Len(t, obs.failures, 1)
		assert.True(t, errors.Is(c.ToggleFullscreen(), ErrUnplayable))
		assert.Empty(t, media.fullscreen)
	})
}

func TestControllerRun(t *testing.T) {
	c, media, obs := newTestController(t, 0)

	media.events <- MediaEvent{Type: MediaDurationChange, Value: 100}
	media.events <- MediaEvent{Type: MediaPlay}
	media.events <- MediaEvent{Type: MediaTimeUpdate, Value: 95}
	media.events <- MediaEvent{Type: MediaEnded}
	close(media.events)

	c.Run(context.Background())

	s := c.State()
	assert.True(t, s.Ended)
	assert.True(t, s.Closed)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, []float64{95}, obs.completions)
	assert.Equal(t, []bool{true, false}, obs.states)
}
