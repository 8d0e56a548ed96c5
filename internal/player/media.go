package player

import (
	"context"
)

// MediaEventType represents the type of notification raised by a media element
type MediaEventType string

const (
	// MediaTimeUpdate reports the current playback position in Value
	MediaTimeUpdate MediaEventType = "timeupdate"
	// MediaDurationChange reports the media duration in Value
	MediaDurationChange MediaEventType = "durationchange"
	// MediaPlay indicates playback resumed
	MediaPlay MediaEventType = "play"
	// MediaPause indicates playback paused
	MediaPause MediaEventType = "pause"
	// MediaFullscreenChange reports the fullscreen state in Flag, whoever changed it
	MediaFullscreenChange MediaEventType = "fullscreenchange"
	// MediaVolumeChange reports the volume in Value, in the range [0,1]
	MediaVolumeChange MediaEventType = "volumechange"
	// MediaMuteChange reports the mute state in Flag
	MediaMuteChange MediaEventType = "mutechange"
	// MediaRateChange reports the playback rate in Value
	MediaRateChange MediaEventType = "ratechange"
	// MediaEnded indicates playback reached the end of the media
	MediaEnded MediaEventType = "ended"
	// MediaClosed indicates the element went away, for example the player window was closed
	MediaClosed MediaEventType = "closed"
	// MediaError indicates the media could not be loaded or played.  Err holds the cause.
	MediaError MediaEventType = "error"
)

// MediaEvent is a notification from a media element
type MediaEvent struct {
	Type  MediaEventType
	Value float64
	Flag  bool
	Err   error
}

// MediaElement is a directly addressable media player.  Setters request a change; the element confirms it by raising
// the matching event.
type MediaElement interface {
	// Load opens the media at url with playback starting at startAt seconds
	Load(ctx context.Context, url string, startAt float64) error

	SetPaused(paused bool) error
	Seek(seconds float64) error
	// SetVolume sets the volume in the range [0,1]
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetSpeed(rate float64) error
	SetFullscreen(fullscreen bool) error

	// Events returns the element's notifications.  The channel is closed when the element shuts down.
	Events() <-chan MediaEvent

	// Close stops playback and releases the element
	Close() error
}
