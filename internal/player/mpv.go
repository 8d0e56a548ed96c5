package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// Observed mpv properties
const (
	propPlaybackTime = "playback-time"
	propDuration     = "duration"
	propPause        = "pause"
	propFullscreen   = "fullscreen"
	propVolume       = "volume"
	propMute         = "mute"
	propSpeed        = "speed"
	propEOFReached   = "eof-reached"
)

var observedProperties = []string{
	propPlaybackTime,
	propDuration,
	propPause,
	propFullscreen,
	propVolume,
	propMute,
	propSpeed,
	propEOFReached,
}

// MPVElement implements MediaElement by driving an MPV process over its JSON IPC interface
type MPVElement struct {
	config     config.PlayerConfig
	socketPath string
	ipcClient  *MPVIPCClient
	cmd        *exec.Cmd
	exited     chan struct{}
	events     chan MediaEvent
	pumping    atomic.Bool
	closeOnce  sync.Once
}

// NewMPVElement creates a new MPV media element
func NewMPVElement(cfg config.PlayerConfig) *MPVElement {
	socketPath := GetMPVSocketPath()
	return &MPVElement{
		config:     cfg,
		socketPath: socketPath,
		ipcClient:  NewMPVIPCClient(socketPath),
		exited:     make(chan struct{}),
		events:     make(chan MediaEvent, 32),
	}
}

// Load starts MPV on the URL, connects to its IPC socket and starts translating its events
func (p *MPVElement) Load(ctx context.Context, url string, startAt float64) error {
	log.Info("Starting MPV playback", "url", url, "start_at", startAt)

	mpvPath := p.config.Path
	if mpvPath == "" {
		mpvPath = "mpv"
	}

	cmd := exec.Command(mpvPath, p.buildArgs(url, startAt)...)
	setupPlayerProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start MPV: %w", err)
	}
	p.cmd = cmd
	go func() {
		err := cmd.Wait()
		log.Debug("MPV process exited", "error", err)
		close(p.exited)
	}()

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.ipcClient.WaitForConnection(connCtx, 40, 250*time.Millisecond); err != nil {
		_ = p.Close()
		return err
	}

	for i, name := range observedProperties {
		if err := p.ipcClient.ObserveProperty(i+1, name); err != nil {
			_ = p.Close()
			return fmt.Errorf("failed to observe %s: %w", name, err)
		}
	}

	p.pumping.Store(true)
	go p.pump()
	return nil
}

func (p *MPVElement) buildArgs(url string, startAt float64) []string {
	args := []string{
		"--no-terminal",
		"--keep-open=yes", // Stay open at the end so the final position is observed
		"--force-window=immediate",
		"--input-ipc-server=" + p.socketPath,
	}
	if startAt > 0 {
		args = append(args, fmt.Sprintf("--start=%.3f", startAt))
	}
	if p.config.Args != "" {
		args = append(args, ParseArgs(p.config.Args)...)
	}
	return append(args, "--", url)
}

// pump translates MPV events into media events until the IPC connection closes
func (p *MPVElement) pump() {
	defer close(p.events)

	var lastLoggedProgress = -1
	var duration float64
	for event := range p.ipcClient.Events() {
		ev, ok := translateMPVEvent(event)
		if !ok {
			continue
		}
		switch ev.Type {
		case MediaDurationChange:
			duration = ev.Value
		case MediaTimeUpdate:
			if duration > 0 {
				progress := int(ev.Value / duration * 100)
				if progress != lastLoggedProgress && progress%5 == 0 {
					log.Debug("Playback progress", "percent", progress)
					lastLoggedProgress = progress
				}
			}
		}
		p.events <- ev
	}

	select {
	case p.events <- MediaEvent{Type: MediaClosed}:
	default:
	}
}

// translateMPVEvent maps an MPV event onto a media event.  Returns false for events with no media equivalent.
func translateMPVEvent(event MPVEvent) (MediaEvent, bool) {
	switch event.Event {
	case "property-change":
		return translatePropertyChange(event)
	case "end-file":
		if event.Reason == "error" {
			reason := event.FileError
			if reason == "" {
				reason = "unknown error"
			}
			return MediaEvent{Type: MediaError, Err: fmt.Errorf("mpv failed to play file: %s", reason)}, true
		}
		if event.Reason == "eof" {
			return MediaEvent{Type: MediaEnded}, true
		}
	case "shutdown":
		return MediaEvent{Type: MediaClosed}, true
	}
	return MediaEvent{}, false
}

func translatePropertyChange(event MPVEvent) (MediaEvent, bool) {
	// Properties are null until a file is loaded
	if len(event.Data) == 0 || string(event.Data) == "null" {
		return MediaEvent{}, false
	}

	switch event.Name {
	case propPlaybackTime, propDuration, propVolume, propSpeed:
		var value float64
		if err := json.Unmarshal(event.Data, &value); err != nil {
			log.Warn("Failed to unmarshal event data", "name", event.Name, "data", string(event.Data))
			return MediaEvent{}, false
		}
		switch event.Name {
		case propPlaybackTime:
			return MediaEvent{Type: MediaTimeUpdate, Value: value}, true
		case propDuration:
			return MediaEvent{Type: MediaDurationChange, Value: value}, true
		case propVolume:
			return MediaEvent{Type: MediaVolumeChange, Value: value / 100}, true
		default:
			return MediaEvent{Type: MediaRateChange, Value: value}, true
		}
	case propPause, propFullscreen, propMute, propEOFReached:
		var flag bool
		if err := json.Unmarshal(event.Data, &flag); err != nil {
			log.Warn("Failed to unmarshal event data", "name", event.Name, "data", string(event.Data))
			return MediaEvent{}, false
		}
		switch event.Name {
		case propPause:
			if flag {
				return MediaEvent{Type: MediaPause}, true
			}
			return MediaEvent{Type: MediaPlay}, true
		case propFullscreen:
			return MediaEvent{Type: MediaFullscreenChange, Flag: flag}, true
		case propMute:
			return MediaEvent{Type: MediaMuteChange, Flag: flag}, true
		default:
			if flag {
				return MediaEvent{Type: MediaEnded}, true
			}
		}
	}
	return MediaEvent{}, false
}

// Events returns the translated media events
func (p *MPVElement) Events() <-chan MediaEvent {
	return p.events
}

func (p *MPVElement) SetPaused(paused bool) error {
	return p.ipcClient.SetProperty(propPause, paused)
}

func (p *MPVElement) Seek(seconds float64) error {
	return p.ipcClient.SendCommand([]interface{}{"seek", seconds, "absolute"})
}

func (p *MPVElement) SetVolume(volume float64) error {
	return p.ipcClient.SetProperty(propVolume, volume*100)
}

func (p *MPVElement) SetMuted(muted bool) error {
	return p.ipcClient.SetProperty(propMute, muted)
}

func (p *MPVElement) SetSpeed(rate float64) error {
	return p.ipcClient.SetProperty(propSpeed, rate)
}

func (p *MPVElement) SetFullscreen(fullscreen bool) error {
	return p.ipcClient.SetProperty(propFullscreen, fullscreen)
}

// Close asks MPV to quit, then makes sure the process and its socket are gone
func (p *MPVElement) Close() error {
	var closeErr error
	p.closeOnce.Do(func() {
		if err := p.ipcClient.SendCommand([]interface{}{"quit"}); err != nil {
			log.Debug("Failed to send quit to MPV", "error", err)
		}
		_ = p.ipcClient.Close()

		if p.cmd != nil && p.cmd.Process != nil {
			log.Info("Stopping MPV playback")
			select {
			case <-p.exited:
			case <-time.After(time.Second):
				if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
					closeErr = err
				}
			}
		}

		if !p.pumping.Load() {
			close(p.events)
		}

		// Remove socket file if it exists (Unix only)
		if _, err := os.Stat(p.socketPath); err == nil {
			if err := os.Remove(p.socketPath); err != nil {
				log.Warn("Failed to remove MPV socket file", "path", p.socketPath, "error", err)
			}
		}
	})
	return closeErr
}
