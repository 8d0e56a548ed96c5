package models

// lesson_list_playback.go picks how a lesson's video is presented from the playback description the server sent
// with the lesson.  Trackable sources play in the native player with progress reporting.  Embeddable providers open a
// sandboxed page in the browser.  Declared external links open as plain links.  Neither of the latter two track
// progress.  Anything else is unplayable and nothing is launched.

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/browser"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/player"
	"github.com/PizzaHomicide/lectern/internal/reporter"
	"github.com/PizzaHomicide/lectern/internal/video"
	tea "github.com/charmbracelet/bubbletea"
)

// handlePlayLesson starts playback of the selected lesson
func (m *LessonListModel) handlePlayLesson() tea.Cmd {
	entry := m.getSelectedLesson()
	if entry == nil {
		return Handled("play_lesson:none_selected")
	}

	src := playbackSource(entry)
	log.Info("Play lesson", "lesson_id", entry.Lesson.ID, "title", entry.Lesson.Title, "kind", src.Kind,
		"tracked", src.SupportsProgressTracking)

	switch {
	case src.SupportsProgressTracking && src.Playable():
		return func() tea.Msg {
			return LoadingMsg{
				Type:      LoadingStart,
				Message:   "Starting player...",
				Title:     entry.Lesson.Title,
				Operation: m.startNativePlayback(entry, src),
			}
		}
	case src.IsEmbed():
		return m.openEmbed(entry, src)
	case src.Kind == video.Kind(domain.VideoKindExternalLink):
		return m.openExternal(entry, src)
	default:
		return m.unplayable(entry, src)
	}
}

// playbackSource is the server's classification of the lesson's video.  Entries without one are classified locally.
func playbackSource(entry *domain.LessonEntry) video.Source {
	pb := entry.Playback
	if pb.Kind == "" {
		return video.Resolve(entry.Lesson.Video.URL)
	}
	return video.Source{
		Kind:                     video.Kind(pb.Kind),
		ProviderID:               pb.ProviderID,
		URL:                      entry.Lesson.Video.URL,
		SupportsProgressTracking: pb.SupportsProgressTracking,
	}
}

// unplayable reports a video nothing can present.  It is final: no player or browser is started.
func (m *LessonListModel) unplayable(entry *domain.LessonEntry, src video.Source) tea.Cmd {
	if src.URL == "" {
		m.notify("This lesson has no video", true)
		return Handled("play_lesson:no_video")
	}
	log.Warn("Lesson video is unplayable", "lesson_id", entry.Lesson.ID, "url", src.URL, "kind", src.Kind)
	m.notify("This lesson's video cannot be played", true)
	return Handled("play_lesson:unplayable")
}

// handleOpenInBrowser opens the video's own URL regardless of its kind
func (m *LessonListModel) handleOpenInBrowser() tea.Cmd {
	entry := m.getSelectedLesson()
	if entry == nil {
		return Handled("open_in_browser:none_selected")
	}
	return m.openExternal(entry, video.Resolve(entry.Lesson.Video.URL))
}

// handleOpenMaterials opens every material attached to the selected lesson
func (m *LessonListModel) handleOpenMaterials() tea.Cmd {
	entry := m.getSelectedLesson()
	if entry == nil {
		return Handled("open_materials:none_selected")
	}
	if len(entry.Lesson.Materials) == 0 {
		m.notify("This lesson has no materials", false)
		return Handled("open_materials:none")
	}

	return func() tea.Msg {
		for _, material := range entry.Lesson.Materials {
			if err := m.openURL(material.URL); err != nil {
				log.Error("Failed to open material", "title", material.Title, "url", material.URL, "error", err)
				return NotificationMsg{Text: fmt.Sprintf("Could not open %s: %v", material.Title, err), Error: true}
			}
		}
		return NotificationMsg{Text: fmt.Sprintf("Opened %d material(s) in the browser", len(entry.Lesson.Materials))}
	}
}

// startNativePlayback mounts the lesson's file in the native player at the stored watch position
func (m *LessonListModel) startNativePlayback(entry *domain.LessonEntry, src video.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// The service holds the most recent position.  The cached one is only a fallback.
		existing := entry.Progress
		if fresh, err := m.progress.LessonProgress(ctx, entry.Lesson.ID); err != nil {
			log.Warn("Failed to refresh lesson progress, resuming from cached position",
				"lesson_id", entry.Lesson.ID, "error", err)
		} else {
			existing = fresh
		}

		rep := reporter.New(m.progress, entry.Lesson.ID, reporter.OptionsFromConfig(m.config.Reporter), existing,
			entry.Lesson.Video.ExpectedDurationSeconds)
		ctrl := player.NewController(m.newMedia(), rep)

		if err := ctrl.Mount(ctx, src.URL, rep.ResumePosition()); err != nil {
			_ = ctrl.Close()
			return PlaybackMsg{Type: PlaybackEventError, Lesson: entry, Error: err}
		}

		return PlaybackMsg{
			Type:       PlaybackEventStarted,
			Lesson:     entry,
			Controller: ctrl,
			Reporter:   rep,
		}
	}
}

// openEmbed renders the provider's sandboxed player page and opens it in the browser
func (m *LessonListModel) openEmbed(entry *domain.LessonEntry, src video.Source) tea.Cmd {
	return func() tea.Msg {
		embed, err := video.EmbedFor(src, entry.Lesson.Title)
		if err != nil {
			return PlaybackMsg{Type: PlaybackEventError, Lesson: entry, Error: err}
		}
		if _, err := browser.OpenEmbed(embed); err != nil {
			return PlaybackMsg{Type: PlaybackEventError, Lesson: entry, Error: err}
		}

		text := "Opened in the browser.  Progress is not tracked for embedded videos"
		if !src.Playable() {
			text = "The video link is incomplete.  The browser page explains it cannot be loaded"
		}
		return PlaybackMsg{Type: PlaybackEventExternal, Lesson: entry, Message: text}
	}
}

// openExternal hands the raw video URL to the browser
func (m *LessonListModel) openExternal(entry *domain.LessonEntry, src video.Source) tea.Cmd {
	if src.URL == "" {
		m.notify("This lesson has no video", true)
		return Handled("open_external:no_url")
	}

	return func() tea.Msg {
		if err := m.openURL(src.URL); err != nil {
			return PlaybackMsg{Type: PlaybackEventError, Lesson: entry, Error: err}
		}
		return PlaybackMsg{
			Type:    PlaybackEventExternal,
			Lesson:  entry,
			Message: "Opened the video link in the browser.  Progress is not tracked for external videos",
		}
	}
}

func openInBrowser(url string) error {
	log.Info("Opening in browser", "url", url)
	return browser.Open(url)
}
