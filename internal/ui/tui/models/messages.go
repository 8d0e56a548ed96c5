package models

import (
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/player"
	"github.com/PizzaHomicide/lectern/internal/reporter"
	tea "github.com/charmbracelet/bubbletea"
)

// HandledMsg marks a key press as consumed by a view.  It carries no work.
type HandledMsg struct {
	Reason string
}

// Handled returns a command producing a HandledMsg
func Handled(reason string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Reason: reason}
	}
}

// LessonsMsg is sent when loading the lesson list finished
type LessonsMsg struct {
	Success bool
	Error   error
}

type LoadingType int

const (
	LoadingStart LoadingType = iota
	LoadingStop
)

// LoadingMsg shows or hides the loading view.  Operation is run when loading starts, and the message it produces is
// delivered once loading stops.
type LoadingMsg struct {
	Type      LoadingType
	Message   string
	Title     string
	Operation tea.Cmd
}

type PlaybackEventType int

const (
	// PlaybackEventStarted means a native player is mounted and ready to be shown
	PlaybackEventStarted PlaybackEventType = iota
	// PlaybackEventExternal means the lesson was handed to the browser.  No progress is tracked.
	PlaybackEventExternal
	// PlaybackEventEnded means the native player closed.  Result holds the last saved progress.
	PlaybackEventEnded
	// PlaybackEventError means playback could not be started
	PlaybackEventError
)

// PlaybackMsg reports a change in a lesson's playback
type PlaybackMsg struct {
	Type       PlaybackEventType
	Lesson     *domain.LessonEntry
	Controller *player.Controller
	Reporter   *reporter.Reporter
	Result     *domain.ReportResult
	// Unauthorized is set when progress could not be saved because the token was rejected
	Unauthorized bool
	Message      string
	Error        error
}

// playerTickMsg is sent when the controller state changed
type playerTickMsg struct{}

// reporterTickMsg refreshes the save status shown by the player
type reporterTickMsg struct{}

// NotificationMsg shows a one-line message in the lesson list status bar
type NotificationMsg struct {
	Text  string
	Error bool
}
