package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/player"
	"github.com/PizzaHomicide/lectern/internal/reporter"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	volumeStep          = 0.1
	statusRefreshPeriod = time.Second
)

// PlayerModel is the remote control for a mounted native player.  The video itself plays in the player's own window.
type PlayerModel struct {
	width, height int

	lesson     *domain.LessonEntry
	controller *player.Controller
	reporter   *reporter.Reporter
	ctx        context.Context
	cancel     context.CancelFunc

	state   player.State
	status  reporter.Status
	lastErr error
	closing bool

	timeInput   textinput.Model
	inputActive bool
}

// NewPlayerModel creates the view for a mounted controller and its progress reporter
func NewPlayerModel(lesson *domain.LessonEntry, controller *player.Controller, rep *reporter.Reporter) *PlayerModel {
	ti := textinput.New()
	ti.Placeholder = "1:30"
	ti.CharLimit = 9
	ti.Width = 12

	ctx, cancel := context.WithCancel(context.Background())
	return &PlayerModel{
		lesson:     lesson,
		controller: controller,
		reporter:   rep,
		ctx:        ctx,
		cancel:     cancel,
		state:      controller.State(),
		status:     rep.Status(),
		timeInput:  ti,
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewPlayer
}

// Init starts the controller's event loop and the reporter's save timer
func (m *PlayerModel) Init() tea.Cmd {
	go m.controller.Run(m.ctx)
	go m.reporter.Run(m.ctx)

	return tea.Batch(
		waitForPlayerChange(m.ctx, m.controller.Changes()),
		refreshStatus(),
	)
}

func waitForPlayerChange(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-changes:
			return playerTickMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func refreshStatus() tea.Cmd {
	return tea.Tick(statusRefreshPeriod, func(time.Time) tea.Msg {
		return reporterTickMsg{}
	})
}

// Resize updates the model with new dimensions
func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages and updates the model
func (m *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.closing {
			return m, Handled("player:closing")
		}
		if m.inputActive {
			return m, m.handleTimeInputKeyMsg(msg)
		}
		return m, m.handleKeyPress(msg)

	case playerTickMsg:
		if m.closing {
			return m, nil
		}
		m.state = m.controller.State()
		m.status = m.reporter.Status()
		if m.state.Closed {
			log.Info("Player window closed", "lesson_id", m.lesson.Lesson.ID)
			return m, m.Close()
		}
		return m, waitForPlayerChange(m.ctx, m.controller.Changes())

	case reporterTickMsg:
		if m.closing {
			return m, nil
		}
		m.status = m.reporter.Status()
		return m, refreshStatus()
	}

	return m, nil
}

// handleKeyPress maps the transport shortcuts onto the controller
func (m *PlayerModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	action := kb.GetActionByKey(msg, kb.ContextPlayer)
	if action == "" && kb.GetActionByKey(msg, kb.ContextGlobal) == kb.ActionBack {
		action = kb.ActionClosePlayer
	}

	var err error
	switch action {
	case kb.ActionTogglePlay:
		err = m.controller.TogglePlay()
	case kb.ActionSkipBack:
		err = m.controller.Skip(-player.SkipSeconds)
	case kb.ActionSkipForward:
		err = m.controller.Skip(player.SkipSeconds)
	case kb.ActionToggleMute:
		err = m.controller.ToggleMute()
	case kb.ActionToggleFullscreen:
		err = m.controller.ToggleFullscreen()
	case kb.ActionCycleRate:
		_, err = m.controller.CyclePlaybackRate()
	case kb.ActionVolumeUp:
		err = m.controller.SetVolume(m.controller.State().Volume + volumeStep)
	case kb.ActionVolumeDown:
		err = m.controller.SetVolume(m.controller.State().Volume - volumeStep)
	case kb.ActionGoToTime:
		if m.state.Unplayable {
			return Handled("go_to_time:unplayable")
		}
		m.inputActive = true
		m.timeInput.SetValue("")
		return m.timeInput.Focus()
	case kb.ActionClosePlayer:
		return m.Close()
	default:
		return nil
	}

	m.recordErr(string(action), err)
	m.state = m.controller.State()
	return Handled("player:" + string(action))
}

// handleTimeInputKeyMsg gives every key to the input except submit and cancel
func (m *PlayerModel) handleTimeInputKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextTimeInput) {
	case kb.ActionBack:
		m.inputActive = false
		m.timeInput.Blur()
		return Handled("go_to_time:cancel")
	case kb.ActionInputSubmit:
		m.inputActive = false
		m.timeInput.Blur()
		target, err := util.ParseClock(m.timeInput.Value())
		if err != nil {
			m.lastErr = err
			return Handled("go_to_time:invalid")
		}
		m.recordErr("seek", m.controller.Seek(target))
		m.state = m.controller.State()
		return Handled("go_to_time:seek")
	}

	var cmd tea.Cmd
	m.timeInput, cmd = m.timeInput.Update(msg)
	return cmd
}

func (m *PlayerModel) recordErr(action string, err error) {
	if err == nil {
		m.lastErr = nil
		return
	}
	// Unplayable is already shown as the player's state
	if !errors.Is(err, player.ErrUnplayable) {
		log.Warn("Player command failed", "action", action, "error", err)
		m.lastErr = err
	}
}

// Close flushes the progress, releases the player and reports the last saved values.  Only the first call does any
// work.
func (m *PlayerModel) Close() tea.Cmd {
	if m.closing {
		return nil
	}
	m.closing = true

	lesson, ctrl, rep, cancel := m.lesson, m.controller, m.reporter, m.cancel
	return func() tea.Msg {
		rep.Close()
		if err := ctrl.Close(); err != nil {
			log.Warn("Failed to close player", "lesson_id", lesson.Lesson.ID, "error", err)
		}
		cancel()
		rep.Wait()

		status := rep.Status()
		msg := PlaybackMsg{
			Type:         PlaybackEventEnded,
			Lesson:       lesson,
			Unauthorized: status.Unauthorized,
		}
		if status.SavedWatchTime > 0 || status.SavedCompleted {
			msg.Result = &domain.ReportResult{
				WatchTimeSeconds: status.SavedWatchTime,
				Completed:        status.SavedCompleted,
			}
		}
		log.Info("Playback session ended", "lesson_id", lesson.Lesson.ID,
			"saved_watch_time", status.SavedWatchTime, "saved_completed", status.SavedCompleted)
		return msg
	}
}

// View renders the player controls
func (m *PlayerModel) View() string {
	header := styles.Header(m.width, m.lesson.Lesson.Title)
	contentWidth := max(20, min(m.width-4, 90))

	var body string
	if m.state.Unplayable {
		body = m.renderUnplayable(contentWidth)
	} else {
		body = m.renderTransport(contentWidth)
	}

	bindings := []components.KeyBinding{
		components.Hint(kb.ContextPlayer, kb.ActionTogglePlay, "play/pause"),
		{Key: "←/→", Desc: "seek 10s"},
		components.Hint(kb.ContextPlayer, kb.ActionToggleMute, "mute"),
		components.Hint(kb.ContextPlayer, kb.ActionToggleFullscreen, "fullscreen"),
		components.Hint(kb.ContextPlayer, kb.ActionCycleRate, "speed"),
		components.Hint(kb.ContextPlayer, kb.ActionGoToTime, "go to"),
		components.Hint(kb.ContextPlayer, kb.ActionClosePlayer, "close"),
	}
	if m.inputActive {
		bindings = []components.KeyBinding{
			components.Hint(kb.ContextTimeInput, kb.ActionInputSubmit, "seek"),
			components.Hint(kb.ContextTimeInput, kb.ActionBack, "cancel"),
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.CenteredText(m.width, body),
		"",
		components.KeyBindingsBar(m.width, bindings),
	)
}

func (m *PlayerModel) renderTransport(width int) string {
	s := m.state

	playState := "⏸ Paused"
	switch {
	case m.closing:
		playState = "Saving progress..."
	case s.Ended:
		playState = "■ Ended"
	case s.IsPlaying:
		playState = "▶ Playing"
	}

	clock := fmt.Sprintf("%s / %s", util.FormatClock(s.CurrentTime), util.FormatClock(s.Duration))
	if s.Duration > 0 {
		clock += fmt.Sprintf("  (%.0f%%)", s.ProgressPercent)
	}

	volume := fmt.Sprintf("Volume %.0f%%", s.Volume*100)
	if s.Muted {
		volume = "Muted"
	}
	indicators := []string{fmt.Sprintf("Speed %gx", s.PlaybackRate), volume}
	if s.IsFullscreen {
		indicators = append(indicators, "Fullscreen")
	}
	if s.HasCompletedThisSession {
		indicators = append(indicators, styles.Success.Render("Completed"))
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(playState),
		styles.Accent.Render(util.ProgressBar(s.ProgressPercent, max(10, width-8))),
		clock,
		strings.Join(indicators, "  •  "),
		"",
		m.renderSaveStatus(),
	}
	if m.inputActive {
		lines = append(lines, "", "Go to time: "+m.timeInput.View())
	}
	if m.lastErr != nil {
		lines = append(lines, "", styles.Error.Render(m.lastErr.Error()))
	}

	return styles.ContentBox(width, strings.Join(lines, "\n"), 1)
}

// renderSaveStatus shows the values the service stored, not the live position
func (m *PlayerModel) renderSaveStatus() string {
	st := m.status
	saved := fmt.Sprintf("Saved at %s  •  %.0f%% complete", util.FormatClock(float64(st.SavedWatchTime)), st.PercentComplete)
	if st.SavedCompleted {
		saved = fmt.Sprintf("Saved at %s  •  lesson completed", util.FormatClock(float64(st.SavedWatchTime)))
	}

	switch {
	case st.Unauthorized:
		return styles.Error.Render("Progress is not being saved: the access token was rejected")
	case st.LastErr != nil:
		return saved + "  " + styles.Warning.Render("(last save failed)")
	case st.State == reporter.PendingSave:
		return saved + "  " + styles.Muted.Render("(saving)")
	default:
		return saved
	}
}

func (m *PlayerModel) renderUnplayable(width int) string {
	reason := "The video could not be played"
	if m.state.Err != nil {
		reason += ": " + m.state.Err.Error()
	}
	lines := []string{
		styles.Error.Render(reason),
		"",
		styles.Muted.Render("Press q to return to the lessons"),
	}
	return styles.ContentBox(width, strings.Join(lines, "\n"), 1)
}
