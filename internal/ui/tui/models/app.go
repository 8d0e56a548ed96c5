package models

import (
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/service"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	width, height int

	lessonList  *LessonListModel
	activeView  Model // The lesson list, or the player while a lesson plays
	activeModal Model // Help or loading overlay, nil when none is shown
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(cfg *config.Config, lessonService *service.LessonService, progress ProgressClient) AppModel {
	lessonList := NewLessonListModel(cfg, lessonService, progress)
	return AppModel{
		config:     cfg,
		lessonList: lessonList,
		activeView: lessonList,
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Lectern TUI")
	return m.lessonList.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.lessonList.Resize(msg.Width, msg.Height)
		m.activeView.Resize(msg.Width, msg.Height)
		if m.activeModal != nil {
			m.activeModal.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case HandledMsg:
		log.Trace("Key handled", "reason", msg.Reason)
		return m, nil

	case LoadingMsg:
		switch msg.Type {
		case LoadingStart:
			loading := NewLoadingModel(msg.Message).WithTitle(msg.Title)
			loading.Resize(m.width, m.height)
			m.activeModal = loading
			return m, tea.Batch(loading.Init(), msg.Operation)
		case LoadingStop:
			m.stopLoading()
			return m, nil
		}

	case spinner.TickMsg:
		if m.activeModal != nil && m.activeModal.ViewType() == ViewLoading {
			return m.updateModal(msg)
		}
		return m, nil

	case LessonsMsg:
		m.stopLoading()
		return m.updateLessonList(msg)

	case PlaybackMsg:
		return m.handlePlaybackMsg(msg)
	}

	return m.updateActiveView(msg)
}

func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kb.GetActionByKey(msg, kb.ContextGlobal) {
	case kb.ActionQuit:
		log.Info("Quit command received.  Shutting down...")
		if p, ok := m.activeView.(*PlayerModel); ok {
			// Save the position before the program exits
			return m, tea.Sequence(p.Close(), tea.Quit)
		}
		return m, tea.Quit

	case kb.ActionToggleHelp:
		if m.isLoading() {
			return m, nil
		}
		log.Debug("Help requested", "active_view", m.activeView.ViewType())
		// Disable/toggle modal if one already active
		if m.activeModal != nil {
			m.activeModal = nil
			return m, nil
		}
		help := NewHelpModel(m.activeView.ViewType())
		help.Resize(m.width, m.height)
		m.activeModal = help
		return m, help.Init()

	case kb.ActionBack:
		// Handle closing modal when esc is pressed if any is active
		if m.activeModal != nil && !m.isLoading() {
			m.activeModal = nil
			return m, nil
		}
	}

	// Keys are ignored while loading
	if m.isLoading() {
		return m, nil
	}
	if m.activeModal != nil {
		return m.updateModal(msg)
	}
	return m.updateActiveView(msg)
}

func (m AppModel) handlePlaybackMsg(msg PlaybackMsg) (tea.Model, tea.Cmd) {
	m.stopLoading()

	switch msg.Type {
	case PlaybackEventStarted:
		log.Info("Playback started", "lesson_id", msg.Lesson.Lesson.ID, "title", msg.Lesson.Lesson.Title)
		playerModel := NewPlayerModel(msg.Lesson, msg.Controller, msg.Reporter)
		playerModel.Resize(m.width, m.height)
		m.activeView = playerModel
		m.activeModal = nil
		return m, playerModel.Init()

	case PlaybackEventEnded:
		m.activeView = m.lessonList
		m.activeModal = nil
	}

	return m.updateLessonList(msg)
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	if m.activeModal != nil {
		return m.activeModal.View()
	}
	return m.activeView.View()
}

func (m *AppModel) isLoading() bool {
	return m.activeModal != nil && m.activeModal.ViewType() == ViewLoading
}

func (m *AppModel) stopLoading() {
	if m.isLoading() {
		m.activeModal = nil
	}
}

// updateActiveView delegates message processing to the active view
func (m AppModel) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	view, cmd := m.activeView.Update(msg)
	m.activeView = view
	return m, cmd
}

// updateLessonList delegates to the lesson list even while the player is shown
func (m AppModel) updateLessonList(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.lessonList.Update(msg)
	return m, cmd
}

func (m AppModel) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	modal, cmd := m.activeModal.Update(msg)
	m.activeModal = modal
	return m, cmd
}
