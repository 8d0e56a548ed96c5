package models

// lesson_list_input.go handles messages for the lesson list view: keyboard navigation, search input, and the
// results of loading and playback.

import (
	"errors"
	"fmt"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
func (m *LessonListModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If in search mode, handle input differently
		if m.searchMode {
			return m, m.handleSearchModeKeyMsg(msg)
		}
		return m, m.handleKeyPress(msg)

	case LessonsMsg:
		m.loaded = true
		if msg.Success {
			log.Debug("Lessons loaded")
			m.loadError = nil
			m.applyFilters()
			m.selectResumeLesson()
		} else {
			log.Debug("Lesson load error", "error", msg.Error)
			m.loadError = msg.Error
		}
		return m, nil

	case NotificationMsg:
		m.notify(msg.Text, msg.Error)
		return m, nil

	case PlaybackMsg:
		return m, m.handlePlaybackMsg(msg)
	}

	return m, nil
}

func (m *LessonListModel) handleSearchModeKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionBack:
		// Cancels search, clearing the filter
		m.searchMode = false
		m.searchQuery = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.applyFilters()
		return Handled("search:exit")
	case kb.ActionSearchComplete:
		m.searchMode = false
		m.searchQuery = m.searchInput.Value()
		m.searchInput.Blur()
		m.applyFilters()
		return Handled("search:apply")
	}

	// Let the text input model handle other keys
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Apply filters as we type
	m.searchQuery = m.searchInput.Value()
	m.applyFilters()

	return cmd
}

// handleKeyPress processes keyboard inputs in normal mode
func (m *LessonListModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextLessonList) {
	case kb.ActionMoveUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return Handled("cursor_move:up")
	case kb.ActionMoveDown:
		if len(m.filtered) > 0 && m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return Handled("cursor_move:down")
	case kb.ActionPageUp:
		m.cursor = max(0, m.cursor-m.visibleRows())
		return Handled("cursor_move:page_up")
	case kb.ActionPageDown:
		m.cursor = max(0, min(len(m.filtered)-1, m.cursor+m.visibleRows()))
		return Handled("cursor_move:page_down")
	case kb.ActionMoveTop:
		m.cursor = 0
		return Handled("cursor_move:top")
	case kb.ActionMoveBottom:
		m.cursor = max(0, len(m.filtered)-1)
		return Handled("cursor_move:bottom")
	case kb.ActionCycleFilter:
		m.filter = m.filter.Next()
		m.applyFilters()
		m.cursor = 0
		return Handled("filter:cycle")
	case kb.ActionEnableSearch:
		m.searchMode = true
		m.searchInput.Focus()
		return Handled("search:enable")
	case kb.ActionToggleLessonDetail:
		m.showDetail = !m.showDetail
		return Handled("detail:toggle")
	case kb.ActionRefreshLessons:
		m.notify("", false)
		return func() tea.Msg {
			return LoadingMsg{
				Type:      LoadingStart,
				Message:   "Refreshing lessons...",
				Operation: m.fetchLessonsCmd(),
			}
		}
	case kb.ActionPlayLesson:
		return m.handlePlayLesson()
	case kb.ActionOpenInBrowser:
		return m.handleOpenInBrowser()
	case kb.ActionOpenMaterials:
		return m.handleOpenMaterials()
	}

	return nil
}

// handlePlaybackMsg updates the list once playback ends or fails
func (m *LessonListModel) handlePlaybackMsg(msg PlaybackMsg) tea.Cmd {
	switch msg.Type {
	case PlaybackEventEnded:
		if msg.Lesson == nil {
			return nil
		}
		if err := m.lessonService.ApplyResult(msg.Lesson.Lesson.ID, msg.Result); err != nil {
			log.Warn("Failed to apply saved progress to lesson list", "lesson_id", msg.Lesson.Lesson.ID, "error", err)
		}
		m.applyFilters()
		m.selectLesson(msg.Lesson.Lesson.ID)

		switch {
		case msg.Unauthorized:
			m.notify("Progress was not saved: the access token was rejected", true)
		case msg.Result != nil && msg.Result.Completed:
			m.notify(fmt.Sprintf("%s: completed", msg.Lesson.Lesson.Title), false)
		case msg.Result != nil:
			m.notify(fmt.Sprintf("%s: saved at %s", msg.Lesson.Lesson.Title,
				util.FormatClock(float64(msg.Result.WatchTimeSeconds))), false)
		}

	case PlaybackEventExternal:
		m.notify(msg.Message, false)

	case PlaybackEventError:
		log.Error("Playback failed", "error", msg.Error)
		m.notify(playbackErrorText(msg.Error), true)
	}
	return nil
}

// selectResumeLesson places the cursor on the lesson to continue with, if the summary names one
func (m *LessonListModel) selectResumeLesson() {
	summary := m.lessonService.GetSummary()
	if summary == nil || summary.ResumeLessonID == nil {
		return
	}
	m.selectLesson(*summary.ResumeLessonID)
}

func playbackErrorText(err error) string {
	switch {
	case err == nil:
		return "Playback failed"
	case errors.Is(err, domain.ErrUnauthorized):
		return "The access token was rejected.  Update client.token in the config"
	default:
		return "Playback failed: " + err.Error()
	}
}
