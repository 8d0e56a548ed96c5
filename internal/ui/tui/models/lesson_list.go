package models

import (
	"context"
	"time"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/player"
	"github.com/PizzaHomicide/lectern/internal/reporter"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ProgressClient is the part of the service client the lesson list needs for playback
type ProgressClient interface {
	reporter.Sender
	LessonProgress(ctx context.Context, lessonID uint) (*domain.Progress, error)
}

// LessonListModel handles displaying and interacting with a cohort's lessons
type LessonListModel struct {
	config        *config.Config
	lessonService *service.LessonService
	progress      ProgressClient
	newMedia      func() player.MediaElement
	openURL       func(url string) error

	width, height int
	loaded        bool
	loadError     error

	filter      service.LessonFilter
	searchMode  bool
	searchInput textinput.Model
	searchQuery string

	cursor     int
	filtered   []*domain.LessonEntry
	showDetail bool

	notification      string
	notificationError bool
}

// NewLessonListModel creates a new lesson list model
func NewLessonListModel(cfg *config.Config, lessonService *service.LessonService, progress ProgressClient) *LessonListModel {
	ti := textinput.New()
	ti.Placeholder = "Search lessons..."
	ti.CharLimit = 100
	ti.Width = 40

	return &LessonListModel{
		config:        cfg,
		lessonService: lessonService,
		progress:      progress,
		newMedia: func() player.MediaElement {
			return player.CreateMediaElement(cfg.Player)
		},
		openURL:     openInBrowser,
		filter:      service.FilterAll,
		searchInput: ti,
	}
}

func (m *LessonListModel) ViewType() View {
	return ViewLessonList
}

// Init loads the lessons behind the loading view
func (m *LessonListModel) Init() tea.Cmd {
	return func() tea.Msg {
		return LoadingMsg{
			Type:      LoadingStart,
			Message:   "Loading lessons...",
			Operation: m.fetchLessonsCmd(),
		}
	}
}

// fetchLessonsCmd loads the lesson list from the service
func (m *LessonListModel) fetchLessonsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.lessonService.LoadLessons(ctx); err != nil {
			log.Error("Failed to load lessons", "error", err)
			return LessonsMsg{Success: false, Error: err}
		}

		log.Info("Lessons loaded successfully.  Sending LessonsMsg")
		return LessonsMsg{Success: true}
	}
}

// Resize updates the model with new dimensions
func (m *LessonListModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// applyFilters applies the progress filter and the search query to the lessons
func (m *LessonListModel) applyFilters() {
	entries := m.lessonService.GetLessonsByFilter(m.filter)

	m.filtered = m.filtered[:0]
	for _, entry := range entries {
		if m.searchQuery != "" && !fuzzy.MatchFold(m.searchQuery, entry.Lesson.Title) {
			continue
		}
		m.filtered = append(m.filtered, entry)
	}

	// Reset cursor if it's out of bounds
	if len(m.filtered) == 0 {
		m.cursor = 0
	} else if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
}

// getSelectedLesson returns the lesson under the cursor, nil when the list is empty
func (m *LessonListModel) getSelectedLesson() *domain.LessonEntry {
	if len(m.filtered) == 0 || m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

// selectLesson moves the cursor to the lesson when it is visible
func (m *LessonListModel) selectLesson(id uint) {
	for i, entry := range m.filtered {
		if entry.Lesson.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *LessonListModel) notify(text string, isError bool) {
	m.notification = text
	m.notificationError = isError
}
