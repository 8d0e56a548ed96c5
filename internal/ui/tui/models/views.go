package models

import tea "github.com/charmbracelet/bubbletea"

// View represents a specific UI view in the application
type View string

// Available views in the application
const (
	ViewLessonList View = "lesson-list"
	ViewPlayer     View = "player"
	ViewLoading    View = "loading"
	ViewHelp       View = "help"
)

// Model is implemented by every view the app model can show
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
	ViewType() View
}
