package models

import (
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// slowAfter is how long an operation runs before the overlay shows how long it has been waiting
const slowAfter = 3 * time.Second

// LoadingModel is the overlay shown while a lesson list fetch or a player start is in flight.  Keys are ignored
// until the operation reports back.
type LoadingModel struct {
	width, height int
	title         string
	message       string
	spinner       spinner.Model
	started       time.Time
	now           func() time.Time
}

// NewLoadingModel creates an overlay showing the message next to a spinner
func NewLoadingModel(message string) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Accent

	return &LoadingModel{
		message: message,
		spinner: s,
		started: time.Now(),
		now:     time.Now,
	}
}

// WithTitle names what is loading, usually the lesson being started
func (m *LoadingModel) WithTitle(title string) *LoadingModel {
	m.title = title
	return m
}

func (m *LoadingModel) ViewType() View {
	return ViewLoading
}

func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *LoadingModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	log.Trace("Loading overlay ignored message", "message", msg)
	return m, nil
}

// View renders the overlay.  Once the operation is slow the elapsed time is added so a stalled server is visible.
func (m *LoadingModel) View() string {
	width := max(30, min(m.width-20, 70))

	line := m.spinner.View() + " " + lipgloss.NewStyle().Bold(true).Render(m.message)
	body := lipgloss.NewStyle().Width(width - 6).Align(lipgloss.Center).Render(line)

	if waited := m.now().Sub(m.started); waited >= slowAfter {
		hint := fmt.Sprintf("Still waiting after %ds", int(waited.Seconds()))
		body += "\n\n" + styles.Muted.Width(width-6).Align(lipgloss.Center).Render(hint)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#9D86FF")).
		Padding(1, 2).
		Width(width).
		Render(body)

	if m.title != "" {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Width(width).
			Align(lipgloss.Center).
			Render(m.title)
		box = lipgloss.JoinVertical(lipgloss.Center, header, box)
	}

	return styles.CenteredView(m.width, m.height, box)
}

func (m *LoadingModel) Resize(width, height int) {
	m.width = width
	m.height = height
}
