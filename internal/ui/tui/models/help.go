package models

import (
	"strings"

	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var helpHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

// helpSection is one block of key bindings on the help screen
type helpSection struct {
	title   string
	context kb.ContextName
}

// helpTopic is what the help screen explains for a view
type helpTopic struct {
	title       string
	description string
	sections    []helpSection
	extra       string
}

var helpTopics = map[View]helpTopic{
	ViewLessonList: {
		title: "Lessons",
		description: "The lesson list shows the published lessons of your cohort in order, with your progress on each.\n\n" +
			"Lessons with a video file play in the native player, which saves your position as you watch and " +
			"resumes from it next time.  YouTube and Vimeo lessons open in your browser, where progress is not tracked.\n\n" +
			"A lesson is completed once you have watched 90% of it.  Completion is never undone.",
		sections: []helpSection{
			{title: "Lesson list", context: kb.ContextLessonList},
			{title: "While searching", context: kb.ContextSearchMode},
		},
		extra: "• All : every published lesson of the cohort\n" +
			"• Not started : lessons without any saved watch time\n" +
			"• In progress : lessons with saved watch time that are not completed yet\n" +
			"• Completed : lessons you have watched at least 90% of\n\n" +
			"The filter key cycles through them.  Search narrows the filtered lessons by title.",
	},
	ViewPlayer: {
		title: "Player",
		description: "The player view controls the video playing in the player window.\n\n" +
			"Your position is saved every few seconds while playing, immediately when the lesson is completed, " +
			"and once more when you close the player.  The saved position shown here is what the server stored, " +
			"so it lags behind the video while saves fail.\n\n" +
			"Shortcuts are disabled while the time input has focus.",
		sections: []helpSection{
			{title: "Player", context: kb.ContextPlayer},
			{title: "While entering a time", context: kb.ContextTimeInput},
		},
	},
}

// HelpModel is a scrollable overlay describing the view it was opened from
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

func (m *HelpModel) ViewType() View {
	return ViewHelp
}

func (m *HelpModel) Init() tea.Cmd {
	if m.width > 0 && m.height > 0 {
		m.refresh()
	}
	return nil
}

func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
		}
	}
	return m, cmd
}

func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(1, width-4)
	m.viewport.Height = max(1, height-10)
	m.refresh()
}

func (m *HelpModel) refresh() {
	m.viewport.SetContent(m.content())
	m.viewport.GotoTop()
}

func (m *HelpModel) topic() helpTopic {
	if t, ok := helpTopics[m.context]; ok {
		return t
	}
	return helpTopic{
		title:       "General",
		description: "Lectern is a terminal client for watching your cohort's lessons.",
	}
}

func (m *HelpModel) View() string {
	footer := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.Header(m.width, "Help: "+m.topic().title),
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"",
		styles.CenteredText(m.width, styles.Info.Render(footer)),
	)
}

// content lists the view's description, then the global keys, then each of the view's own key sections with the
// global actions left out
func (m *HelpModel) content() string {
	topic := m.topic()

	var b strings.Builder
	b.WriteString(helpHeading.Render(topic.title) + "\n\n")
	b.WriteString(topic.description + "\n\n")
	b.WriteString(helpHeading.Render("Keybindings") + "\n\n")
	b.WriteString(formatBindings("Global", kb.ContextBindings[kb.ContextGlobal], nil))

	global := make(map[kb.Action]bool)
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		global[binding.Action] = true
	}
	for _, section := range topic.sections {
		b.WriteString("\n" + formatBindings(section.title, kb.ContextBindings[section.context], global))
	}

	if topic.extra != "" {
		b.WriteString("\n" + helpHeading.Render("Filters") + "\n\n" + topic.extra + "\n")
	}
	return b.String()
}

// formatBindings renders a titled list of bindings with the descriptions aligned
func formatBindings(title string, bindings []kb.Binding, skip map[kb.Action]bool) string {
	type row struct{ keys, help string }
	var rows []row
	keyWidth := 0
	for _, binding := range bindings {
		if skip[binding.Action] {
			continue
		}
		keys := kb.DisplayKey(binding.KeyMap.Primary)
		if binding.KeyMap.Secondary != "" {
			keys += " or " + kb.DisplayKey(binding.KeyMap.Secondary)
		}
		keyWidth = max(keyWidth, runewidth.StringWidth(keys))
		rows = append(rows, row{keys, binding.KeyMap.Help})
	}
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title+" commands:") + "\n\n")
	for _, r := range rows {
		b.WriteString("• " + lipgloss.NewStyle().Bold(true).Render(util.PadRight(r.keys, keyWidth)) + " : " + r.help + "\n")
	}
	return b.String()
}
