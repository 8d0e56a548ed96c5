package models

// lesson_list_render.go is responsible for the visual representation of the lesson list: the cohort summary header,
// the lesson rows and the optional detail panel.

import (
	"fmt"
	"strings"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/util"
	"github.com/PizzaHomicide/lectern/internal/video"
	"github.com/charmbracelet/lipgloss"
)

const titleColumnWidth = 48

// View renders the lesson list model
func (m *LessonListModel) View() string {
	if !m.loaded {
		return styles.CenteredView(m.width, m.height, "Waiting for lessons...")
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error loading lessons: %v\n\nPress 'r' to retry.", m.loadError)
		return styles.CenteredView(
			m.width,
			m.height,
			styles.ContentBox(m.width-20, errorMsg, 1),
		)
	}

	sections := []string{
		styles.Header(m.width, m.headerTitle()),
		m.renderSummary(),
		m.renderFilterStatus(),
		m.renderLessonList(),
	}
	if m.showDetail {
		sections = append(sections, m.renderDetail())
	}
	if m.notification != "" {
		style := styles.Success
		if m.notificationError {
			style = styles.Error
		}
		sections = append(sections, styles.CenteredText(m.width, style.Render(m.notification)))
	}
	sections = append(sections, components.KeyBindingsBar(m.width, []components.KeyBinding{
		components.Hint(kb.ContextLessonList, kb.ActionPlayLesson, "play"),
		components.Hint(kb.ContextLessonList, kb.ActionEnableSearch, "search"),
		components.Hint(kb.ContextLessonList, kb.ActionCycleFilter, "filter"),
		components.Hint(kb.ContextLessonList, kb.ActionToggleLessonDetail, "details"),
		components.Hint(kb.ContextGlobal, kb.ActionToggleHelp, "help"),
	}))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *LessonListModel) headerTitle() string {
	if cohort := m.lessonService.GetCohort(); cohort != nil && cohort.Title != "" {
		return "Lectern - " + cohort.Title
	}
	return fmt.Sprintf("Lectern - Cohort %d", m.lessonService.CohortID())
}

// renderSummary shows the cohort-wide completion
func (m *LessonListModel) renderSummary() string {
	summary := m.lessonService.GetSummary()
	if summary == nil {
		return ""
	}

	text := fmt.Sprintf("%s %d%%  •  %d of %d lessons completed  •  %s watched",
		styles.Accent.Render(util.ProgressBar(float64(summary.ProgressPercentage), 20)),
		summary.ProgressPercentage,
		summary.CompletedLessons,
		summary.TotalLessons,
		util.FormatClock(float64(summary.TotalWatchTimeSeconds)))
	return styles.CenteredText(m.width, styles.Info.Render(text))
}

// renderFilterStatus shows the active filter and the search input
func (m *LessonListModel) renderFilterStatus() string {
	status := "Showing: " + m.filter.String()
	if m.searchMode {
		status += "  •  " + m.searchInput.View()
	} else if m.searchQuery != "" {
		status += fmt.Sprintf("  •  Search: %q", m.searchQuery)
	}
	return styles.FilterStatus.Render(status)
}

// visibleRows is the number of lessons that fit on screen
func (m *LessonListModel) visibleRows() int {
	reserved := 12 // header, summary, filter, table header, footer and margins
	if m.showDetail {
		reserved += 8
	}
	return max(1, m.height-reserved)
}

// renderLessonList renders the lessons matching the current filters
func (m *LessonListModel) renderLessonList() string {
	lessons := m.filtered

	if len(lessons) == 0 {
		return styles.CenteredText(m.width, "No lessons match the current filter")
	}

	visibleCount := min(len(lessons), m.visibleRows())

	// Adjust starting index to keep cursor in view
	startIdx := 0
	if m.cursor >= visibleCount {
		startIdx = m.cursor - visibleCount + 1
	}
	endIdx := min(startIdx+visibleCount, len(lessons))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Width(m.width-4).
		Padding(0, 1)

	selectedStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7D56F4")).
		Width(m.width-4).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Width(m.width-4).
		Padding(0, 1)

	var b strings.Builder

	headerText := fmt.Sprintf("%1s %4s %s %8s %8s %18s",
		" ", "#", util.PadRight("Title", titleColumnWidth), "Video", "Length", "Progress")
	b.WriteString(headerStyle.Render(headerText) + "\n")
	b.WriteString(strings.Repeat("─", max(0, m.width-6)) + "\n")

	for i := startIdx; i < endIdx; i++ {
		itemText := formatLessonListItem(lessons[i])
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(itemText) + "\n")
		} else {
			b.WriteString(normalStyle.Render(itemText) + "\n")
		}
	}

	if len(lessons) > visibleCount {
		pagination := fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(lessons))
		b.WriteString(styles.CenteredText(m.width-4, pagination))
	}

	return styles.ContentBox(m.width-2, b.String(), 1)
}

// formatLessonListItem formats a single lesson row
func formatLessonListItem(entry *domain.LessonEntry) string {
	marker := " "
	if entry.Progress != nil && entry.Progress.Completed {
		marker = "✓"
	} else if entry.Progress != nil && entry.Progress.WatchTimeSeconds > 0 {
		marker = "•"
	}

	title := util.PadRight(util.TruncateString(entry.Lesson.Title, titleColumnWidth), titleColumnWidth)

	length := "-"
	if d := entry.Lesson.Video.ExpectedDurationSeconds; d != nil {
		length = util.FormatClock(float64(*d))
	}

	return fmt.Sprintf("%s %4d %s %8s %8s %18s",
		marker,
		entry.Lesson.OrderIndex,
		title,
		videoLabel(video.Resolve(entry.Lesson.Video.URL).Kind),
		length,
		progressLabel(entry))
}

func videoLabel(kind video.Kind) string {
	switch kind {
	case video.KindDirectFile:
		return "Player"
	case video.KindYouTube:
		return "YouTube"
	case video.KindVimeo:
		return "Vimeo"
	default:
		return "Link"
	}
}

// progressLabel shows the stored watch time, with a percentage when the length is known
func progressLabel(entry *domain.LessonEntry) string {
	p := entry.Progress
	switch {
	case p == nil || (p.WatchTimeSeconds == 0 && !p.Completed):
		return "Not started"
	case p.Completed:
		return "Completed"
	}

	watched := util.FormatClock(float64(p.WatchTimeSeconds))
	if d := entry.Lesson.Video.ExpectedDurationSeconds; d != nil && *d > 0 {
		return fmt.Sprintf("%s (%d%%)", watched, min(100, p.WatchTimeSeconds*100/(*d)))
	}
	return watched
}

// renderDetail shows the selected lesson's video and materials
func (m *LessonListModel) renderDetail() string {
	entry := m.getSelectedLesson()
	if entry == nil {
		return ""
	}

	src := video.Resolve(entry.Lesson.Video.URL)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(entry.Lesson.Title) + "\n")
	b.WriteString(fmt.Sprintf("Video: %s  %s\n", videoLabel(src.Kind), styles.Url.Render(entry.Lesson.Video.URL)))
	if !src.SupportsProgressTracking {
		b.WriteString(styles.Muted.Render("Progress is only tracked for videos played in the native player") + "\n")
	}
	if len(entry.Lesson.Materials) == 0 {
		b.WriteString(styles.Muted.Render("No materials"))
	}
	for _, material := range entry.Lesson.Materials {
		b.WriteString(fmt.Sprintf("• %s  %s\n", material.Title, styles.Url.Render(material.URL)))
	}

	return styles.ContentBox(m.width-2, strings.TrimRight(b.String(), "\n"), 1)
}
