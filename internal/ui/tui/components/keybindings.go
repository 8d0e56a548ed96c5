package components

import (
	"strings"

	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one entry of a footer bar
type KeyBinding struct {
	Key  string
	Desc string
}

var keyStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4")).
	Bold(true)

// Hint looks the action's primary key up in the context's binding table, so footers follow the tables.  An action
// the context does not bind yields a zero KeyBinding, which the bar skips.
func Hint(context kb.ContextName, action kb.Action, desc string) KeyBinding {
	key := kb.GetActionKey(action, kb.ContextBindings[context])
	if key == "" {
		return KeyBinding{}
	}
	return KeyBinding{Key: kb.DisplayKey(key), Desc: desc}
}

// KeyBindingsBar renders the bindings as a centred footer
func KeyBindingsBar(width int, bindings []KeyBinding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Key == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(b.Key)+": "+b.Desc)
	}
	return styles.CenteredText(width, styles.Info.Render(strings.Join(parts, " • ")))
}
