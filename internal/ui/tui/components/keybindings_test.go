package components

import (
	"testing"

	kb "github.com/PizzaHomicide/lectern/internal/ui/tui/keybindings"
	"github.com/stretchr/testify/assert"
)

func TestHint(t *testing.T) {
	assert.Equal(t, KeyBinding{Key: "space", Desc: "play/pause"}, Hint(kb.ContextPlayer, kb.ActionTogglePlay, "play/pause"))
	assert.Equal(t, KeyBinding{Key: "enter", Desc: "play"}, Hint(kb.ContextLessonList, kb.ActionPlayLesson, "play"))
	assert.Equal(t, KeyBinding{}, Hint(kb.ContextPlayer, kb.ActionRefreshLessons, "refresh"))
}

func TestKeyBindingsBarSkipsUnboundHints(t *testing.T) {
	bar := KeyBindingsBar(80, []KeyBinding{
		{Key: "q", Desc: "close"},
		{},
		{Key: "g", Desc: "go to"},
	})
	assert.Contains(t, bar, "close")
	assert.Contains(t, bar, "go to")
	assert.Equal(t, 1, countSeparators(bar))
}

func countSeparators(s string) int {
	n := 0
	for _, r := range s {
		if r == '•' {
			n++
		}
	}
	return n
}
