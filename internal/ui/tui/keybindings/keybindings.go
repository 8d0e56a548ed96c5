package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Lesson list actions
	ActionPlayLesson         Action = "play_lesson"
	ActionRefreshLessons     Action = "refresh_lessons"
	ActionCycleFilter        Action = "cycle_filter"
	ActionOpenInBrowser      Action = "open_in_browser"
	ActionOpenMaterials      Action = "open_materials"
	ActionToggleLessonDetail Action = "toggle_lesson_detail"

	// Player actions
	ActionTogglePlay       Action = "toggle_play"
	ActionSkipBack         Action = "skip_back"
	ActionSkipForward      Action = "skip_forward"
	ActionToggleMute       Action = "toggle_mute"
	ActionToggleFullscreen Action = "toggle_fullscreen"
	ActionCycleRate        Action = "cycle_rate"
	ActionVolumeUp         Action = "volume_up"
	ActionVolumeDown       Action = "volume_down"
	ActionGoToTime         Action = "go_to_time"
	ActionClosePlayer      Action = "close_player"

	// Search mode actions
	ActionEnableSearch   Action = "enable_search"
	ActionSearchComplete Action = "search_complete"

	// Text input actions
	ActionInputSubmit Action = "input_submit"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal     ContextName = "global"
	ContextLessonList ContextName = "lesson_list"
	ContextPlayer     ContextName = "player"
	ContextSearchMode ContextName = "search_mode"
	ContextTimeInput  ContextName = "time_input"
	ContextHelp       ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:     globalBindings,
	ContextLessonList: lessonListBindings,
	ContextPlayer:     playerBindings,
	ContextSearchMode: searchModeBindings,
	ContextTimeInput:  timeInputBindings,
	ContextHelp:       helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Go back/cancel current action",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// lessonListBindings contains key bindings specific to the lesson list view
var lessonListBindings = withNavigation([]Binding{
	{
		Action: ActionPlayLesson,
		KeyMap: KeyMap{
			Primary:   "enter",
			Secondary: "p",
			Help:      "Play lesson",
		},
	},
	{
		Action: ActionRefreshLessons,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Refresh lessons",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary:   "/",
			Secondary: "ctrl+f",
			Help:      "Search lessons",
		},
	},
	{
		Action: ActionCycleFilter,
		KeyMap: KeyMap{
			Primary: "f",
			Help:    "Cycle progress filter",
		},
	},
	{
		Action: ActionOpenInBrowser,
		KeyMap: KeyMap{
			Primary: "o",
			Help:    "Open lesson video in browser",
		},
	},
	{
		Action: ActionOpenMaterials,
		KeyMap: KeyMap{
			Primary: "m",
			Help:    "Open lesson materials",
		},
	},
	{
		Action: ActionToggleLessonDetail,
		KeyMap: KeyMap{
			Primary: "d",
			Help:    "Toggle lesson details",
		},
	},
})

// playerBindings are active only while a native player is mounted
var playerBindings = []Binding{
	{
		Action: ActionTogglePlay,
		KeyMap: KeyMap{
			Primary:   " ",
			Secondary: "k",
			Help:      "Play/pause",
		},
	},
	{
		Action: ActionSkipBack,
		KeyMap: KeyMap{
			Primary:   "left",
			Secondary: "j",
			Help:      "Seek back 10 seconds",
		},
	},
	{
		Action: ActionSkipForward,
		KeyMap: KeyMap{
			Primary:   "right",
			Secondary: "l",
			Help:      "Seek forward 10 seconds",
		},
	},
	{
		Action: ActionToggleMute,
		KeyMap: KeyMap{
			Primary: "m",
			Help:    "Toggle mute",
		},
	},
	{
		Action: ActionToggleFullscreen,
		KeyMap: KeyMap{
			Primary: "f",
			Help:    "Toggle fullscreen",
		},
	},
	{
		Action: ActionCycleRate,
		KeyMap: KeyMap{
			Primary: "s",
			Help:    "Cycle playback speed",
		},
	},
	{
		Action: ActionVolumeUp,
		KeyMap: KeyMap{
			Primary:   "+",
			Secondary: "up",
			Help:      "Volume up",
		},
	},
	{
		Action: ActionVolumeDown,
		KeyMap: KeyMap{
			Primary:   "-",
			Secondary: "down",
			Help:      "Volume down",
		},
	},
	{
		Action: ActionGoToTime,
		KeyMap: KeyMap{
			Primary: "g",
			Help:    "Go to time",
		},
	},
	{
		Action: ActionClosePlayer,
		KeyMap: KeyMap{
			Primary: "q",
			Help:    "Stop playback and return to lessons",
		},
	},
}

// searchModeBindings contains key bindings specific for when search mode is active
var searchModeBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "ctrl+f",
			Help:      "Exit search mode and remove the filter",
		},
	},
	{
		Action: ActionSearchComplete,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Apply the search filter and return control to the original view",
		},
	},
}

// timeInputBindings apply while the "go to time" input has focus.  Every other key goes to the input.
var timeInputBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Cancel",
		},
	},
	{
		Action: ActionInputSubmit,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Seek to the entered time (90, 1:30 or 1:02:03)",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetBindingByKey returns the action and help text for a given key
func GetBindingByKey(key string, bindings []Binding) (Action, string) {
	for _, binding := range bindings {
		if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
			return binding.Action, binding.KeyMap.Help
		}
	}
	return "", ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		action, _ := GetBindingByKey(keyMsg.String(), bindings)
		return action
	}
	return ""
}

// DisplayKey renders a key for help text.  The space key is otherwise invisible.
func DisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return DisplayKey(binding.KeyMap.Primary) + "/" + DisplayKey(binding.KeyMap.Secondary) + ": " + binding.KeyMap.Help
	}
	return DisplayKey(binding.KeyMap.Primary) + ": " + binding.KeyMap.Help
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
