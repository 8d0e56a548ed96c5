package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "Empty", in: "", want: nil},
		{name: "Simple", in: "--fs --volume=50", want: []string{"--fs", "--volume=50"}},
		{name: "ExtraWhitespace", in: "  --fs \t --mute  ", want: []string{"--fs", "--mute"}},
		{name: "DoubleQuotes", in: `--title="Lesson one" --fs`, want: []string{"--title=Lesson one", "--fs"}},
		{name: "SingleQuotes", in: `--sub-file='/tmp/my subs.srt'`, want: []string{"--sub-file=/tmp/my subs.srt"}},
		{name: "NestedOtherQuote", in: `--title="it's fine"`, want: []string{"--title=it's fine"}},
		{name: "EmptyQuoted", in: `--profile ""`, want: []string{"--profile", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.in))
		})
	}
}
