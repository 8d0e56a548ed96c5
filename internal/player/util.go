package player

import "strings"

// ParseArgs splits a string of player arguments on whitespace.  Single or double quotes group words; a quote of the
// other kind inside a quoted section is kept literally.
func ParseArgs(argsString string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	pending := false

	for _, r := range argsString {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			pending = true
		case r == ' ' || r == '\t':
			if pending {
				args = append(args, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}

	if pending {
		args = append(args, current.String())
	}

	return args
}
