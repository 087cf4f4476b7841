package surreal

import "strings"

// buildCommand runs the database through a login shell so the user's PATH
// from their profile applies to apps launched from Finder.
func buildCommand(args []string) []string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return []string{"zsh", "-l", "-c", "exec " + strings.Join(quoted, " ")}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
