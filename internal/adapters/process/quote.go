package process

import "strings"

// Quote joins args for display, double-quoting the ones that contain spaces.
func Quote(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = QuoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

// QuoteArg double-quotes arg if it contains a space.
func QuoteArg(arg string) string {
	if strings.Contains(arg, " ") {
		return `"` + arg + `"`
	}
	return arg
}
