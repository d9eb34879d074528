package report

import "github.com/fatih/color"

var (
	failureStyle = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen)
)

// StyledSummary returns the summary colored for a terminal. color disables
// itself when the output is not a TTY or NO_COLOR is set.
func StyledSummary(out Output) string {
	return StyleSummary(out.Summary, out.Failed())
}

// StyleSummary colors an already rendered summary line.
func StyleSummary(summary string, failed bool) string {
	if failed {
		return failureStyle.Sprint(summary)
	}
	return successStyle.Sprint(summary)
}
