package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

var (
	successMark = color.New(color.FgGreen).Sprint("✓")
	errorMark   = color.New(color.FgRed).Sprint("✗")
	warningMark = color.New(color.FgYellow).Sprint("⚠")

	highlight = color.New(color.FgCyan).SprintFunc()
	muted     = color.New(color.Faint).SprintFunc()
)

func printSuccess(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, successMark+" "+fmt.Sprintf(format, a...))
}

func printWarning(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, warningMark+" "+fmt.Sprintf(format, a...))
}

// PrintError writes err the way every command reports failures.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, errorMark+" "+describeError(err))
}

// startSpinner shows message with a spinner on w while a request is in
// flight. The returned func stops it. Nothing is drawn when w is not a
// terminal.
func startSpinner(w io.Writer, message string) func() {
	f, ok := w.(*os.File)
	if !ok {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()

	return s.Stop
}
