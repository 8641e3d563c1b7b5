package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
	Bold   = "\033[1m"
)

// Out is where the Print helpers write. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

// isTTY checks if Out is a terminal
func isTTY() bool {
	f, ok := Out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// colorize applies color only if output is a TTY
func colorize(color, msg string) string {
	if !isTTY() {
		return msg
	}
	return color + msg + Reset
}

// OK formats a success message with [OK] prefix in green
func OK(msg string) string {
	return fmt.Sprintf("%s %s", colorize(Green, "[OK]"), msg)
}

// Error formats an error message with [ERROR] prefix in red
func Error(msg string) string {
	return fmt.Sprintf("%s %s", colorize(Red, "[ERROR]"), msg)
}

// Warn formats a warning message with [WARN] prefix in yellow
func Warn(msg string) string {
	return fmt.Sprintf("%s %s", colorize(Yellow, "[WARN]"), msg)
}

// Info formats an info message with [INFO] prefix in blue
func Info(msg string) string {
	return fmt.Sprintf("%s %s", colorize(Blue, "[INFO]"), msg)
}

// Command formats a rendered shell command line
func Command(line string) string {
	return fmt.Sprintf("%s %s", colorize(Gray, "$"), colorize(Bold, line))
}

// TitleWithDesc formats a section title with description
func TitleWithDesc(title, desc string) string {
	prefix := colorize(Bold+Cyan, fmt.Sprintf("[%s]", title))
	if desc == "" {
		return prefix
	}
	return fmt.Sprintf("%s %s", prefix, desc)
}

// Done formats a completion message with [DONE] prefix in green
func Done(msg string) string {
	return fmt.Sprintf("%s %s", colorize(Green+Bold, "[DONE]"), msg)
}

func PrintOK(msg string)    { fmt.Fprintln(Out, OK(msg)) }
func PrintError(msg string) { fmt.Fprintln(Out, Error(msg)) }
func PrintWarn(msg string)  { fmt.Fprintln(Out, Warn(msg)) }
func PrintInfo(msg string)  { fmt.Fprintln(Out, Info(msg)) }
func PrintDone(msg string)  { fmt.Fprintln(Out, Done(msg)) }

// PrintTitle prints a section title
func PrintTitle(title, desc string) {
	fmt.Fprintln(Out, TitleWithDesc(title, desc))
}

// Indent returns the message with indentation
func Indent(msg string) string {
	return "     " + msg
}

// PrintIndent prints an indented message
func PrintIndent(msg string) {
	fmt.Fprintln(Out, Indent(msg))
}

// PrintTable writes rows as aligned columns under a header
func PrintTable(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}
