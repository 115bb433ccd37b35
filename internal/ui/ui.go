package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sokinpui/repatch/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	AddColor     = color.New(color.FgGreen)
	DelColor     = color.New(color.FgRed)
	HunkColor    = color.New(color.FgMagenta)
)

// Output receives log lines. Tests may swap it for a buffer.
var Output io.Writer = os.Stderr

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Output, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Output, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Output, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Output, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Output, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Output, "  "+format+"\n", a...)
}

// --- Summaries ---

// PrintSummary writes the result of a run to w.
func PrintSummary(w io.Writer, s model.Summary) {
	if s.Message != "" {
		HeaderColor.Fprintln(w, s.Message)
	}

	if len(s.Patched) > 0 {
		SuccessColor.Fprintf(w, "Patched %d file(s):\n", len(s.Patched))
		for _, f := range s.Patched {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(s.Unchanged) > 0 {
		InfoColor.Fprintf(w, "Left %d file(s) unchanged:\n", len(s.Unchanged))
		for _, f := range s.Unchanged {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(s.Unmatched) > 0 {
		WarningColor.Fprintf(w, "%d step(s) did not match:\n", len(s.Unmatched))
		for _, f := range s.Unmatched {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	for _, warning := range s.Warnings {
		WarningColor.Fprintf(w, "Warning: %s\n", warning)
	}

	for _, msg := range s.Messages {
		fmt.Fprintln(w, msg)
	}
}

// --- Diff preview ---

// UnifiedDiff renders the change from before to after as a unified diff.
func UnifiedDiff(path, before, after string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// PrintDiff writes a colored unified diff to w.
func PrintDiff(w io.Writer, path, before, after string) error {
	diff, err := UnifiedDiff(path, before, after)
	if err != nil {
		return err
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			HeaderColor.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			HunkColor.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			AddColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			DelColor.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
	return nil
}
