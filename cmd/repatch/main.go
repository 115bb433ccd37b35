package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/sokinpui/repatch/cli"
	"github.com/sokinpui/repatch/internal/tui"
	"github.com/sokinpui/repatch/internal/ui"
	"github.com/sokinpui/repatch/repatch"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	app, err := repatch.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Modes that print to stdout, or run without a terminal, skip the TUI.
	if cfg.Plain || cfg.DryRun || cfg.List || cfg.Markdown || !isatty.IsTerminal(os.Stdout.Fd()) {
		app.SetVerbose(true)
		summary, err := app.Execute()
		if err != nil {
			var detailed *repatch.DetailedError
			if errors.As(err, &detailed) {
				fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
			}
			ui.Error("Error: %v", err)
			os.Exit(1)
		}
		ui.PrintSummary(os.Stdout, summary)
		return
	}

	model := tui.New(app)
	p := tea.NewProgram(model)
	app.SetProgressCallback(func(current, total int) {
		p.Send(tui.ProgressMsg{Current: current, Total: total})
	})
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		os.Exit(1)
	}
}
