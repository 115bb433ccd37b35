package repatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/sokinpui/repatch/cli"
	"github.com/sokinpui/repatch/internal/fs"
	"github.com/sokinpui/repatch/internal/patcher"
	"github.com/sokinpui/repatch/internal/recipe"
	"github.com/sokinpui/repatch/internal/source"
	"github.com/sokinpui/repatch/internal/state"
	"github.com/sokinpui/repatch/internal/ui"
	"github.com/sokinpui/repatch/model"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	stateManager     *state.Manager
	pathResolver     *fs.PathResolver
	sourceProvider   *source.SourceProvider
	progressCallback ProgressUpdate
	out              io.Writer
	verbose          bool
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	a := &App{
		cfg:            cfg,
		pathResolver:   fs.NewPathResolver(cfg.LookupDirs),
		sourceProvider: source.New(),
		out:            os.Stdout,
	}

	if a.needsHistory() {
		stateManager, err := state.New(cfg.StateDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize state manager: %w", err)
		}
		a.stateManager = stateManager
	}
	return a, nil
}

func (a *App) needsHistory() bool {
	if a.cfg.Revert || a.cfg.Redo {
		return true
	}
	return !a.cfg.DryRun && !a.cfg.List && !a.cfg.NoHistory
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// SetVerbose logs each resolved target and written file to stderr. Leave it
// off while a TUI owns the terminal.
func (a *App) SetVerbose(v bool) {
	a.verbose = v
}

// SetOutput redirects dry-run diffs, which go to stdout by default.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.List:
		return model.Summary{Message: "Built-in recipes:", Messages: recipe.BuiltinNames()}, nil
	case a.cfg.Revert:
		return a.revertLastOperation()
	case a.cfg.Redo:
		return a.redoLastOperation()
	default:
		return a.processContent()
	}
}

// processContent gathers recipes, plans every rewrite and then writes them.
func (a *App) processContent() (model.Summary, error) {
	recipes, err := a.loadRecipes()
	if err != nil {
		return model.Summary{}, err
	}
	if len(recipes) == 0 {
		return model.Summary{Message: "No recipes found. Nothing to do."}, nil
	}
	return a.ApplyRecipes(recipes)
}

// loadRecipes picks the recipe source: files, markdown, or a built-in.
func (a *App) loadRecipes() ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe

	for _, path := range a.cfg.Recipes {
		loaded, err := recipe.Load(path)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, loaded...)
	}

	if a.cfg.Markdown {
		content, err := a.sourceProvider.GetContent()
		if err != nil {
			return nil, err
		}
		if content != "" {
			parsed, err := recipe.ParseMarkdown(content)
			if err != nil {
				return nil, err
			}
			recipes = append(recipes, parsed...)
		}
	}

	if len(a.cfg.Recipes) > 0 || a.cfg.Markdown {
		return recipes, nil
	}

	name := a.cfg.Builtin
	if name == "" {
		name = recipe.DefaultBuiltin
	}
	r, err := recipe.Builtin(name)
	if err != nil {
		return nil, err
	}
	return []recipe.Recipe{r}, nil
}

// Plan runs the recipes in memory and returns one change per target file.
// Recipes sharing a target see each other's output, in order.
func (a *App) Plan(recipes []recipe.Recipe) ([]model.FileChange, error) {
	var changes []model.FileChange
	byPath := map[string]int{}

	for _, r := range recipes {
		path := a.pathResolver.ResolveExisting(r.Target)
		if path == "" {
			return nil, fmt.Errorf("recipe %q: error opening file: %s: %w", r.Name, r.Target, os.ErrNotExist)
		}
		if a.verbose {
			ui.Info("Recipe %s", r.Name)
			ui.Path("%s", a.relativize(path))
		}

		idx, seen := byPath[path]
		if !seen {
			content, err := fs.ReadText(path)
			if err != nil {
				return nil, fmt.Errorf("recipe %q: error reading file: %w", r.Name, err)
			}
			idx = len(changes)
			byPath[path] = idx
			changes = append(changes, model.FileChange{Path: path, Before: content, After: content})
		}
		change := &changes[idx]

		steps, err := patcher.AdaptSteps(r.Steps, r.EOL, change.After)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
		}
		after, reports, err := patcher.Apply(change.After, steps, patcher.Options{Strict: a.cfg.Strict})
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
		}

		change.After = after
		change.Steps = append(change.Steps, reports...)
		if change.Recipe == "" {
			change.Recipe = r.Name
			change.Message = r.Message
		} else {
			change.Recipe += ", " + r.Name
			change.Message += "\n" + r.Message
		}
	}
	return changes, nil
}

// ApplyRecipes plans the recipes and writes the result, or prints the
// diff in dry-run mode. Nothing is written if any recipe fails to plan.
func (a *App) ApplyRecipes(recipes []recipe.Recipe) (model.Summary, error) {
	changes, err := a.Plan(recipes)
	if err != nil {
		return model.Summary{}, err
	}

	summary := model.Summary{}
	for _, change := range changes {
		for _, name := range change.Unmatched() {
			summary.Unmatched = append(summary.Unmatched, a.relativize(change.Path)+": "+name)
		}
	}

	if a.cfg.DryRun {
		for _, change := range changes {
			if !change.Changed() {
				summary.Unchanged = append(summary.Unchanged, change.Path)
				continue
			}
			if err := ui.PrintDiff(a.out, a.relativize(change.Path), change.Before, change.After); err != nil {
				return model.Summary{}, fmt.Errorf("failed to render diff: %w", err)
			}
			summary.Patched = append(summary.Patched, change.Path)
		}
		summary.Message = "Dry run: no files were written."
		a.relativizeSummaryPaths(&summary)
		return summary, nil
	}

	total := len(changes)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	var ops []state.Operation
	for i, change := range changes {
		if !change.Changed() {
			summary.Unchanged = append(summary.Unchanged, change.Path)
		} else {
			if err := fs.WriteText(change.Path, change.After); err != nil {
				err = fmt.Errorf("error writing to file: %w", err)
				// Files written so far must stay revertable.
				if herr := a.saveHistory(ops); herr != nil {
					err = errors.Join(err, herr)
				}
				return model.Summary{}, err
			}
			summary.Patched = append(summary.Patched, change.Path)
			if a.verbose {
				ui.Success("Wrote %s", a.relativize(change.Path))
			}

			if a.stateManager != nil && !a.cfg.NoHistory {
				op, err := a.stateManager.Record(change.Path, change.Before, change.After)
				if err != nil {
					summary.Warnings = append(summary.Warnings,
						fmt.Sprintf("could not record history for %s: %v", a.relativize(change.Path), err))
				} else {
					ops = append(ops, op)
				}
			}
		}
		// The confirmation is printed whether or not any step matched.
		summary.Messages = append(summary.Messages, strings.Split(change.Message, "\n")...)

		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	if err := a.saveHistory(ops); err != nil {
		summary.Warnings = append(summary.Warnings, err.Error())
	}

	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

func (a *App) saveHistory(ops []state.Operation) error {
	if a.stateManager == nil || len(ops) == 0 {
		return nil
	}
	if err := a.stateManager.Write(ops); err != nil {
		return fmt.Errorf("could not save history: %w", err)
	}
	return nil
}

// revertLastOperation restores the files the last run rewrote.
func (a *App) revertLastOperation() (model.Summary, error) {
	restored, err := a.stateManager.Revert()
	if err != nil {
		return model.Summary{}, fmt.Errorf("revert failed: %w", err)
	}
	if len(restored) == 0 {
		return model.Summary{Message: "No operation to revert."}, nil
	}
	summary := model.Summary{Patched: restored, Message: "Reverted last operation."}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// redoLastOperation re-applies the last reverted run.
func (a *App) redoLastOperation() (model.Summary, error) {
	restored, err := a.stateManager.Redo()
	if err != nil {
		return model.Summary{}, fmt.Errorf("redo failed: %w", err)
	}
	if len(restored) == 0 {
		return model.Summary{Message: "No operation to redo."}, nil
	}
	summary := model.Summary{Patched: restored, Message: "Redid last reverted operation."}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

func (a *App) relativize(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	makeRelative := func(absPaths []string) []string {
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			relPaths[i] = a.relativize(p)
		}
		return relPaths
	}

	summary.Patched = makeRelative(summary.Patched)
	summary.Unchanged = makeRelative(summary.Unchanged)
}
