package repatch

import (
	"fmt"

	"github.com/sokinpui/repatch/cli"
	"github.com/sokinpui/repatch/internal/recipe"
)

// Config for using repatch as a library.
type Config struct {
	// Directories to resolve target paths in (default: current directory).
	LookupDirs []string
	// Fail without writing when any step does not match.
	Strict bool
	// Compute changes without writing them.
	DryRun bool
	// Directory for undo history; empty means .repatch at the git root.
	StateDir string
	// Skip recording the run for revert.
	NoHistory bool
}

// Apply parses a markdown recipe document and applies it to the files it
// names. It returns a summary of the operations in a map.
func Apply(content string, config Config) (map[string][]string, error) {
	recipes, err := recipe.ParseMarkdown(content)
	if err != nil {
		return nil, err
	}

	app, err := New(&cli.Config{
		LookupDirs: config.LookupDirs,
		Strict:     config.Strict,
		DryRun:     config.DryRun,
		StateDir:   config.StateDir,
		NoHistory:  config.NoHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repatch app: %w", err)
	}

	summary, err := app.ApplyRecipes(recipes)
	if err != nil {
		return nil, err
	}

	return map[string][]string{
		"Patched":   summary.Patched,
		"Unchanged": summary.Unchanged,
		"Unmatched": summary.Unmatched,
	}, nil
}

// Parse plans the markdown recipes in content and returns a map of file
// paths to their new content, without writing anything.
func (a *App) Parse(content string) (map[string]string, error) {
	recipes, err := recipe.ParseMarkdown(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	changes, err := a.Plan(recipes)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(changes))
	for _, change := range changes {
		result[change.Path] = change.After
	}
	return result, nil
}
