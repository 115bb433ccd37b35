package model

// StepReport records how a single recipe step went.
type StepReport struct {
	Name    string
	Kind    string
	Matches int
}

// Matched reports whether the step changed anything.
func (s StepReport) Matched() bool {
	return s.Matches > 0
}

// FileChange represents a single planned rewrite of a file.
type FileChange struct {
	Path    string
	Recipe  string
	Message string
	Before  string
	After   string
	Steps   []StepReport
}

// Changed reports whether applying the recipe altered the content.
func (c FileChange) Changed() bool {
	return c.Before != c.After
}

// Unmatched returns the names of the steps that were no-ops.
func (c FileChange) Unmatched() []string {
	var names []string
	for _, s := range c.Steps {
		if !s.Matched() {
			names = append(names, s.Name)
		}
	}
	return names
}

// Summary holds the results of an operation for display.
type Summary struct {
	Patched   []string
	Unchanged []string
	// Unmatched lists "path: step" entries for steps that did not match.
	Unmatched []string
	// Warnings are problems that did not stop the run, such as history failures.
	Warnings []string
	// Messages are the confirmation lines of the recipes that ran.
	Messages []string
	Message  string
}
