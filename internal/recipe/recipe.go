package recipe

import (
	"errors"
	"fmt"

	"github.com/sokinpui/repatch/internal/patcher"
)

// DefaultMessage is printed after a recipe without a message of its own runs.
const DefaultMessage = "✅ File updated successfully!"

// Recipe is a named set of steps applied to one target file.
type Recipe struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Target      string         `yaml:"target"`
	EOL         string         `yaml:"eol"`
	Message     string         `yaml:"message"`
	Steps       []patcher.Step `yaml:"steps"`
}

// Validate checks that the recipe is complete and that every step compiles.
func (r *Recipe) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("recipe %q: target is required", r.Name)
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("recipe %q: at least one step is required", r.Name)
	}
	switch r.EOL {
	case "", patcher.EOLAuto, patcher.EOLLF, patcher.EOLCRLF, patcher.EOLKeep:
	default:
		return fmt.Errorf("recipe %q: unknown eol mode %q", r.Name, r.EOL)
	}

	var errs []error
	for i, step := range r.Steps {
		if err := step.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("recipe %q: %s: %w", r.Name, step.Label(i), err))
		}
	}
	return errors.Join(errs...)
}

// ApplyDefaults fills unset optional fields.
func (r *Recipe) ApplyDefaults() {
	if r.Name == "" {
		r.Name = r.Target
	}
	if r.EOL == "" {
		r.EOL = patcher.EOLAuto
	}
	if r.Message == "" {
		r.Message = DefaultMessage
	}
	for i := range r.Steps {
		if r.Steps[i].Kind == "" {
			r.Steps[i].Kind = patcher.KindSubstitute
		}
	}
}
