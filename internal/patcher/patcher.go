package patcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sokinpui/repatch/model"
)

// Kind selects how a step locates and replaces text.
type Kind string

const (
	// KindSubstitute replaces every regexp match with the replacement text.
	KindSubstitute Kind = "substitute"
	// KindSpan finds the first regexp match, then literally replaces every
	// occurrence of the matched text.
	KindSpan Kind = "span"
	// KindLiteral replaces every occurrence of a literal string.
	KindLiteral Kind = "literal"
)

// validFlags are the RE2 flags a step may enable.
const validFlags = "imsU"

// ErrNoMatch is returned in strict mode when a step leaves the content unchanged.
var ErrNoMatch = errors.New("pattern did not match")

// Step is a single pattern/replacement pair.
type Step struct {
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Flags   string `yaml:"flags"`
	Replace string `yaml:"replace"`
	// Expand enables $1 / ${name} templates in Replace for substitute steps.
	Expand bool `yaml:"expand"`
}

// Options tune how Apply treats steps that do not match.
type Options struct {
	Strict bool
}

// Compile builds the regular expression of a regex-based step.
func (s Step) Compile() (*regexp.Regexp, error) {
	for _, f := range s.Flags {
		if !strings.ContainsRune(validFlags, f) {
			return nil, fmt.Errorf("unknown regexp flag %q", f)
		}
	}
	pattern := s.Pattern
	if s.Flags != "" {
		pattern = "(?" + s.Flags + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// Validate checks that a step can be executed.
func (s Step) Validate() error {
	if s.Pattern == "" {
		return errors.New("pattern is required")
	}
	switch s.Kind {
	case KindSubstitute, KindSpan:
		if _, err := s.Compile(); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	case KindLiteral:
		if s.Flags != "" {
			return errors.New("flags are not supported for literal steps")
		}
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}

// Label returns the step name, falling back to its position.
func (s Step) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", index+1)
}

// Apply runs the steps in order over content. Each step sees the output of
// the previous one. A step that does not match leaves the content as it is,
// unless opts.Strict is set, in which case the original content and
// ErrNoMatch are returned.
func Apply(content string, steps []Step, opts Options) (string, []model.StepReport, error) {
	out := content
	reports := make([]model.StepReport, 0, len(steps))

	for i, step := range steps {
		next, matches, err := applyStep(out, step)
		if err != nil {
			return content, reports, fmt.Errorf("%s: %w", step.Label(i), err)
		}
		reports = append(reports, model.StepReport{
			Name:    step.Label(i),
			Kind:    string(step.Kind),
			Matches: matches,
		})
		if matches == 0 && opts.Strict {
			return content, reports, fmt.Errorf("%s: %w", step.Label(i), ErrNoMatch)
		}
		out = next
	}
	return out, reports, nil
}

func applyStep(content string, step Step) (string, int, error) {
	switch step.Kind {
	case KindSubstitute:
		re, err := step.Compile()
		if err != nil {
			return content, 0, err
		}
		matches := len(re.FindAllStringIndex(content, -1))
		if matches == 0 {
			return content, 0, nil
		}
		if step.Expand {
			return re.ReplaceAllString(content, step.Replace), matches, nil
		}
		return re.ReplaceAllLiteralString(content, step.Replace), matches, nil

	case KindSpan:
		re, err := step.Compile()
		if err != nil {
			return content, 0, err
		}
		loc := re.FindStringIndex(content)
		// An empty span would splice the replacement between every rune.
		if loc == nil || loc[0] == loc[1] {
			return content, 0, nil
		}
		span := content[loc[0]:loc[1]]
		return strings.ReplaceAll(content, span, step.Replace), strings.Count(content, span), nil

	case KindLiteral:
		if step.Pattern == "" {
			return content, 0, nil
		}
		matches := strings.Count(content, step.Pattern)
		return strings.ReplaceAll(content, step.Pattern, step.Replace), matches, nil
	}
	return content, 0, fmt.Errorf("unknown step kind %q", step.Kind)
}
