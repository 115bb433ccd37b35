package recipe

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// DefaultBuiltin is run when no recipe is given on the command line.
const DefaultBuiltin = "planner-vertical-layout"

// ErrUnknownBuiltin is returned for a name with no embedded recipe.
var ErrUnknownBuiltin = errors.New("unknown builtin recipe")

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the embedded recipe with the given name.
func Builtin(name string) (Recipe, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return Recipe{}, fmt.Errorf("%w: %s", ErrUnknownBuiltin, name)
	}
	recipes, err := Parse(data)
	if err != nil {
		return Recipe{}, fmt.Errorf("builtin %s: %w", name, err)
	}
	return recipes[0], nil
}

// BuiltinNames lists the embedded recipes in alphabetical order.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
