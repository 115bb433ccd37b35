package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/repatch/internal/patcher"
)

func TestRecipeValidate(t *testing.T) {
	valid := patcher.Step{Kind: patcher.KindLiteral, Pattern: "a"}

	tests := []struct {
		name    string
		recipe  Recipe
		wantErr string
	}{
		{name: "valid", recipe: Recipe{Name: "ok", Target: "a.txt", Steps: []patcher.Step{valid}}},
		{name: "missing target", recipe: Recipe{Name: "r", Steps: []patcher.Step{valid}}, wantErr: "target is required"},
		{name: "no steps", recipe: Recipe{Name: "r", Target: "a.txt"}, wantErr: "at least one step"},
		{name: "bad eol", recipe: Recipe{Name: "r", Target: "a.txt", EOL: "cr", Steps: []patcher.Step{valid}}, wantErr: "unknown eol mode"},
		{
			name: "bad step",
			recipe: Recipe{Name: "r", Target: "a.txt", Steps: []patcher.Step{
				{Name: "broken", Kind: patcher.KindSubstitute, Pattern: "("},
			}},
			wantErr: "broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recipe.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRecipeApplyDefaults(t *testing.T) {
	r := Recipe{Target: "a.txt", Steps: []patcher.Step{{Pattern: "x"}}}
	r.ApplyDefaults()

	assert.Equal(t, "a.txt", r.Name)
	assert.Equal(t, patcher.EOLAuto, r.EOL)
	assert.Equal(t, DefaultMessage, r.Message)
	assert.Equal(t, patcher.KindSubstitute, r.Steps[0].Kind)
}

func TestParse(t *testing.T) {
	t.Run("single recipe", func(t *testing.T) {
		recipes, err := Parse([]byte(`
name: bump
target: VERSION
message: bumped
steps:
  - kind: substitute
    pattern: '\d+\.\d+'
    replace: "2.0"
`))
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "bump", recipes[0].Name)
		assert.Equal(t, "bumped", recipes[0].Message)
		assert.Equal(t, `\d+\.\d+`, recipes[0].Steps[0].Pattern)
	})

	t.Run("recipe list", func(t *testing.T) {
		recipes, err := Parse([]byte(`
recipes:
  - target: a.go
    steps:
      - {kind: literal, pattern: foo, replace: bar}
  - target: b.go
    eol: keep
    steps:
      - {kind: span, pattern: 'x+', replace: y}
`))
		require.NoError(t, err)
		require.Len(t, recipes, 2)
		assert.Equal(t, "a.go", recipes[0].Name)
		assert.Equal(t, patcher.EOLKeep, recipes[1].EOL)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte("target: a\nsteps: [{pattern: a}]\npath: b\n"))
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse([]byte(""))
		require.Error(t, err)
	})

	t.Run("nothing defined", func(t *testing.T) {
		_, err := Parse([]byte("description: nothing\n"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: a.txt\nsteps:\n  - {kind: literal, pattern: a, replace: b}\n"), 0o644))

	recipes, err := Load(path)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "a.txt", recipes[0].Target)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
