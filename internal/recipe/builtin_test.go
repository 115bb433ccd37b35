package recipe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/repatch/internal/patcher"
)

func runRecipe(t *testing.T, r Recipe, content string) (string, []int) {
	t.Helper()
	steps, err := patcher.AdaptSteps(r.Steps, r.EOL, content)
	require.NoError(t, err)
	out, reports, err := patcher.Apply(content, steps, patcher.Options{})
	require.NoError(t, err)

	matches := make([]int, len(reports))
	for i, rep := range reports {
		matches[i] = rep.Matches
	}
	return out, matches
}

func TestBuiltinPlannerRecipe(t *testing.T) {
	legacy, err := os.ReadFile(filepath.Join("testdata", "planner_page.dart"))
	require.NoError(t, err)
	src := string(legacy)

	r, err := Builtin(DefaultBuiltin)
	require.NoError(t, err)
	assert.Equal(t, "lib/features/planner/presentation/planner_page.dart", r.Target)
	assert.Equal(t, "✅ Planner page updated successfully!", r.Message)
	require.Len(t, r.Steps, 2)

	start := strings.Index(src, "@override\n  Widget build(BuildContext context) {\n    final days")
	end := strings.Index(src, "\nString _dayId")
	require.True(t, start > 0 && end > start, "fixture layout changed")
	want := src[:start] + r.Steps[0].Replace + "\n\n" + r.Steps[1].Replace + src[end:]

	t.Run("lf", func(t *testing.T) {
		got, matches := runRecipe(t, r, src)
		assert.Equal(t, []int{1, 1}, matches)
		assert.Equal(t, want, got)
		assert.Contains(t, got, "return ListView.builder(")
		assert.NotContains(t, got, "_DayColumn")
	})

	t.Run("crlf", func(t *testing.T) {
		got, matches := runRecipe(t, r, patcher.ToCRLF(src))
		assert.Equal(t, []int{1, 1}, matches)
		assert.Equal(t, patcher.ToCRLF(want), got)
		assert.Equal(t, strings.Count(got, "\n"), strings.Count(got, "\r\n"), "no bare line feeds expected")
	})

	t.Run("lf with a stray crlf line", func(t *testing.T) {
		const header = "// header\r\n"
		got, matches := runRecipe(t, r, header+src)
		assert.Equal(t, []int{1, 1}, matches)
		assert.Equal(t, header+want, got)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		once, _ := runRecipe(t, r, src)
		twice, matches := runRecipe(t, r, once)
		assert.Equal(t, []int{0, 0}, matches)
		assert.Equal(t, once, twice)
	})

	t.Run("unrelated file is untouched", func(t *testing.T) {
		const other = "void main() {}\n"
		got, matches := runRecipe(t, r, other)
		assert.Equal(t, []int{0, 0}, matches)
		assert.Equal(t, other, got)
	})
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := Builtin("does-not-exist")
	require.ErrorIs(t, err, ErrUnknownBuiltin)
}

func TestBuiltinNames(t *testing.T) {
	assert.Contains(t, BuiltinNames(), DefaultBuiltin)
}
