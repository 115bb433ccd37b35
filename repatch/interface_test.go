package repatch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/repatch/cli"
	"github.com/sokinpui/repatch/repatch"
)

const greetingDoc = "Update `main.go`\n\n" +
	"```regex name=greeting\n" +
	"fmt\\.Println\\(\"hi\"\\)\n" +
	"```\n\n" +
	"```replace\n" +
	"fmt.Println(\"hello\")\n" +
	"```\n"

func TestApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("func main() {\n\tfmt.Println(\"hi\")\n}\n"), 0o644))

	result, err := repatch.Apply(greetingDoc, repatch.Config{LookupDirs: []string{dir}, NoHistory: true})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, result["Patched"])
	assert.Empty(t, result["Unmatched"])
	assert.Equal(t, "func main() {\n\tfmt.Println(\"hello\")\n}\n", readFile(t, path))
}

func TestApplyInvalidMarkdown(t *testing.T) {
	_, err := repatch.Apply("```replace\nx\n```\n", repatch.Config{NoHistory: true})
	require.Error(t, err)
}

func TestAppParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("fmt.Println(\"hi\")"), 0o644))

	app := newApp(t, &cli.Config{LookupDirs: []string{dir}, DryRun: true})
	changes, err := app.Parse(greetingDoc)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{path: "fmt.Println(\"hello\")"}, changes)
	assert.Equal(t, "fmt.Println(\"hi\")", readFile(t, path), "Parse must not write")
}
