package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of a test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})
}

func TestParseDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Recipes)
	assert.Empty(t, cfg.Builtin)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.DryRun)
}

func TestParseFlags(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Parse([]string{"-f", "a.yaml", "--recipe", "b.yaml", "-n", "--strict", "-l", "src", "--state-dir", "/tmp/s"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Recipes)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"src"}, cfg.LookupDirs)
	assert.Equal(t, "/tmp/s", cfg.StateDir)
}

func TestParseLayering(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(ConfigFileName, []byte("strict: true\nstate_dir: from-file\nbuiltin: planner-vertical-layout\n"), 0o644))
	t.Setenv("REPATCH_STATE_DIR", "from-env")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, cfg.Strict, "file value")
	assert.Equal(t, "from-env", cfg.StateDir, "env overrides file")
	assert.Equal(t, "planner-vertical-layout", cfg.Builtin)

	cfg, err = Parse([]string{"--state-dir", "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.StateDir, "flag overrides env")
}

func TestEnvListsSplitLikeFlags(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REPATCH_LOOKUP_DIR", "a, b")
	t.Setenv("REPATCH_RECIPE", "one.yaml,two.yaml")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.LookupDirs)
	assert.Equal(t, []string{"one.yaml", "two.yaml"}, cfg.Recipes)

	cfg, err = Parse([]string{"-l", "c,d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, cfg.LookupDirs, "flag overrides env")
}

func TestParseValidation(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "revert and redo", args: []string{"-r", "-R"}, wantErr: "mutually exclusive"},
		{name: "dry run revert", args: []string{"-r", "-n"}, wantErr: "--dry-run"},
		{name: "builtin and recipe", args: []string{"-B", "x", "-f", "a.yaml"}, wantErr: "--builtin"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
