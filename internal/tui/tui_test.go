package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/repatch/model"
)

type fakeExecutor struct {
	summary model.Summary
	err     error
}

func (f fakeExecutor) Execute() (model.Summary, error) {
	return f.summary, f.err
}

func TestModelShowsSummary(t *testing.T) {
	m := New(fakeExecutor{summary: model.Summary{
		Patched:  []string{"lib/page.dart"},
		Messages: []string{"✅ Planner page updated successfully!"},
	}})

	next, cmd := m.Update(m.runApp())
	require.NotNil(t, cmd, "summary should quit the program")

	final := next.(Model)
	assert.NoError(t, final.Err())
	view := final.View()
	assert.Contains(t, view, "lib/page.dart")
	assert.Contains(t, view, "✅ Planner page updated successfully!")
}

func TestModelShowsWarnings(t *testing.T) {
	m := New(fakeExecutor{summary: model.Summary{
		Warnings: []string{"could not save history: disk full"},
	}})
	next, _ := m.Update(m.runApp())
	view := next.(Model).View()
	assert.Contains(t, view, "could not save history: disk full")
	assert.NotContains(t, view, "Nothing to do.")
}

func TestModelShowsError(t *testing.T) {
	m := New(fakeExecutor{err: errors.New("error opening file")})

	next, _ := m.Update(m.runApp())
	final := next.(Model)
	require.Error(t, final.Err())
	assert.Contains(t, final.View(), "error opening file")
}

func TestModelProgress(t *testing.T) {
	m := New(fakeExecutor{})
	next, _ := m.Update(ProgressMsg{Current: 1, Total: 2})
	assert.Contains(t, next.(Model).View(), "[1/2]")
}

func TestModelNothingToDo(t *testing.T) {
	m := New(fakeExecutor{})
	next, _ := m.Update(m.runApp())
	assert.Contains(t, next.(Model).View(), "Nothing to do.")
}
