package state

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sokinpui/repatch/internal/fs"
)

const (
	stateDirName  = ".repatch"
	stateFileName = "state.repatch"
	objectsDir    = "objects"
	// ActionModify is the only action repatch records: a file rewritten in place.
	ActionModify = "modify"
)

// writeText is swapped in tests to simulate write failures.
var writeText = fs.WriteText

// ErrHashMismatch means a file changed since repatch last touched it.
var ErrHashMismatch = errors.New("file content does not match recorded history")

// Operation represents a single file rewrite.
type Operation struct {
	Path       string
	Action     string
	BeforeHash string // SHA256 of the content before the rewrite
	AfterHash  string // SHA256 of the content after the rewrite
}

// HistoryEntry represents one complete run of the tool.
type HistoryEntry struct {
	Timestamp  int64
	Operations []Operation
}

// State represents the entire state file.
type State struct {
	History      []HistoryEntry
	CurrentIndex int
}

// Manager handles the lifecycle of the state file and the object store.
type Manager struct {
	statePath string
	state     *State
	StateDir  string
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New creates and loads a state manager. With an empty dir the state lives
// in .repatch at the git root, or the working directory outside a repository.
func New(dir string) (*Manager, error) {
	if dir == "" {
		rootDir, err := findGitRoot()
		if err != nil {
			rootDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("could not get current working directory: %w", err)
			}
		}
		dir = filepath.Join(rootDir, stateDirName)
	}

	if err := os.MkdirAll(filepath.Join(dir, objectsDir), 0o755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		statePath: filepath.Join(dir, stateFileName),
		StateDir:  dir,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func emptyState() *State {
	return &State{CurrentIndex: -1, History: []HistoryEntry{}}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = emptyState()
			return nil
		}
		return err
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	if len(blocks) == 0 || strings.TrimSpace(blocks[0]) == "" {
		m.state = emptyState()
		return nil
	}

	// First block is current index
	index, err := strconv.Atoi(strings.TrimSpace(blocks[0]))
	if err != nil {
		return fmt.Errorf("invalid state file: could not parse current index: %w", err)
	}
	m.state = &State{CurrentIndex: index, History: []HistoryEntry{}}

	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid state file: could not parse timestamp from '%s': %w", lines[0], err)
		}

		entry := HistoryEntry{Timestamp: ts}
		opLines := lines[1:]
		if len(opLines)%4 != 0 {
			return fmt.Errorf("invalid state file: incomplete operation record")
		}
		for i := 0; i < len(opLines); i += 4 {
			entry.Operations = append(entry.Operations, Operation{
				Action:     opLines[i],
				Path:       opLines[i+1],
				BeforeHash: opLines[i+2],
				AfterHash:  opLines[i+3],
			})
		}
		m.state.History = append(m.state.History, entry)
	}

	if m.state.CurrentIndex >= len(m.state.History) {
		m.state.CurrentIndex = len(m.state.History) - 1
	}
	return nil
}

func (m *Manager) save() error {
	blocks := []string{strconv.Itoa(m.state.CurrentIndex)}

	for _, entry := range m.state.History {
		var b strings.Builder
		b.WriteString(strconv.FormatInt(entry.Timestamp, 10))
		for _, op := range entry.Operations {
			b.WriteString("\n" + op.Action)
			b.WriteString("\n" + op.Path)
			b.WriteString("\n" + op.BeforeHash)
			b.WriteString("\n" + op.AfterHash)
		}
		blocks = append(blocks, b.String())
	}

	content := strings.Join(blocks, "\n\n") + "\n"
	if err := os.WriteFile(m.statePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	return nil
}

// Store saves content in the object store and returns its hash.
func (m *Manager) Store(content string) (string, error) {
	hash := fs.HashContent([]byte(content))
	path := m.objectPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("could not store object %s: %w", hash, err)
	}
	return hash, nil
}

// Object returns stored content by hash.
func (m *Manager) Object(hash string) (string, error) {
	data, err := os.ReadFile(m.objectPath(hash))
	if err != nil {
		return "", fmt.Errorf("missing object %s: %w", hash, err)
	}
	return string(data), nil
}

func (m *Manager) objectPath(hash string) string {
	return filepath.Join(m.StateDir, objectsDir, hash)
}

// Record stores the before and after content of a rewrite and returns the
// operation describing it.
func (m *Manager) Record(path, before, after string) (Operation, error) {
	beforeHash, err := m.Store(before)
	if err != nil {
		return Operation{}, err
	}
	afterHash, err := m.Store(after)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Path: path, Action: ActionModify, BeforeHash: beforeHash, AfterHash: afterHash}, nil
}

// Write adds a new set of operations to the history, dropping anything
// that could still have been redone.
func (m *Manager) Write(operations []Operation) error {
	if len(operations) == 0 {
		return nil
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}

	ops := make([]Operation, len(operations))
	copy(ops, operations)
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Path < ops[j].Path
	})

	m.state.History = append(m.state.History, HistoryEntry{
		Timestamp:  time.Now().UTC().Unix(),
		Operations: ops,
	})
	m.state.CurrentIndex++
	return m.save()
}

// PeekRevert returns the operations the next revert would undo.
func (m *Manager) PeekRevert() []Operation {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	return m.state.History[m.state.CurrentIndex].Operations
}

// PeekRedo returns the operations the next redo would re-apply.
func (m *Manager) PeekRedo() []Operation {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil
	}
	return m.state.History[next].Operations
}

// Revert restores the content the last run replaced. Every file must still
// hold the content that run wrote; otherwise nothing is touched.
func (m *Manager) Revert() ([]string, error) {
	ops := m.PeekRevert()
	if len(ops) == 0 {
		return nil, nil
	}
	restored, err := m.restore(ops, true)
	if err != nil {
		return nil, err
	}
	m.state.CurrentIndex--
	return restored, m.save()
}

// Redo re-applies the last reverted run.
func (m *Manager) Redo() ([]string, error) {
	ops := m.PeekRedo()
	if len(ops) == 0 {
		return nil, nil
	}
	restored, err := m.restore(ops, false)
	if err != nil {
		return nil, err
	}
	m.state.CurrentIndex++
	return restored, m.save()
}

// restore moves every file in ops from one recorded content to the other.
// If a write fails, files already rewritten are put back so the history
// index keeps describing the tree.
func (m *Manager) restore(ops []Operation, backwards bool) ([]string, error) {
	previous := make([]string, len(ops))
	contents := make([]string, len(ops))
	for i, op := range ops {
		want, target := op.AfterHash, op.BeforeHash
		if !backwards {
			want, target = op.BeforeHash, op.AfterHash
		}
		current, err := fs.GetFileSHA256(op.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Path, err)
		}
		if current != want {
			return nil, fmt.Errorf("%s: %w", op.Path, ErrHashMismatch)
		}
		if previous[i], err = m.Object(want); err != nil {
			return nil, err
		}
		if contents[i], err = m.Object(target); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(ops))
	for i, op := range ops {
		if err := writeText(op.Path, contents[i]); err != nil {
			err = fmt.Errorf("%s: %w", op.Path, err)
			for j := range paths {
				if rerr := writeText(ops[j].Path, previous[j]); rerr != nil {
					err = errors.Join(err, fmt.Errorf("rollback of %s: %w", ops[j].Path, rerr))
				}
			}
			return nil, err
		}
		paths = append(paths, op.Path)
	}
	return paths, nil
}
