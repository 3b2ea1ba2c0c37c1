package audio_test

import (
	"context"
	"os"
	"sync"
)

// mockCommandRunner records invocations and delegates to outputFunc.
type mockCommandRunner struct {
	mu         sync.Mutex
	calls      [][]string
	outputFunc func(ctx context.Context, name string, args []string) ([]byte, error)
}

func (m *mockCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()
	if m.outputFunc == nil {
		return nil, nil
	}
	return m.outputFunc(ctx, name, args)
}

func (m *mockCommandRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

type mockTempDirCreator struct {
	dir string
	err error
}

func (m *mockTempDirCreator) MkdirTemp(_, _ string) (string, error) {
	return m.dir, m.err
}

type mockFileRemover struct {
	mu         sync.Mutex
	removed    []string
	removedAll []string
}

func (m *mockFileRemover) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	return nil
}

func (m *mockFileRemover) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removedAll = append(m.removedAll, path)
	return nil
}

// mockFileMover lists a real directory and fails renames with renameErr.
type mockFileMover struct {
	renameErr error
	renamed   [][2]string
}

func (m *mockFileMover) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

func (m *mockFileMover) Rename(oldpath, newpath string) error {
	m.renamed = append(m.renamed, [2]string{oldpath, newpath})
	return m.renameErr
}

func contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

// argAfter returns the argument following flag, or "".
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
