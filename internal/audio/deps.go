package audio

import (
	"context"
	"os"
	"os/exec"
)

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// tempDirCreator creates temporary directories.
type tempDirCreator interface {
	MkdirTemp(dir, pattern string) (string, error)
}

// fileRemover removes files and directories.
type fileRemover interface {
	Remove(name string) error
	RemoveAll(path string) error
}

// fileMover lists a work directory and publishes the finished artifact.
type fileMover interface {
	ReadDir(name string) ([]os.DirEntry, error)
	Rename(oldpath, newpath string) error
}

// --- Default implementations using real OS functions ---

type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name is a resolved tool path, args are built internally
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

type osTempDirCreator struct{}

func (osTempDirCreator) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}

func (osFileRemover) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

type osFileMover struct{}

func (osFileMover) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

func (osFileMover) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
