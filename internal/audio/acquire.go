// Package audio acquires speech-ready audio for a video and splits it into
// chunks for recognizers with upload limits.
package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/yt-transcript/internal/ffmpeg"
)

// DefaultFormat is the yt-dlp format selector: the smallest audio-only
// stream, falling back to the smallest muxed stream.
const DefaultFormat = "worstaudio/worst"

// Acquirer downloads a video's audio with yt-dlp and transcodes it to a
// mono 16 kHz PCM WAV with ffmpeg.
type Acquirer struct {
	ytdlpPath  string
	ffmpegPath string
	format     string
	extraArgs  []string

	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	mover   fileMover
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithFormat sets the yt-dlp format selector.
func WithFormat(f string) AcquirerOption {
	return func(a *Acquirer) {
		if f != "" {
			a.format = f
		}
	}
}

// WithYtDlpArgs appends extra yt-dlp arguments (cookies, extractor args).
func WithYtDlpArgs(args ...string) AcquirerOption {
	return func(a *Acquirer) { a.extraArgs = append(a.extraArgs, args...) }
}

// WithAcquirerCommandRunner sets the command runner.
func WithAcquirerCommandRunner(r commandRunner) AcquirerOption {
	return func(a *Acquirer) { a.cmd = r }
}

// WithAcquirerTempDir sets the temp directory creator.
func WithAcquirerTempDir(t tempDirCreator) AcquirerOption {
	return func(a *Acquirer) { a.tempDir = t }
}

// WithAcquirerFileRemover sets the file remover.
func WithAcquirerFileRemover(f fileRemover) AcquirerOption {
	return func(a *Acquirer) { a.files = f }
}

// WithAcquirerFileMover sets the directory lister and renamer.
func WithAcquirerFileMover(m fileMover) AcquirerOption {
	return func(a *Acquirer) { a.mover = m }
}

// NewAcquirer creates an Acquirer from resolved tool paths.
func NewAcquirer(ytdlpPath, ffmpegPath string, opts ...AcquirerOption) (*Acquirer, error) {
	if ytdlpPath == "" {
		return nil, fmt.Errorf("yt-dlp path cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpeg path cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	a := &Acquirer{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		format:     DefaultFormat,
		cmd:        osCommandRunner{},
		tempDir:    osTempDirCreator{},
		files:      osFileRemover{},
		mover:      osFileMover{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Acquire writes the audio of watchURL to dest as WAV.
//
// The download lands in a private work directory next to dest and is removed
// before returning. The WAV is written to dest+".part" and renamed into place,
// so dest either does not exist or is complete.
func (a *Acquirer) Acquire(ctx context.Context, watchURL, dest string) error {
	workDir, err := a.tempDir.MkdirTemp(filepath.Dir(dest), ".acquire-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = a.files.RemoveAll(workDir) }() // best-effort; the source is disposable

	out, err := a.cmd.CombinedOutput(ctx, a.ytdlpPath, a.downloadArgs(watchURL, workDir))
	if err != nil {
		return commandError(ctx, ErrDownloadFailed, err, out)
	}

	source, err := a.downloadedFile(workDir)
	if err != nil {
		return err
	}

	part := dest + ".part"
	out, err = a.cmd.CombinedOutput(ctx, a.ffmpegPath, transcodeArgs(source, part))
	if err != nil {
		_ = a.files.Remove(part) // best-effort; may not exist
		return commandError(ctx, ErrTranscodeFailed, err, out)
	}

	if err := a.mover.Rename(part, dest); err != nil {
		_ = a.files.Remove(part)
		return fmt.Errorf("%w: publish %s: %w", ErrTranscodeFailed, dest, err)
	}
	return nil
}

// downloadArgs builds the yt-dlp invocation for a single audio stream.
func (a *Acquirer) downloadArgs(watchURL, workDir string) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--quiet",
		"-f", a.format,
		"-o", filepath.Join(workDir, "source.%(ext)s"),
	}
	args = append(args, a.extraArgs...)
	return append(args, watchURL)
}

// transcodeArgs converts any input to mono 16 kHz signed 16-bit PCM WAV.
// The container is forced because dest carries a .part suffix.
func transcodeArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dest,
	}
}

// downloadedFile finds the file yt-dlp wrote into workDir.
func (a *Acquirer) downloadedFile(workDir string) (string, error) {
	entries, err := a.mover.ReadDir(workDir)
	if err != nil {
		return "", fmt.Errorf("%w: list work directory: %w", ErrDownloadFailed, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "source.") || strings.HasSuffix(name, ".part") {
			continue
		}
		return filepath.Join(workDir, name), nil
	}
	return "", fmt.Errorf("%w: yt-dlp produced no file", ErrDownloadFailed)
}

// commandError wraps a failed command. When ctx ended the context error is
// kept in the chain so callers can tell timeouts from tool failures.
func commandError(ctx context.Context, sentinel, err error, output []byte) error {
	msg := strings.TrimSpace(string(output))
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	if msg == "" {
		return fmt.Errorf("%w: %w: %w", sentinel, ffmpeg.ErrCommandFailed, err)
	}
	return fmt.Errorf("%w: %w: %w\nOutput: %s", sentinel, ffmpeg.ErrCommandFailed, err, msg)
}
