// Package ffmpeg locates and runs the external media tools used to acquire
// audio: ffmpeg for transcoding and yt-dlp for downloading.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Tool describes an external binary and the environment variable that
// overrides its location.
type Tool struct {
	Name   string
	EnvVar string
}

// Known tools.
var (
	FFmpeg = Tool{Name: "ffmpeg", EnvVar: "FFMPEG_PATH"}
	YtDlp  = Tool{Name: "yt-dlp", EnvVar: "YTDLP_PATH"}
)

// minFFmpegMajorVersion is the oldest ffmpeg accepted without a warning.
const minFFmpegMajorVersion = 4

// Resolver finds tool binaries.
type Resolver struct {
	files fileStatter
	env   envProvider
	goos  string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.files = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform sets the target OS (for testing install hints and binary names).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		files: osFileStatter{},
		env:   osEnvProvider{},
		goos:  runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds tool using the following precedence:
//  1. explicit path (from config), error if it does not exist
//  2. the tool's environment variable, error if set but invalid
//  3. system PATH
func (r *Resolver) Resolve(tool Tool, explicit string) (string, error) {
	if explicit != "" {
		if _, err := r.files.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s configured as %q", ErrNotFound, tool.Name, explicit)
		}
		return explicit, nil
	}

	if envPath := r.env.Getenv(tool.EnvVar); envPath != "" {
		if _, err := r.files.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but the binary does not exist",
				ErrNotFound, tool.EnvVar, envPath)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath(r.binaryName(tool)); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s\n\n%s", ErrNotFound, tool.Name, r.installInstructions(tool))
}

func (r *Resolver) binaryName(tool Tool) string {
	if r.goos == "windows" {
		return tool.Name + ".exe"
	}
	return tool.Name
}

// installInstructions returns platform-specific install hints.
func (r *Resolver) installInstructions(tool Tool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To install %s:\n", tool.Name)
	switch {
	case tool == YtDlp:
		b.WriteString("  pipx install yt-dlp   (or: pip install -U yt-dlp)\n")
		if r.goos == "darwin" {
			b.WriteString("  brew install yt-dlp\n")
		}
	case r.goos == "darwin":
		b.WriteString("  brew install ffmpeg\n")
	case r.goos == "linux":
		b.WriteString("  Ubuntu/Debian: sudo apt install ffmpeg\n")
		b.WriteString("  Fedora:        sudo dnf install ffmpeg\n")
		b.WriteString("  Arch:          sudo pacman -S ffmpeg\n")
	case r.goos == "windows":
		b.WriteString("  winget install ffmpeg\n")
	default:
		b.WriteString("  see https://ffmpeg.org/download.html\n")
	}
	fmt.Fprintf(&b, "\nOr set %s to the binary path.", tool.EnvVar)
	return b.String()
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker reports tool versions and warns about outdated ffmpeg.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor used to run the tools.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Version returns the first line of the tool's version output.
func (vc *VersionChecker) Version(ctx context.Context, tool Tool, path string) (string, error) {
	flag := "-version"
	if tool == YtDlp {
		flag = "--version"
	}
	output, err := vc.executor.RunOutput(ctx, path, []string{flag})
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	if line == "" {
		if err == nil {
			err = fmt.Errorf("%s printed no version", tool.Name)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// CheckFFmpeg verifies that ffmpeg meets minimum version requirements.
// Prints a warning if the version is below minimum but doesn't fail.
// Returns true if the version was successfully parsed.
func (vc *VersionChecker) CheckFFmpeg(ctx context.Context, ffmpegPath string) bool {
	line, err := vc.Version(ctx, FFmpeg, ffmpegPath)
	if err != nil {
		return false
	}

	var major int
	if _, err := fmt.Sscanf(line, "ffmpeg version %d", &major); err != nil {
		if _, err := fmt.Sscanf(line, "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return true
}
