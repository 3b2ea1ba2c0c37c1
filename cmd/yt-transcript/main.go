package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/yt-transcript/internal/cli"
	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/ffmpeg"
	"github.com/alnah/yt-transcript/internal/format"
	"github.com/alnah/yt-transcript/internal/interrupt"
	"github.com/alnah/yt-transcript/internal/transcribe"
	"github.com/alnah/yt-transcript/internal/transcript"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitGeneral      = 1
	ExitUsage        = 2
	ExitSetup        = 3
	ExitValidation   = 4
	ExitNoTranscript = 5
	ExitGeneration   = 6
	ExitTimeout      = 7
	ExitInterrupt    = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First SIGINT/SIGTERM drains, a second one within the window aborts.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.NewEnv(cli.WithVersion(version))

	rootCmd := &cobra.Command{
		Use:     "yt-transcript",
		Short:   "Fetch or generate time-coded transcripts of YouTube videos",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.FetchCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	switch {
	case errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, transcribe.ErrAPIKeyMissing) ||
		errors.Is(err, transcribe.ErrUnknownBackend) || errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, cli.ErrRedisUnavailable):
		return ExitSetup
	case errors.Is(err, transcript.ErrInvalidInput) || errors.Is(err, format.ErrUnknownFormat) ||
		errors.Is(err, cli.ErrOutputExists):
		return ExitValidation
	}

	// Resolution failures, precedence as in transcript.KindOf.
	switch transcript.KindOf(err) {
	case transcript.KindUpstreamTimeout:
		return ExitTimeout
	case transcript.KindGenerationFailed:
		return ExitGeneration
	case transcript.KindNoCaptions, transcript.KindVideoUnavailable:
		return ExitNoTranscript
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"unknown command",        // Subcommand doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 0 arg(s)")
	"requires at least",      // Too few arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
