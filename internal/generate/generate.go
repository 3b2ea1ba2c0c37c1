// Package generate produces transcripts for videos without authored
// captions: it downloads the audio track, runs speech recognition over it
// and removes the audio afterwards.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/yt-transcript/internal/apierr"
	"github.com/alnah/yt-transcript/internal/format"
	"github.com/alnah/yt-transcript/internal/lock"
	"github.com/alnah/yt-transcript/internal/transcribe"
	"github.com/alnah/yt-transcript/internal/transcript"
	"github.com/alnah/yt-transcript/internal/videoid"
)

// Stage timeouts used when none are configured.
const (
	DefaultDownloadTimeout  = 10 * time.Minute
	DefaultRecognizeTimeout = 30 * time.Minute
)

// Acquirer fetches the audio of a video and writes a mono 16 kHz WAV to dest.
// dest must only appear once complete.
type Acquirer interface {
	Acquire(ctx context.Context, watchURL, dest string) error
}

var _ transcript.Generator = (*Generator)(nil)

// Generator turns a video's spoken audio into transcript items.
type Generator struct {
	acquirer   Acquirer
	recognizer transcribe.Recognizer
	scratchDir string
	keepAudio  bool
	locker     lock.Locker

	downloadTimeout  time.Duration
	recognizeTimeout time.Duration

	flights singleflight.Group
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithKeepAudio keeps downloaded audio in the scratch directory so later
// requests for the same video skip the download.
func WithKeepAudio(keep bool) Option {
	return func(g *Generator) { g.keepAudio = keep }
}

// WithLocker sets the lock guarding per-video work. Defaults to an
// in-process lock; use a Redis lock when replicas share the scratch directory.
func WithLocker(l lock.Locker) Option {
	return func(g *Generator) {
		if l != nil {
			g.locker = l
		}
	}
}

// WithDownloadTimeout bounds audio acquisition.
func WithDownloadTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.downloadTimeout = d
		}
	}
}

// WithRecognizeTimeout bounds speech recognition.
func WithRecognizeTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.recognizeTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator writing audio under scratchDir, which is created
// if missing.
func New(acquirer Acquirer, recognizer transcribe.Recognizer, scratchDir string, opts ...Option) (*Generator, error) {
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "yt-transcript")
	}
	if err := os.MkdirAll(scratchDir, 0o750); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	g := &Generator{
		acquirer:         acquirer,
		recognizer:       recognizer,
		scratchDir:       scratchDir,
		locker:           lock.NewLocal(),
		downloadTimeout:  DefaultDownloadTimeout,
		recognizeTimeout: DefaultRecognizeTimeout,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// AudioPath returns where the audio for id is written.
func (g *Generator) AudioPath(id videoid.ID) string {
	return filepath.Join(g.scratchDir, string(id)+".wav")
}

// Generate transcribes the audio of id. code is a normalized language code
// or "" for auto-detection. Concurrent calls for the same video and language
// share one attempt; calls for the same video in different languages run
// one at a time.
//
// The shared attempt does not inherit the cancellation of the call that
// started it, only the stage timeouts bound it. Each caller stops waiting
// when its own ctx is done.
func (g *Generator) Generate(ctx context.Context, id videoid.ID, code string) ([]transcript.Item, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(string(id)+"/"+code, func() (any, error) {
		return g.generate(flightCtx, id, code)
	})

	select {
	case <-ctx.Done():
		g.logger.Debug("stopped waiting for generation", "video_id", id, "lang", code, "error", ctx.Err())
		return nil, classify("wait", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			g.logger.Debug("joined in-flight generation", "video_id", id, "lang", code)
		}
		return slices.Clone(res.Val.([]transcript.Item)), nil
	}
}

func (g *Generator) generate(ctx context.Context, id videoid.ID, code string) ([]transcript.Item, error) {
	lctx, cancel := context.WithTimeout(ctx, g.downloadTimeout+g.recognizeTimeout)
	release, err := g.locker.Acquire(lctx, "generate:"+string(id))
	cancel()
	if err != nil {
		return nil, classify("lock", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("lock release failed", "video_id", id, "error", err)
		}
	}()

	path := g.AudioPath(id)
	if err := g.acquire(ctx, id, path); err != nil {
		return nil, err
	}
	if !g.keepAudio {
		defer g.remove(id, path)
	}

	rctx, cancel := context.WithTimeout(ctx, g.recognizeTimeout)
	defer cancel()

	start := time.Now()
	segs, err := g.recognizer.Recognize(rctx, path, code)
	if err != nil {
		return nil, classify("recognize", err)
	}
	g.logger.Info("audio recognized", "video_id", id, "lang", code, "segments", len(segs),
		"elapsed", format.DurationHuman(time.Since(start)))

	items := toItems(segs)
	if len(items) == 0 {
		return nil, fmt.Errorf("recognize: %w: no speech detected", transcript.ErrGenerationFailed)
	}
	return items, nil
}

// acquire downloads the audio unless a previous run left it in place.
func (g *Generator) acquire(ctx context.Context, id videoid.ID, path string) error {
	if _, err := os.Stat(path); err == nil {
		g.logger.Debug("reusing audio", "video_id", id, "path", path)
		return nil
	}

	dctx, cancel := context.WithTimeout(ctx, g.downloadTimeout)
	defer cancel()

	start := time.Now()
	if err := g.acquirer.Acquire(dctx, id.WatchURL(), path); err != nil {
		return classify("download", err)
	}
	attrs := []any{"video_id", id, "elapsed", format.DurationHuman(time.Since(start))}
	if info, err := os.Stat(path); err == nil {
		attrs = append(attrs, "size", format.Size(info.Size()))
	}
	g.logger.Info("audio acquired", attrs...)
	return nil
}

func (g *Generator) remove(id videoid.ID, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		g.logger.Warn("audio cleanup failed", "video_id", id, "path", path, "error", err)
	}
}

// classify wraps err as a timeout or a generation failure, keeping the cause.
func classify(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apierr.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", stage, transcript.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, transcript.ErrGenerationFailed, err)
}

// toItems converts recognizer output to generated transcript items.
func toItems(segs []transcribe.Segment) []transcript.Item {
	segs = transcribe.Normalize(segs)
	items := make([]transcript.Item, 0, len(segs))
	for _, s := range segs {
		items = append(items, transcript.Item{
			Text:      s.Text,
			Start:     s.Start,
			Duration:  s.End - s.Start,
			Generated: true,
		})
	}
	return items
}
