package cli

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/yt-transcript/internal/audio"
	"github.com/alnah/yt-transcript/internal/captions"
	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/ffmpeg"
	"github.com/alnah/yt-transcript/internal/generate"
	"github.com/alnah/yt-transcript/internal/lock"
	"github.com/alnah/yt-transcript/internal/transcribe"
	"github.com/alnah/yt-transcript/internal/transcript"
	"github.com/alnah/yt-transcript/internal/youtube"
)

// defaultResolverFactory wires the production pipeline.
type defaultResolverFactory struct{}

func (defaultResolverFactory) NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger, withGenerator bool) (Resolver, func(), error) {
	provider := youtube.NewProvider(youtube.WithLogger(logger))
	client := captions.NewClient(provider,
		captions.WithTimeout(cfg.FetchTimeout()),
		captions.WithLogger(logger),
	)

	closeFn := func() {}
	var gen transcript.Generator // nil disables the fallback
	if withGenerator {
		g, closeGen, err := newGenerator(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		gen, closeFn = g, closeGen
	}

	return transcript.NewResolver(client, gen, transcript.WithLogger(logger)), closeFn, nil
}

// newGenerator resolves external tools, builds the recognizer and, when a
// Redis URL is configured, the cross-replica lock.
func newGenerator(ctx context.Context, cfg config.Config, logger *slog.Logger) (*generate.Generator, func(), error) {
	tools := ffmpeg.NewResolver()
	ffmpegPath, err := tools.Resolve(ffmpeg.FFmpeg, cfg.Tools.FFmpeg)
	if err != nil {
		return nil, nil, err
	}
	ytdlpPath, err := tools.Resolve(ffmpeg.YtDlp, cfg.Tools.YtDlp)
	if err != nil {
		return nil, nil, err
	}
	ffmpeg.NewVersionChecker().CheckFFmpeg(ctx, ffmpegPath)

	acquirer, err := audio.NewAcquirer(ytdlpPath, ffmpegPath)
	if err != nil {
		return nil, nil, err
	}

	recognizer, err := newRecognizer(cfg, ffmpegPath, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []generate.Option{
		generate.WithKeepAudio(cfg.KeepAudio),
		generate.WithDownloadTimeout(cfg.DownloadTimeout()),
		generate.WithRecognizeTimeout(cfg.RecognizeTimeout()),
		generate.WithLogger(logger),
	}

	closeFn := func() {}
	if cfg.Redis.URL != "" {
		rdb, err := lock.Dial(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
		opts = append(opts, generate.WithLocker(lock.NewRedis(rdb,
			lock.WithTTL(cfg.DownloadTimeout()+cfg.RecognizeTimeout()),
			lock.WithLogger(logger),
		)))
		closeFn = func() { _ = rdb.Close() }
	}

	g, err := generate.New(acquirer, recognizer, cfg.ScratchDir, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return g, closeFn, nil
}

// newRecognizer selects the speech recognition backend.
func newRecognizer(cfg config.Config, ffmpegPath string, logger *slog.Logger) (transcribe.Recognizer, error) {
	switch cfg.Recognizer.Backend {
	case transcribe.BackendOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("%w (set it with: export %s=sk-...)", transcribe.ErrAPIKeyMissing, config.EnvAPIKey)
		}
		chunker, err := audio.NewTimeChunker(ffmpegPath, audio.DefaultTargetDuration, audio.DefaultOverlap,
			audio.WithTimeChunkerBaseDir(cfg.ScratchDir))
		if err != nil {
			return nil, err
		}
		return transcribe.NewOpenAIRecognizer(openai.NewClient(cfg.OpenAI.APIKey),
			transcribe.WithModel(cfg.Recognizer.Model),
			transcribe.WithChunker(chunker, audio.DefaultOverlap),
			transcribe.WithMaxParallel(clampParallel(cfg.Parallel)),
			transcribe.WithOpenAILogger(logger),
		), nil
	case transcribe.BackendWhisper:
		return transcribe.NewWhisperRecognizer(cfg.Recognizer.WhisperBin,
			transcribe.WithWhisperModel(cfg.Recognizer.Model),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", transcribe.ErrUnknownBackend, cfg.Recognizer.Backend)
	}
}

// clampParallel constrains parallel request count to valid range [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > transcribe.MaxRecommendedParallel {
		return transcribe.MaxRecommendedParallel
	}
	return n
}
