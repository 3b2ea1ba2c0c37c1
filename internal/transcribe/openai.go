package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/yt-transcript/internal/apierr"
	"github.com/alnah/yt-transcript/internal/audio"
	"github.com/alnah/yt-transcript/internal/lang"
)

// DefaultOpenAIModel returns segment timings; newer gpt-4o transcribe models
// only return plain text.
const DefaultOpenAIModel = openai.Whisper1

// defaultRetry matches the OpenAI rate-limit window.
var defaultRetry = apierr.RetryConfig{
	MaxRetries: 5,
	BaseDelay:  time.Second,
	MaxDelay:   30 * time.Second,
}

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ Recognizer       = (*OpenAIRecognizer)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAIRecognizer recognizes speech with the OpenAI transcription API.
// Long audio is split by the chunker and recognized in parallel.
type OpenAIRecognizer struct {
	client      audioTranscriber
	model       string
	retry       apierr.RetryConfig
	chunker     audio.Chunker
	overlap     float64
	maxParallel int
	logger      *slog.Logger
}

// OpenAIOption configures an OpenAIRecognizer.
type OpenAIOption func(*OpenAIRecognizer)

// WithModel sets the transcription model.
func WithModel(model string) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithRetryConfig sets the retry policy for transient API errors.
func WithRetryConfig(cfg apierr.RetryConfig) OpenAIOption {
	return func(r *OpenAIRecognizer) { r.retry = cfg }
}

// WithChunker enables chunked recognition. overlap must match the
// chunker's overlap so duplicate segments are dropped.
func WithChunker(c audio.Chunker, overlap time.Duration) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		r.chunker = c
		r.overlap = overlap.Seconds()
	}
}

// WithMaxParallel bounds concurrent chunk requests.
func WithMaxParallel(n int) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if n > 0 {
			r.maxParallel = n
		}
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(l *slog.Logger) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewOpenAIRecognizer creates a recognizer around an OpenAI client.
func NewOpenAIRecognizer(client *openai.Client, opts ...OpenAIOption) *OpenAIRecognizer {
	return newOpenAIRecognizer(client, opts...)
}

func newOpenAIRecognizer(client audioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	r := &OpenAIRecognizer{
		client:      client,
		model:       DefaultOpenAIModel,
		retry:       defaultRetry,
		maxParallel: 3,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize transcribes audioPath. With a chunker configured the file is
// split first and the chunk files are removed before returning.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, audioPath, code string) ([]Segment, error) {
	if r.chunker == nil {
		segs, err := r.recognizeFile(ctx, audioPath, code)
		if err != nil {
			return nil, err
		}
		return Normalize(segs), nil
	}

	chunks, err := r.chunker.Chunk(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	defer func() {
		if err := audio.CleanupChunks(chunks); err != nil {
			r.logger.Warn("chunk cleanup failed", "error", err)
		}
	}()
	r.logger.Debug("recognizing chunks", "chunks", len(chunks), "parallel", r.maxParallel)

	segs, err := RecognizeChunks(ctx, chunks, fileRecognizer(r.recognizeFile), code, r.overlap, r.maxParallel)
	if err != nil {
		return nil, err
	}
	return Normalize(segs), nil
}

// recognizeFile sends one file with retry on transient errors.
func (r *OpenAIRecognizer) recognizeFile(ctx context.Context, path, code string) ([]Segment, error) {
	req := openai.AudioRequest{
		Model:    r.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: lang.BaseCode(code), // OpenAI only accepts ISO 639-1 base codes
	}

	resp, err := apierr.RetryWithBackoff(ctx, r.retry, func() (openai.AudioResponse, error) {
		resp, err := r.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		return nil, err
	}

	segs := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segs = append(segs, Segment{Text: s.Text, Start: s.Start, End: s.End})
	}
	if len(segs) == 0 && resp.Text != "" {
		segs = append(segs, Segment{Text: resp.Text, Start: 0, End: resp.Duration})
	}
	return segs, nil
}

// fileRecognizer adapts a function to Recognizer.
type fileRecognizer func(ctx context.Context, path, lang string) ([]Segment, error)

func (f fileRecognizer) Recognize(ctx context.Context, path, lang string) ([]Segment, error) {
	return f(ctx, path, lang)
}

// classifyError maps OpenAI client errors onto apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w (%v)", apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w (%v)", apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error()), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w: %w", apierr.ErrTimeout, err)
	}
	return err
}
