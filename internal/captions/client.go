// Package captions retrieves provider-authored captions and normalizes them
// into transcript items.
package captions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/yt-transcript/internal/transcript"
	"github.com/alnah/yt-transcript/internal/videoid"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// RawItem is a provider caption line with millisecond offsets.
type RawItem struct {
	Text       string
	OffsetMs   float64
	DurationMs float64
}

// Provider fetches raw captions for a video.
// lang "" means no preference. Failures wrap ErrNotFound, ErrVideoUnavailable
// or return a *LanguageUnavailableError.
type Provider interface {
	FetchTranscript(ctx context.Context, id videoid.ID, lang string) ([]RawItem, error)
}

// Client wraps a Provider with unit conversion, language negotiation and
// error classification.
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// Compile-time check that Client satisfies the resolver's dependency.
var _ transcript.CaptionFetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client around provider.
func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the captions of id in lang, converted to seconds.
//
// When the provider reports the requested language as unavailable, Fetch
// retries exactly once with the first language the provider listed. If that
// retry fails or is empty, the original language error is returned unchanged.
func (c *Client) Fetch(ctx context.Context, id videoid.ID, lang string) ([]transcript.Item, error) {
	raw, err := c.call(ctx, id, lang)
	if err == nil {
		if len(raw) == 0 {
			return nil, fmt.Errorf("captions for %s: %w", id, transcript.ErrNoCaptionsFound)
		}
		return convert(raw), nil
	}

	if available := availableLanguages(err); len(available) > 0 {
		fallback := available[0]
		c.logger.Info("requested language unavailable, negotiating",
			"video_id", id.String(), "lang", lang, "fallback", fallback)
		retried, retryErr := c.call(ctx, id, fallback)
		if retryErr == nil && len(retried) > 0 {
			return convert(retried), nil
		}
		return nil, err
	}

	return nil, classify(id, err)
}

// call runs one provider request under the client timeout.
func (c *Client) call(ctx context.Context, id videoid.ID, lang string) ([]RawItem, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.FetchTranscript(ctx, id, lang)
}

// classify maps provider errors onto the transcript taxonomy.
// Unrecognized errors pass through untouched.
func classify(id videoid.ID, err error) error {
	switch {
	case errors.Is(err, ErrVideoUnavailable):
		return fmt.Errorf("captions for %s: %w: %w", id, transcript.ErrVideoUnavailable, err)
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("captions for %s: %w: %w", id, transcript.ErrNoCaptionsFound, err)
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("captions for %s: %w: %w", id, transcript.ErrUpstreamTimeout, err)
	default:
		return err
	}
}

// convert turns millisecond provider items into second-based transcript items.
func convert(raw []RawItem) []transcript.Item {
	items := make([]transcript.Item, len(raw))
	for i, r := range raw {
		items[i] = transcript.Item{
			Text:      r.Text,
			Start:     r.OffsetMs / 1000,
			Duration:  r.DurationMs / 1000,
			Generated: false,
		}
	}
	return items
}
