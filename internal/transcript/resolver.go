package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/alnah/yt-transcript/internal/lang"
	"github.com/alnah/yt-transcript/internal/videoid"
)

// CaptionFetcher retrieves provider-authored captions.
// Implementations classify their own failures with ErrNoCaptionsFound,
// ErrVideoUnavailable or ErrUpstreamTimeout.
type CaptionFetcher interface {
	Fetch(ctx context.Context, id videoid.ID, lang string) ([]Item, error)
}

// Generator produces a transcript by speech recognition.
// Implementations classify their failures with ErrGenerationFailed or
// ErrUpstreamTimeout.
type Generator interface {
	Generate(ctx context.Context, id videoid.ID, lang string) ([]Item, error)
}

// Resolver orchestrates identifier resolution, caption retrieval and the
// generation fallback.
type Resolver struct {
	captions  CaptionFetcher
	generator Generator
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver.
// A nil generator disables the fallback regardless of the request flag.
func NewResolver(captions CaptionFetcher, generator Generator, opts ...Option) *Resolver {
	r := &Resolver{
		captions:  captions,
		generator: generator,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns a reference into a transcript.
//
// Authored captions always win. Generation only runs when the provider has no
// transcript for the video and the request allows it. Unavailable videos never
// trigger generation, and no step is retried besides the provider client's
// single language negotiation.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	id, err := resolveID(req)
	if err != nil {
		return Result{}, err
	}
	code := lang.Normalize(req.Lang)
	log := r.logger.With("video_id", id.String(), "lang", code)

	items, err := r.captions.Fetch(ctx, id, code)
	if err == nil {
		log.Info("captions resolved", "items", len(items))
		return Result{VideoID: id, Transcript: items, Generated: false}, nil
	}

	if !errors.Is(err, ErrNoCaptionsFound) || errors.Is(err, ErrVideoUnavailable) {
		log.Warn("caption fetch failed", "kind", KindOf(err).String(), "error", err)
		return Result{}, err
	}

	if !req.generate() || r.generator == nil {
		log.Info("no captions and generation disabled")
		return Result{}, err
	}

	log.Info("no captions, generating", "stage", "generate")
	items, err = r.generator.Generate(ctx, id, code)
	if err != nil {
		if !errors.Is(err, ErrGenerationFailed) && !errors.Is(err, ErrUpstreamTimeout) {
			err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		log.Error("generation failed", "kind", KindOf(err).String(), "error", err)
		return Result{}, err
	}

	log.Info("captions generated", "items", len(items))
	return Result{VideoID: id, Transcript: items, Generated: AnyGenerated(items)}, nil
}

// resolveID picks VideoID over URL. Both fields go through videoid.Resolve so
// a URL placed in the VideoID field still works.
func resolveID(req Request) (videoid.ID, error) {
	ref := req.VideoID
	if ref == "" {
		ref = req.URL
	}
	if ref == "" {
		return "", fmt.Errorf("url or videoId is required: %w", ErrInvalidInput)
	}
	id, ok := videoid.Resolve(ref)
	if !ok {
		return "", fmt.Errorf("cannot resolve %q: %w", ref, ErrInvalidInput)
	}
	return id, nil
}
