package transcript

import (
	"errors"
)

// Sentinel errors forming the caller-facing taxonomy.
//
// Components classify failures as close to the failing call as possible and
// wrap these sentinels with context:
//
//	return fmt.Errorf("fetch captions for %s: %w", id, transcript.ErrNoCaptionsFound)
//
// The Resolver never re-classifies an error it did not produce; it only adds
// the generation-fallback decision. KindOf maps any error back to a Kind.
var (
	// ErrInvalidInput indicates neither reference was supplied, or it could not
	// be resolved to a valid identifier. Caller error; never retried.
	ErrInvalidInput = errors.New("invalid video reference")

	// ErrVideoUnavailable indicates the video does not exist or is inaccessible.
	// Generation is never attempted.
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrNoCaptionsFound indicates the provider has no transcript.
	// Recoverable by generation when enabled.
	ErrNoCaptionsFound = errors.New("no captions found")

	// ErrGenerationFailed indicates audio acquisition or recognition failed.
	ErrGenerationFailed = errors.New("failed to generate captions")

	// ErrUpstreamTimeout indicates an external call exceeded its time budget.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// Kind is the classified outcome of a failed resolution.
type Kind int

// Error kinds. KindInternal covers everything that is not classified.
const (
	KindInternal Kind = iota
	KindInvalidInput
	KindVideoUnavailable
	KindNoCaptions
	KindGenerationFailed
	KindUpstreamTimeout
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindVideoUnavailable:
		return "video_unavailable"
	case KindNoCaptions:
		return "no_captions_found"
	case KindGenerationFailed:
		return "generation_failed"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	default:
		return "internal"
	}
}

// Message returns the caller-facing message for the kind.
// Error details stay hidden; see the HTTP layer's development mode.
func (k Kind) Message() string {
	switch k {
	case KindInvalidInput:
		return "Invalid video URL or video ID format"
	case KindVideoUnavailable:
		return "Video is unavailable or does not exist"
	case KindNoCaptions:
		return "No captions found for this video"
	case KindGenerationFailed:
		return "Failed to generate captions for the video"
	case KindUpstreamTimeout:
		return "Upstream service timed out"
	default:
		return "Error retrieving transcript"
	}
}

// KindOf classifies err. A nil error has no kind and reports KindInternal;
// callers check err != nil first.
//
// Timeouts take precedence: a generation that timed out is reported as
// KindUpstreamTimeout even though it is also wrapped as ErrGenerationFailed.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUpstreamTimeout):
		return KindUpstreamTimeout
	case errors.Is(err, ErrVideoUnavailable):
		return KindVideoUnavailable
	case errors.Is(err, ErrGenerationFailed):
		return KindGenerationFailed
	case errors.Is(err, ErrNoCaptionsFound):
		return KindNoCaptions
	default:
		return KindInternal
	}
}
