// Package youtube implements the caption provider by reading the watch page's
// player response and downloading the selected timed-text track.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/alnah/yt-transcript/internal/apierr"
	"github.com/alnah/yt-transcript/internal/captions"
	"github.com/alnah/yt-transcript/internal/videoid"
)

const (
	defaultBaseURL   = "https://www.youtube.com"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// playerMarker marks the start of the player response JSON in the watch page.
	playerMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 << 20
	maxTimedTextBytes = 4 << 20
)

// Provider fetches captions from YouTube.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      apierr.RetryConfig
	logger     *slog.Logger
}

// Compile-time check that Provider implements captions.Provider.
var _ captions.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithBaseURL overrides the watch page origin. Used by tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRetryConfig sets the retry policy for transient HTTP failures.
func WithRetryConfig(cfg apierr.RetryConfig) Option {
	return func(p *Provider) {
		p.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProvider creates a YouTube caption provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		retry:      apierr.DefaultRetryConfig,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchTranscript returns the caption lines of id in lang ("" = first track).
func (p *Provider) FetchTranscript(ctx context.Context, id videoid.ID, lang string) ([]captions.RawItem, error) {
	player, err := p.playerResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkPlayability(player); err != nil {
		return nil, err
	}

	var tracks []captionTrack
	if player.Captions != nil {
		tracks = player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("could not find any transcripts for %s: %w", id, captions.ErrNotFound)
	}

	track, err := pickTrack(tracks, lang)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("caption track selected",
		"video_id", id.String(), "lang", track.LanguageCode, "kind", track.Kind)

	return p.timedText(ctx, track.BaseURL)
}

// playerResponse downloads the watch page and decodes its player response.
func (p *Provider) playerResponse(ctx context.Context, id videoid.ID) (*playerResponse, error) {
	watchURL := p.baseURL + "/watch?v=" + url.QueryEscape(id.String())
	body, err := p.get(ctx, watchURL, maxWatchPageBytes)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, fmt.Errorf("watch page: %w: %w", captions.ErrVideoUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	raw := extractJSON(body[idx+len(playerMarker):])
	if raw == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

// timedText downloads a caption track in srv3 form and parses it.
func (p *Provider) timedText(ctx context.Context, baseURL string) ([]captions.RawItem, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("caption track url: %w", err)
	}
	if !u.IsAbs() {
		u, err = url.Parse(p.baseURL + baseURL)
		if err != nil {
			return nil, fmt.Errorf("caption track url: %w", err)
		}
	}
	q := u.Query()
	q.Set("fmt", "srv3")
	u.RawQuery = q.Encode()

	body, err := p.get(ctx, u.String(), maxTimedTextBytes)
	if errors.Is(err, apierr.ErrNotFound) {
		// An expired track URL says nothing about the video itself.
		return nil, fmt.Errorf("fetch timedtext: %w: %w", captions.ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty timedtext: %w", captions.ErrNotFound)
	}
	return parseTimedText(body)
}

// get performs a GET with retry on transient statuses. A 404 is returned as
// apierr.ErrNotFound; callers decide what is missing.
func (p *Provider) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	body, err := apierr.RetryWithBackoff(ctx, p.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, apierr.FromStatus(resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return data, nil
	}, apierr.IsRetryable)

	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, apierr.ErrTimeout):
		return nil, fmt.Errorf("%w: %w", captions.ErrTimeout, err)
	default:
		return nil, err
	}
}

// checkPlayability reports unplayable videos as captions.ErrVideoUnavailable.
// LOGIN_REQUIRED is only treated as unavailable for private videos; bot
// checks use the same status and are left unclassified.
func checkPlayability(player *playerResponse) error {
	ps := player.PlayabilityStatus
	if ps == nil {
		return nil
	}
	switch ps.Status {
	case "", "OK", "LIVE_STREAM_OFFLINE":
		return nil
	case "ERROR", "UNPLAYABLE":
		return fmt.Errorf("%w: %s", captions.ErrVideoUnavailable, reasonOr(ps.Reason, "Video unavailable"))
	case "LOGIN_REQUIRED":
		if strings.Contains(strings.ToLower(ps.Reason), "private") {
			return fmt.Errorf("%w: %s", captions.ErrVideoUnavailable, ps.Reason)
		}
	}
	return fmt.Errorf("playability %s: %s", ps.Status, ps.Reason)
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

// pickTrack selects the track for lang.
// Authored tracks win over auto-generated ones; an exact code match wins over
// a base-language match (en for en-US). Without a preference the first
// authored track is used.
func pickTrack(tracks []captionTrack, lang string) (captionTrack, error) {
	lang = strings.ToLower(lang)
	if lang == "" {
		for _, t := range tracks {
			if t.Kind != "asr" {
				return t, nil
			}
		}
		return tracks[0], nil
	}

	matchers := []func(captionTrack) bool{
		func(t captionTrack) bool { return strings.EqualFold(t.LanguageCode, lang) && t.Kind != "asr" },
		func(t captionTrack) bool { return strings.EqualFold(t.LanguageCode, lang) },
		func(t captionTrack) bool { return baseOf(t.LanguageCode) == baseOf(lang) && t.Kind != "asr" },
		func(t captionTrack) bool { return baseOf(t.LanguageCode) == baseOf(lang) },
	}
	for _, match := range matchers {
		for _, t := range tracks {
			if match(t) {
				return t, nil
			}
		}
	}

	return captionTrack{}, &captions.LanguageUnavailableError{
		Requested: lang,
		Available: availableCodes(tracks),
	}
}

func baseOf(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

// availableCodes lists track languages in provider order without duplicates.
func availableCodes(tracks []captionTrack) []string {
	seen := make(map[string]bool, len(tracks))
	var codes []string
	for _, t := range tracks {
		if t.LanguageCode == "" || seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		codes = append(codes, t.LanguageCode)
	}
	return codes
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// parseTimedText decodes srv3 or legacy timed text into millisecond items.
// Lines that are empty after tag stripping are dropped.
func parseTimedText(data []byte) ([]captions.RawItem, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	var items []captions.RawItem
	for _, p := range tt.Paragraphs {
		if text := cleanText(tagPattern.ReplaceAllString(p.Inner, "")); text != "" {
			items = append(items, captions.RawItem{Text: text, OffsetMs: p.T, DurationMs: p.D})
		}
	}
	for _, l := range tt.Lines {
		if text := cleanText(l.Text); text != "" {
			items = append(items, captions.RawItem{Text: text, OffsetMs: l.Start * 1000, DurationMs: l.Dur * 1000})
		}
	}
	return items, nil
}

// cleanText unescapes entities (twice, timedtext double-encodes) and
// collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(html.UnescapeString(s))
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// extractJSON returns the first balanced JSON object at the start of b.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
