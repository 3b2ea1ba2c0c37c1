// Package transcript resolves a YouTube reference into a time-coded transcript.
//
// The Resolver is the single public operation of the pipeline: it extracts the
// video identifier, negotiates authored captions with the provider, and falls
// back to speech recognition when none exist and generation is allowed.
package transcript

import "github.com/alnah/yt-transcript/internal/videoid"

// Item is one time-coded line of a transcript.
// Start and Duration are in seconds. Generated is true for items produced by
// speech recognition and false for provider-authored captions.
type Item struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	Generated bool    `json:"generated"`
}

// End returns Start + Duration.
func (it Item) End() float64 {
	return it.Start + it.Duration
}

// Request is the input of Resolve. At least one of URL or VideoID is required.
type Request struct {
	URL     string `json:"url,omitempty"`
	VideoID string `json:"videoId,omitempty"`
	Lang    string `json:"lang,omitempty"`

	// GenerateIfNotFound enables the speech recognition fallback.
	// nil means true.
	GenerateIfNotFound *bool `json:"generateIfNotFound,omitempty"`
}

// generate reports the effective GenerateIfNotFound value.
func (r Request) generate() bool {
	return r.GenerateIfNotFound == nil || *r.GenerateIfNotFound
}

// Result is a successfully resolved transcript.
type Result struct {
	VideoID    videoid.ID `json:"videoId"`
	Transcript []Item     `json:"transcript"`
	Generated  bool       `json:"generated"`
}

// AnyGenerated reports whether at least one item is generated.
func AnyGenerated(items []Item) bool {
	for _, it := range items {
		if it.Generated {
			return true
		}
	}
	return false
}
