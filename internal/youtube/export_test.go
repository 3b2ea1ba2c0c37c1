package youtube

import "github.com/alnah/yt-transcript/internal/captions"

// ExtractJSON exposes extractJSON for testing.
var ExtractJSON = extractJSON

// ParseTimedText exposes parseTimedText for testing.
func ParseTimedText(data []byte) ([]captions.RawItem, error) {
	return parseTimedText(data)
}
