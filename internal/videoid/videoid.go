// Package videoid extracts canonical YouTube video identifiers from user input.
//
// Resolve never returns an error: input is either classified as a valid
// identifier or rejected. Callers decide how to report the rejection.
package videoid

import (
	"net/url"
	"regexp"
	"strings"
)

// pattern matches the canonical 11-character identifier.
var pattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ID is a validated 11-character YouTube video identifier.
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// WatchURL returns the canonical watch page URL for the identifier.
func (id ID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// pathPrefixes lists youtube.com path prefixes whose second segment is the ID.
var pathPrefixes = []string{"/embed/", "/v/", "/shorts/", "/live/"}

// Resolve converts a URL or raw identifier into an ID.
//
// Accepted shapes:
//   - a raw identifier (returned unchanged)
//   - https://youtu.be/<id>
//   - https://www.youtube.com/watch?v=<id>
//   - https://www.youtube.com/embed/<id>, /v/<id>, /shorts/<id>, /live/<id>
//
// Any other host or shape, an unparseable URL, or a malformed embedded ID
// yields ok == false.
func Resolve(input string) (ID, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	// Raw identifiers are checked before any URL parsing.
	if Valid(input) {
		return ID(input), true
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return "", false
	}

	candidate := extract(u)
	if !Valid(candidate) {
		return "", false
	}
	return ID(candidate), true
}

// extract returns the identifier candidate from a parsed URL, or "".
func extract(u *url.URL) string {
	host := strings.ToLower(u.Hostname())

	if host == "youtu.be" {
		return strings.TrimPrefix(u.Path, "/")
	}

	if !isYouTubeHost(host) {
		return ""
	}

	if u.Path == "/watch" {
		return u.Query().Get("v")
	}

	for _, prefix := range pathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			// Path segment 2: "/embed/<id>" splits into ["", "embed", "<id>"].
			parts := strings.Split(u.Path, "/")
			if len(parts) > 2 {
				return parts[2]
			}
			return ""
		}
	}
	return ""
}

// isYouTubeHost reports whether host belongs to youtube.com (any subdomain)
// or the privacy-enhanced embed domain.
func isYouTubeHost(host string) bool {
	for _, domain := range []string{"youtube.com", "youtube-nocookie.com"} {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
