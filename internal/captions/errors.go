package captions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Provider-level sentinels. Providers wrap these; Client maps them onto the
// transcript taxonomy.
var (
	// ErrNotFound indicates the provider has no transcript for the video,
	// including the case where no transcript exists in any language.
	ErrNotFound = errors.New("provider has no transcript")

	// ErrVideoUnavailable indicates the video does not exist or is private.
	ErrVideoUnavailable = errors.New("provider reports video unplayable")

	// ErrTimeout indicates the provider call exceeded its time budget.
	ErrTimeout = errors.New("provider call timed out")
)

// LanguageUnavailableError reports that a transcript exists but not in the
// requested language. Available lists the provider's languages in its order.
type LanguageUnavailableError struct {
	Requested string
	Available []string
}

func (e *LanguageUnavailableError) Error() string {
	return fmt.Sprintf("No transcripts are available in %s. Available languages: %s",
		e.Requested, strings.Join(e.Available, ", "))
}

var availablePattern = regexp.MustCompile(`Available languages:\s*(.+)`)

// availableLanguages extracts the provider's language list from err.
// The typed error is preferred; plain errors are parsed from their message
// for providers that only report text.
func availableLanguages(err error) []string {
	var langErr *LanguageUnavailableError
	if errors.As(err, &langErr) {
		return langErr.Available
	}
	if err == nil {
		return nil
	}
	m := availablePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		if code := strings.TrimSpace(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}
