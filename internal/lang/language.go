package lang

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// codePattern matches a 2-3 letter code with an optional 2-letter region.
// Matching is case-insensitive; the result is always lowercased.
var codePattern = regexp.MustCompile(`(?i)^[a-z]{2,3}(-[a-z]{2})?$`)

// names maps common English language names to ISO 639-1 codes.
var names = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"arabic":     "ar",
	"hindi":      "hi",
	"turkish":    "tr",
	"dutch":      "nl",
	"swedish":    "sv",
	"polish":     "pl",
	"vietnamese": "vi",
	"thai":       "th",
	"indonesian": "id",
	"greek":      "el",
	"romanian":   "ro",
	"czech":      "cs",
	"hungarian":  "hu",
	"ukrainian":  "uk",
	"hebrew":     "he",
	"finnish":    "fi",
	"danish":     "da",
	"norwegian":  "no",
}

// Normalize maps a free-form language name or code to a lowercase code.
// Returns "" for "no preference": empty input or an unknown name.
//
//	Normalize("English") -> "en"
//	Normalize("en-US")   -> "en-us"
//	Normalize("Klingon") -> ""
func Normalize(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if codePattern.MatchString(input) {
		return strings.ToLower(input)
	}
	return names[strings.ToLower(input)]
}

// BaseCode returns the ISO 639-1 base language of a code.
// Speech recognizers accept base codes only, not regional variants.
// Examples: "pt-br" -> "pt", "eng" -> "en", "" -> "".
func BaseCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	normalized := strings.ToLower(code)
	if idx := strings.IndexAny(normalized, "-_"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}

// Name returns the English display name for a code, falling back to the code
// itself. "" is reported as "auto".
func Name(code string) string {
	if code == "" {
		return "auto"
	}
	base := BaseCode(code)
	for name, c := range names {
		if c == base {
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return code
}
