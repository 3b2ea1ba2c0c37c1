package youtube

import "encoding/xml"

// playerResponse is the subset of ytInitialPlayerResponse the provider reads.
type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// timedText covers both timedtext layouts: srv3 paragraphs with millisecond
// attributes and the legacy <text start dur> form in seconds.
type timedText struct {
	XMLName    xml.Name
	Paragraphs []srv3Paragraph `xml:"body>p"`
	Lines      []legacyLine    `xml:"text"`
}

type srv3Paragraph struct {
	T     float64 `xml:"t,attr"`
	D     float64 `xml:"d,attr"`
	Inner string  `xml:",innerxml"`
}

type legacyLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}
