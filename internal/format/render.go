package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alnah/yt-transcript/internal/transcript"
)

// ErrUnknownFormat indicates an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Output is a transcript rendering.
type Output string

// Supported outputs.
const (
	JSON Output = "json"
	SRT  Output = "srt"
	VTT  Output = "vtt"
	Text Output = "text"
)

// ParseOutput parses a format name. Empty means JSON.
func ParseOutput(name string) (Output, error) {
	switch o := Output(strings.ToLower(strings.TrimSpace(name))); o {
	case "":
		return JSON, nil
	case JSON, SRT, VTT, Text:
		return o, nil
	case "txt":
		return Text, nil
	case "webvtt":
		return VTT, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, srt, vtt or text)", ErrUnknownFormat, name)
	}
}

// ContentType returns the MIME type of the output.
func (o Output) ContentType() string {
	switch o {
	case SRT:
		return "application/x-subrip; charset=utf-8"
	case VTT:
		return "text/vtt; charset=utf-8"
	case Text:
		return "text/plain; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Extension returns the file extension for the output, with the dot.
func (o Output) Extension() string {
	if o == Text {
		return ".txt"
	}
	return "." + string(o)
}

// Render writes res to w in the given output format.
func Render(w io.Writer, o Output, res transcript.Result) error {
	switch o {
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case SRT:
		return renderCues(w, res.Transcript, ",", false)
	case VTT:
		if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
			return err
		}
		return renderCues(w, res.Transcript, ".", true)
	case Text:
		for _, it := range res.Transcript {
			if _, err := fmt.Fprintln(w, it.Text); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(o))
	}
}

// renderCues writes numbered subtitle cues. SRT numbers every cue; VTT cue
// identifiers are optional and omitted.
func renderCues(w io.Writer, items []transcript.Item, sep string, vtt bool) error {
	for i, it := range items {
		start := Seconds(it.Start)
		end := Seconds(it.End())
		if !vtt {
			if _, err := fmt.Fprintf(w, "%d\n", i+1); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n", Timestamp(start, sep), Timestamp(end, sep), it.Text)
		if err != nil {
			return err
		}
	}
	return nil
}

// Timestamp formats d as HH:MM:SS<sep>mmm, the cue time syntax of SRT (",")
// and WebVTT (".").
func Timestamp(d time.Duration, sep string) string {
	d = max(d, 0)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms)
}
