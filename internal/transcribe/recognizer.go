// Package transcribe turns speech audio into time-coded segments, either
// through the OpenAI transcription API or a local Whisper installation.
package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/yt-transcript/internal/audio"
)

// Backend names accepted in configuration.
const (
	BackendOpenAI  = "openai"
	BackendWhisper = "whisper"
)

// MaxRecommendedParallel is the recommended upper limit for concurrent API requests.
// Higher values may trigger rate limiting.
const MaxRecommendedParallel = 10

// Segment is a recognized span of speech. Times are seconds from the start
// of the audio.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Recognizer converts an audio file to segments.
// lang is a language code; "" means auto-detect.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath, lang string) ([]Segment, error)
}

// RecognizeChunks recognizes chunks in parallel and merges their segments
// into one timeline. Results keep source order regardless of completion
// order. If any chunk fails the whole operation fails.
//
// Consecutive chunks overlap by overlap; a segment is kept by the chunk that
// owns its start time, the boundary being the middle of the shared window.
func RecognizeChunks(
	ctx context.Context,
	chunks []audio.Chunk,
	r Recognizer,
	lang string,
	overlap float64,
	maxParallel int,
) ([]Segment, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	maxParallel = max(maxParallel, 1)

	results := make([][]Segment, len(chunks))
	sem := make(chan struct{}, maxParallel)
	g, ctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			segs, err := r.Recognize(ctx, chunk.Path, lang)
			if err != nil {
				return fmt.Errorf("chunk %d (%s): %w", chunk.Index, filepath.Base(chunk.Path), err)
			}
			results[i] = segs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Segment
	for i, chunk := range chunks {
		offset := chunk.StartTime.Seconds()
		lo := offset
		if i > 0 {
			lo += overlap / 2
		}
		hi := chunk.EndTime.Seconds()
		if i < len(chunks)-1 {
			hi -= overlap / 2
		}
		for _, s := range results[i] {
			s.Start += offset
			s.End += offset
			if s.Start < lo || s.Start >= hi {
				continue
			}
			merged = append(merged, s)
		}
	}
	return merged, nil
}

// Normalize trims segment text, drops empty segments, clamps inverted
// times and sorts by start. The sort is stable so equal starts keep their
// recognizer order.
func Normalize(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		s.Start = max(s.Start, 0)
		s.End = max(s.End, s.Start)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
