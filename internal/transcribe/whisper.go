package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alnah/yt-transcript/internal/lang"
)

// DefaultWhisperModel is the local model used when none is configured.
const DefaultWhisperModel = "base"

// commandRunner executes a command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args []string) ([]byte, error)

func runCombined(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name is the configured whisper binary, args are built internally
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var _ Recognizer = (*WhisperRecognizer)(nil)

// WhisperRecognizer runs a local openai-whisper compatible CLI that writes a
// JSON result with segments next to a given output directory.
type WhisperRecognizer struct {
	binary string
	model  string
	run    commandRunner
}

// WhisperOption configures a WhisperRecognizer.
type WhisperOption func(*WhisperRecognizer)

// WithWhisperModel sets the local model name.
func WithWhisperModel(model string) WhisperOption {
	return func(w *WhisperRecognizer) {
		if model != "" {
			w.model = model
		}
	}
}

// withCommandRunner replaces process execution (for testing).
func withCommandRunner(run commandRunner) WhisperOption {
	return func(w *WhisperRecognizer) { w.run = run }
}

// NewWhisperRecognizer creates a recognizer for the whisper binary at path.
func NewWhisperRecognizer(binary string, opts ...WhisperOption) *WhisperRecognizer {
	if binary == "" {
		binary = "whisper"
	}
	w := &WhisperRecognizer{
		binary: binary,
		model:  DefaultWhisperModel,
		run:    runCombined,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// whisperOutput is the JSON document written by --output_format json.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Recognize runs whisper on audioPath in a private output directory that is
// removed before returning.
func (w *WhisperRecognizer) Recognize(ctx context.Context, audioPath, code string) ([]Segment, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), ".whisper-*")
	if err != nil {
		return nil, fmt.Errorf("whisper output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }() // best-effort; results are already parsed

	output, err := w.run(ctx, w.binary, w.args(audioPath, outDir, code))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: whisper: %w", ErrRecognitionFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: whisper: %w: %s", ErrRecognitionFailed, err, strings.TrimSpace(string(output)))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json")) // #nosec G304 -- path built from our own output dir
	if err != nil {
		return nil, fmt.Errorf("%w: read whisper output: %w", ErrRecognitionFailed, err)
	}
	return parseWhisperOutput(data)
}

func (w *WhisperRecognizer) args(audioPath, outDir, code string) []string {
	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
		"--fp16", "False",
	}
	if base := lang.BaseCode(code); base != "" {
		args = append(args, "--language", base)
	}
	return args
}

func parseWhisperOutput(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode whisper output: %w", ErrRecognitionFailed, err)
	}
	segs := make([]Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segs = append(segs, Segment{Text: s.Text, Start: s.Start, End: s.End})
	}
	return Normalize(segs), nil
}
