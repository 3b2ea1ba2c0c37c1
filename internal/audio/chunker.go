package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/yt-transcript/internal/ffmpeg"
	"github.com/alnah/yt-transcript/internal/format"
)

var _ Chunker = (*TimeChunker)(nil)

// Chunk is a segment of audio extracted from a larger file.
// The caller is responsible for cleaning up chunk files after use.
type Chunk struct {
	Path      string
	Index     int
	StartTime time.Duration // Start in the source audio.
	EndTime   time.Duration // End in the source audio.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s", c.Index, format.Duration(c.StartTime), format.Duration(c.EndTime))
}

// Chunker splits an audio file into smaller files.
type Chunker interface {
	// Chunk returns chunks ordered by position in the source audio.
	Chunk(ctx context.Context, audioPath string) ([]Chunk, error)
}

const (
	// DefaultTargetDuration keeps OGG chunks well under the 25MB upload limit.
	DefaultTargetDuration = 10 * time.Minute

	// DefaultOverlap lets words cut at a boundary appear whole in one chunk.
	DefaultOverlap = 5 * time.Second

	// chunkDirPrefix marks directories CleanupChunks may remove wholesale.
	chunkDirPrefix = "yt-transcript-chunks-"
)

// TimeChunker splits audio into fixed-duration chunks with overlap.
type TimeChunker struct {
	ffmpegPath     string
	targetDuration time.Duration
	overlap        time.Duration
	baseDir        string

	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
}

// TimeChunkerOption configures a TimeChunker.
type TimeChunkerOption func(*TimeChunker)

// WithTimeChunkerBaseDir sets where chunk directories are created.
// Empty means the OS temp directory.
func WithTimeChunkerBaseDir(dir string) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.baseDir = dir }
}

// WithTimeChunkerCommandRunner sets the command runner.
func WithTimeChunkerCommandRunner(r commandRunner) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.cmd = r }
}

// WithTimeChunkerTempDir sets the temp directory creator.
func WithTimeChunkerTempDir(t tempDirCreator) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.tempDir = t }
}

// WithTimeChunkerFileRemover sets the file remover.
func WithTimeChunkerFileRemover(f fileRemover) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.files = f }
}

// NewTimeChunker creates a TimeChunker. A non-positive target uses
// DefaultTargetDuration; a negative overlap becomes zero.
func NewTimeChunker(ffmpegPath string, targetDuration, overlap time.Duration, opts ...TimeChunkerOption) (*TimeChunker, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if targetDuration <= 0 {
		targetDuration = DefaultTargetDuration
	}
	overlap = max(overlap, 0)
	if overlap >= targetDuration {
		return nil, fmt.Errorf("%w: overlap %v >= target %v", ErrInvalidOverlap, overlap, targetDuration)
	}

	tc := &TimeChunker{
		ffmpegPath:     ffmpegPath,
		targetDuration: targetDuration,
		overlap:        overlap,
		cmd:            osCommandRunner{},
		tempDir:        osTempDirCreator{},
		files:          osFileRemover{},
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// Overlap returns the configured overlap between consecutive chunks.
func (tc *TimeChunker) Overlap() time.Duration {
	return tc.overlap
}

// Chunk splits audioPath into consecutive windows of targetDuration, each
// starting overlap before the previous one ends.
func (tc *TimeChunker) Chunk(ctx context.Context, audioPath string) ([]Chunk, error) {
	total, err := tc.probeDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio duration: %w", err)
	}

	dir, err := tc.tempDir.MkdirTemp(tc.baseDir, chunkDirPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	bounds := chunkBounds(total, tc.targetDuration, tc.overlap)
	chunks := make([]Chunk, 0, len(bounds))
	for i, b := range bounds {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.ogg", i))
		if err := tc.extract(ctx, audioPath, path, b[0], b[1]); err != nil {
			_ = tc.files.RemoveAll(dir) // best-effort; extraction error takes precedence
			return nil, err
		}
		chunks = append(chunks, Chunk{Path: path, Index: i, StartTime: b[0], EndTime: b[1]})
	}
	return chunks, nil
}

// chunkBounds returns [start, end) windows covering total.
func chunkBounds(total, target, overlap time.Duration) [][2]time.Duration {
	var bounds [][2]time.Duration
	step := target - overlap
	for start := time.Duration(0); start < total; start += step {
		end := min(start+target, total)
		bounds = append(bounds, [2]time.Duration{start, end})
		if end >= total {
			break
		}
	}
	return bounds
}

// probeDuration reads the container duration from ffmpeg's stderr.
// ffprobe is not assumed to be installed.
func (tc *TimeChunker) probeDuration(ctx context.Context, audioPath string) (time.Duration, error) {
	output, err := tc.cmd.CombinedOutput(ctx, tc.ffmpegPath, []string{"-i", audioPath, "-f", "null", "-"})
	if err != nil && len(output) == 0 {
		return 0, err
	}
	return parseDurationFromFFmpegOutput(string(output))
}

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	progressPattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// parseDurationFromFFmpegOutput extracts "Duration: HH:MM:SS.ff", falling
// back to the last "time=HH:MM:SS.ff" progress line.
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	if m := durationPattern.FindStringSubmatch(output); m != nil {
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}
	if all := progressPattern.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}
	return 0, fmt.Errorf("could not parse duration from ffmpeg output")
}

// parseTimeComponents converts HH, MM, SS and a fractional digit string of
// any length to a Duration with millisecond precision.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q: %w", hours, err)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q: %w", minutes, err)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q: %w", seconds, err)
	}

	frac := (fractional + "000")[:3]
	ms, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction %q: %w", fractional, err)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// chunkEncodingArgs re-encodes chunks as 16 kHz mono OGG Vorbis, small
// enough for upload-limited recognizers.
func chunkEncodingArgs() []string {
	return []string{
		"-c:a", "libvorbis",
		"-ar", "16000",
		"-ac", "1",
		"-q:a", "2",
	}
}

func (tc *TimeChunker) extract(ctx context.Context, audioPath, chunkPath string, start, end time.Duration) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-ss", formatFFmpegTime(start),
		"-to", formatFFmpegTime(end),
	}
	args = append(args, chunkEncodingArgs()...)
	args = append(args, chunkPath)

	output, err := tc.cmd.CombinedOutput(ctx, tc.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: extract %s: %v\nOutput: %s", ErrChunkingFailed, chunkPath, err, string(output))
	}
	return nil
}

// formatFFmpegTime formats a duration as HH:MM:SS.mmm for -ss/-to.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// CleanupChunks removes chunk files after recognition.
// The whole directory is removed only when it was created by a TimeChunker.
func CleanupChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	dir := filepath.Dir(chunks[0].Path)
	if !strings.HasPrefix(filepath.Base(dir), chunkDirPrefix) {
		for _, c := range chunks {
			_ = os.Remove(c.Path) // best-effort; files may already be gone
		}
		return nil
	}
	return os.RemoveAll(dir)
}
