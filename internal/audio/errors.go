package audio

import "errors"

// ErrDownloadFailed indicates yt-dlp could not fetch the audio stream.
var ErrDownloadFailed = errors.New("audio download failed")

// ErrTranscodeFailed indicates ffmpeg could not produce the WAV artifact.
var ErrTranscodeFailed = errors.New("audio transcode failed")

// ErrChunkingFailed indicates ffmpeg failed during audio chunking.
var ErrChunkingFailed = errors.New("audio chunking failed")

// ErrInvalidOverlap indicates the chunk overlap is not shorter than the chunk.
var ErrInvalidOverlap = errors.New("overlap must be shorter than target duration")
