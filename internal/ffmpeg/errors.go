package ffmpeg

import "errors"

// ErrNotFound indicates a required binary is neither configured nor on PATH.
var ErrNotFound = errors.New("binary not found")

// ErrCommandFailed indicates an external command exited with an error.
var ErrCommandFailed = errors.New("command failed")
