package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set for the OpenAI backend.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrRecognitionFailed indicates the recognizer could not produce segments.
var ErrRecognitionFailed = errors.New("speech recognition failed")

// ErrUnknownBackend indicates an unsupported recognizer backend name.
var ErrUnknownBackend = errors.New("unknown recognizer backend")
