package transcribe

import "context"

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mocks.
type AudioTranscriber = audioTranscriber

// NewTestOpenAIRecognizer creates an OpenAIRecognizer around a mock client.
func NewTestOpenAIRecognizer(client AudioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	return newOpenAIRecognizer(client, opts...)
}

// WithCommandRunner exports withCommandRunner for testing.
var WithCommandRunner = func(run func(ctx context.Context, name string, args []string) ([]byte, error)) WhisperOption {
	return withCommandRunner(run)
}

// Function exports for unit testing internal logic.
var (
	ClassifyError      = classifyError
	ParseWhisperOutput = parseWhisperOutput
)
