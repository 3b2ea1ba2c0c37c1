package cli

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/transcript"
	"github.com/alnah/yt-transcript/internal/videoid"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

type testMocks struct {
	stdout   *syncBuffer
	stderr   *syncBuffer
	config   *mockConfigLoader
	factory  *mockResolverFactory
	resolver *fakeResolver
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(getenv func(string) string) (*Env, *testMocks) {
	if getenv == nil {
		getenv = staticEnv(nil)
	}
	resolver := newFakeResolver()
	mocks := &testMocks{
		stdout:   &syncBuffer{},
		stderr:   &syncBuffer{},
		config:   &mockConfigLoader{cfg: quietConfig()},
		factory:  &mockResolverFactory{resolver: resolver},
		resolver: resolver,
	}
	env := NewEnv(
		WithStdout(mocks.stdout),
		WithStderr(mocks.stderr),
		WithGetenv(getenv),
		WithVersion("test"),
		WithConfigLoader(mocks.config),
		WithResolverFactory(mocks.factory),
	)
	return env, mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// quietConfig returns defaults with logging limited to errors.
func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Log.Level = "error"
	return cfg
}

// execute runs cmd with args and returns its error.
func execute(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

// sampleResult returns a two-line caption transcript for id.
func sampleResult(id string) transcript.Result {
	return transcript.Result{
		VideoID: videoid.ID(id),
		Transcript: []transcript.Item{
			{Text: id + " first", Start: 0, Duration: 1.5},
			{Text: id + " second", Start: 1.5, Duration: 2},
		},
	}
}
