package cli

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/transcript"
)

// ---------------------------------------------------------------------------
// mockConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	mu      sync.Mutex
	cfg     config.Config
	err     error
	gotPath string
}

func (m *mockConfigLoader) Load(path string) (config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotPath = path
	return m.cfg, m.err
}

// ---------------------------------------------------------------------------
// mockResolverFactory
// ---------------------------------------------------------------------------

type mockResolverFactory struct {
	mu            sync.Mutex
	resolver      Resolver
	err           error
	calls         int
	gotCfg        config.Config
	withGenerator bool
	closed        bool
}

func (m *mockResolverFactory) NewResolver(_ context.Context, cfg config.Config, _ *slog.Logger, withGenerator bool) (Resolver, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotCfg = cfg
	m.withGenerator = withGenerator
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.resolver, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed = true
	}, nil
}

// ---------------------------------------------------------------------------
// fakeResolver - answers by raw reference
// ---------------------------------------------------------------------------

type fakeResolver struct {
	mu       sync.Mutex
	errs     map[string]error
	delays   map[string]time.Duration
	requests []transcript.Request
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

func (f *fakeResolver) Resolve(ctx context.Context, req transcript.Request) (transcript.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.errs[req.VideoID]
	delay := f.delays[req.VideoID]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return transcript.Result{}, ctx.Err()
		}
	}
	if err != nil {
		return transcript.Result{}, err
	}
	return sampleResult(req.VideoID), nil
}

func (f *fakeResolver) recorded() []transcript.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transcript.Request(nil), f.requests...)
}

// Compile-time interface verification.
var (
	_ ConfigLoader    = (*mockConfigLoader)(nil)
	_ ResolverFactory = (*mockResolverFactory)(nil)
	_ Resolver        = (*fakeResolver)(nil)
)
