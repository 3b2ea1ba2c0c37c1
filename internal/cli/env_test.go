package cli

import (
	"bytes"
	"os"
	"testing"
)

// ---------------------------------------------------------------------------
// Tests for DefaultEnv / NewEnv
// ---------------------------------------------------------------------------

func TestDefaultEnvReturnsValidEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()

	if env.Stdout != os.Stdout {
		t.Errorf("DefaultEnv() Stdout = %v, want os.Stdout", env.Stdout)
	}
	if env.Stderr != os.Stderr {
		t.Errorf("DefaultEnv() Stderr = %v, want os.Stderr", env.Stderr)
	}
	if env.Getenv == nil {
		t.Error("DefaultEnv() Getenv = nil, want non-nil")
	}
	if env.ConfigLoader == nil {
		t.Error("DefaultEnv() ConfigLoader = nil, want non-nil")
	}
	if env.ResolverFactory == nil {
		t.Error("DefaultEnv() ResolverFactory = nil, want non-nil")
	}
	if env.Version != "dev" {
		t.Errorf("DefaultEnv() Version = %q, want dev", env.Version)
	}
}

func TestNewEnvAppliesOptions(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	loader := &mockConfigLoader{}
	factory := &mockResolverFactory{}

	env := NewEnv(
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithGetenv(staticEnv(map[string]string{"K": "v"})),
		WithVersion("1.2.3"),
		WithConfigLoader(loader),
		WithResolverFactory(factory),
	)

	if env.Stdout != &stdout || env.Stderr != &stderr {
		t.Error("writers not applied")
	}
	if env.Getenv("K") != "v" {
		t.Error("getenv not applied")
	}
	if env.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", env.Version)
	}
	if env.ConfigLoader != loader {
		t.Error("config loader not applied")
	}
	if env.ResolverFactory != factory {
		t.Error("resolver factory not applied")
	}
}
