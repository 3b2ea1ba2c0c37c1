package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/transcript"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Version is reported by the health endpoint.
	Version string

	// Factories for domain objects
	ConfigLoader    ConfigLoader
	ResolverFactory ResolverFactory
}

// ConfigLoader loads configuration. path may be empty.
type ConfigLoader interface {
	Load(path string) (config.Config, error)
}

// Resolver resolves transcript requests.
type Resolver interface {
	Resolve(ctx context.Context, req transcript.Request) (transcript.Result, error)
}

// ResolverFactory assembles the resolution pipeline from configuration.
// withGenerator false builds a captions-only resolver that needs no external
// tools or API keys. The returned close function releases connections.
type ResolverFactory interface {
	NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger, withGenerator bool) (Resolver, func(), error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithVersion sets the reported version.
func WithVersion(v string) EnvOption {
	return func(e *Env) {
		e.Version = v
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithResolverFactory sets the resolver factory.
func WithResolverFactory(f ResolverFactory) EnvOption {
	return func(e *Env) {
		e.ResolverFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Getenv:          os.Getenv,
		Version:         "dev",
		ConfigLoader:    &defaultConfigLoader{},
		ResolverFactory: &defaultResolverFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (config.Config, error) {
	return config.Load(path)
}

// Compile-time interface verification.
var (
	_ ConfigLoader    = (*defaultConfigLoader)(nil)
	_ ResolverFactory = (*defaultResolverFactory)(nil)
	_ Resolver        = (*transcript.Resolver)(nil)
)
