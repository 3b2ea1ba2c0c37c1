package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/alnah/yt-transcript/internal/config"
)

// Notes:
// - ServeCmd sets the global gin mode, so these tests do not run in parallel.
// - A canceled context makes the server start and drain immediately.

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestServeCmd_FlagsOverrideConfig(t *testing.T) {
	env, mocks := testEnv(nil)

	err := execute(canceledContext(), ServeCmd(env), "--addr", "127.0.0.1:0", "--dev", "-c", "custom.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mocks.config.gotPath != "custom.yaml" {
		t.Errorf("config path = %q, want custom.yaml", mocks.config.gotPath)
	}
	cfg := mocks.factory.gotCfg
	if cfg.Server.Addr != "127.0.0.1:0" {
		t.Errorf("addr = %q, want 127.0.0.1:0", cfg.Server.Addr)
	}
	if cfg.Server.Mode != config.ModeDevelopment {
		t.Errorf("mode = %q, want %q", cfg.Server.Mode, config.ModeDevelopment)
	}
	if !mocks.factory.withGenerator {
		t.Error("server should enable the generation fallback")
	}
	if !mocks.factory.closed {
		t.Error("resolver close function was not called")
	}
}

func TestServeCmd_UsesConfigAddr(t *testing.T) {
	env, mocks := testEnv(nil)
	mocks.config.cfg.Server.Addr = "127.0.0.1:0"

	if err := execute(canceledContext(), ServeCmd(env)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mocks.factory.gotCfg.Server.Mode; got != config.ModeProduction {
		t.Errorf("mode = %q, want %q", got, config.ModeProduction)
	}
}

func TestServeCmd_SetupError(t *testing.T) {
	env, mocks := testEnv(nil)
	errSetup := errors.New("no recognizer")
	mocks.factory.err = errSetup

	err := execute(canceledContext(), ServeCmd(env))
	if !errors.Is(err, errSetup) {
		t.Fatalf("error = %v, want %v", err, errSetup)
	}
}

func TestServeCmd_RejectsArgs(t *testing.T) {
	env, mocks := testEnv(nil)

	if err := execute(canceledContext(), ServeCmd(env), "extra"); err == nil {
		t.Fatal("expected error for positional argument")
	}
	if mocks.factory.calls != 0 {
		t.Error("factory should not be called")
	}
}
