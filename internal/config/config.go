// Package config loads service settings from an optional YAML file and the
// environment. Precedence: defaults, then the file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Environment variables.
const (
	EnvConfigFile  = "YT_TRANSCRIPT_CONFIG"
	EnvAddr        = "YT_TRANSCRIPT_ADDR"
	EnvPort        = "PORT"
	EnvCORSOrigins = "YT_TRANSCRIPT_CORS_ORIGINS"
	EnvMode        = "YT_TRANSCRIPT_MODE"
	EnvLogLevel    = "YT_TRANSCRIPT_LOG_LEVEL"
	EnvLogFormat   = "YT_TRANSCRIPT_LOG_FORMAT"
	EnvScratchDir  = "YT_TRANSCRIPT_SCRATCH_DIR"
	EnvKeepAudio   = "YT_TRANSCRIPT_KEEP_AUDIO"
	EnvRecognizer  = "YT_TRANSCRIPT_RECOGNIZER"
	EnvModel       = "YT_TRANSCRIPT_MODEL"
	EnvWhisperPath = "WHISPER_PATH"
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvRedisURL    = "REDIS_URL"
)

// Server modes. Development mode adds error details to HTTP responses.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Recognizer backends.
const (
	BackendOpenAI  = "openai"
	BackendWhisper = "whisper"
)

// Config holds all service settings.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	ScratchDir string           `yaml:"scratch_dir"`
	KeepAudio  bool             `yaml:"keep_audio"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Redis      RedisConfig      `yaml:"redis"`
	Tools      ToolsConfig      `yaml:"tools"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Parallel   int              `yaml:"parallel"`
}

// ServerConfig configures the HTTP listener.
// CORSOrigins lists the browser origins allowed to call the API; empty or
// "*" allows any origin.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	Mode        string   `yaml:"mode"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RecognizerConfig selects the speech recognition backend.
type RecognizerConfig struct {
	Backend    string `yaml:"backend"`
	Model      string `yaml:"model"`
	WhisperBin string `yaml:"whisper_bin"`
}

// OpenAIConfig holds OpenAI credentials.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
}

// RedisConfig enables the cross-replica generation lock when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ToolsConfig holds explicit paths to external binaries. Empty means
// resolve from FFMPEG_PATH / YTDLP_PATH or PATH.
type ToolsConfig struct {
	FFmpeg string `yaml:"ffmpeg"`
	YtDlp  string `yaml:"yt_dlp"`
}

// TimeoutsConfig bounds each pipeline stage. Values use time.ParseDuration
// syntax ("30s", "10m").
type TimeoutsConfig struct {
	Fetch     string `yaml:"fetch"`
	Download  string `yaml:"download"`
	Recognize string `yaml:"recognize"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:     ServerConfig{Addr: ":3000", Mode: ModeProduction},
		Log:        LogConfig{Level: "info", Format: "text"},
		ScratchDir: filepath.Join(os.TempDir(), "yt-transcript"),
		Recognizer: RecognizerConfig{Backend: BackendOpenAI},
		Timeouts:   TimeoutsConfig{Fetch: "30s", Download: "10m", Recognize: "30m"},
		Parallel:   3,
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/yt-transcript.
func dir(getenv func(string) string) (string, error) {
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yt-transcript"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "yt-transcript"), nil
}

// Path returns the config file to read: path if set, then YT_TRANSCRIPT_CONFIG,
// then the default location. explicit reports whether the file must exist.
func Path(path string, getenv func(string) string) (resolved string, explicit bool, err error) {
	if path != "" {
		return path, true, nil
	}
	if path = getenv(EnvConfigFile); path != "" {
		return path, true, nil
	}
	d, err := dir(getenv)
	if err != nil {
		return "", false, err
	}
	return filepath.Join(d, "config.yaml"), false, nil
}

// Load reads the configuration. path may be empty, in which case
// YT_TRANSCRIPT_CONFIG and then the default location are tried; a missing
// default file is not an error, a missing explicit file is.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	path, explicit, err := Path(path, getenv)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(ExpandPath(path)) // #nosec G304 -- user-provided config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	cfg.ScratchDir = ExpandPath(cfg.ScratchDir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with set environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	if port := strings.TrimSpace(getenv(EnvPort)); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			return fmt.Errorf("%w: %s=%q is not a port number", ErrInvalid, EnvPort, port)
		}
		c.Server.Addr = ":" + port
	}
	set(&c.Server.Addr, EnvAddr)
	set(&c.Server.Mode, EnvMode)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Log.Format, EnvLogFormat)
	set(&c.ScratchDir, EnvScratchDir)
	set(&c.Recognizer.Backend, EnvRecognizer)
	set(&c.Recognizer.Model, EnvModel)
	set(&c.Recognizer.WhisperBin, EnvWhisperPath)
	set(&c.OpenAI.APIKey, EnvAPIKey)
	set(&c.Redis.URL, EnvRedisURL)

	if v := strings.TrimSpace(getenv(EnvCORSOrigins)); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}

	if v := getenv(EnvKeepAudio); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvKeepAudio, v)
		}
		c.KeepAudio = keep
	}
	return nil
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	var problems []string
	check := func(field, value string, allowed ...string) {
		if !slices.Contains(allowed, value) {
			problems = append(problems, fmt.Sprintf("%s must be one of %s (got %q)",
				field, strings.Join(allowed, ", "), value))
		}
	}
	check("server.mode", c.Server.Mode, ModeDevelopment, ModeProduction)
	check("log.level", strings.ToLower(c.Log.Level), "debug", "info", "warn", "error")
	check("log.format", c.Log.Format, "text", "json")
	check("recognizer.backend", c.Recognizer.Backend, BackendOpenAI, BackendWhisper)

	for field, v := range map[string]string{
		"timeouts.fetch":     c.Timeouts.Fetch,
		"timeouts.download":  c.Timeouts.Download,
		"timeouts.recognize": c.Timeouts.Recognize,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be a positive duration (got %q)", field, v))
		}
	}

	if c.Parallel < 1 {
		problems = append(problems, fmt.Sprintf("parallel must be at least 1 (got %d)", c.Parallel))
	}
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}
	for _, o := range c.Server.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			problems = append(problems, fmt.Sprintf("server.cors_origins entries must be \"*\" or start with http:// or https:// (got %q)", o))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// FetchTimeout returns the parsed caption fetch timeout.
func (c Config) FetchTimeout() time.Duration { return mustDuration(c.Timeouts.Fetch) }

// DownloadTimeout returns the parsed audio download timeout.
func (c Config) DownloadTimeout() time.Duration { return mustDuration(c.Timeouts.Download) }

// RecognizeTimeout returns the parsed speech recognition timeout.
func (c Config) RecognizeTimeout() time.Duration { return mustDuration(c.Timeouts.Recognize) }

// mustDuration parses a value already checked by Validate; invalid input yields 0,
// which the consumers treat as "use the default".
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = "********"
	}
	if c.Redis.URL != "" {
		c.Redis.URL = redactURL(c.Redis.URL)
	}
	return c
}

func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://********@" + rest[at+1:]
	}
	return raw
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}
	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
