package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/yt-transcript/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Inspect and initialize the configuration file.

Configuration is read from --config, then $YT_TRANSCRIPT_CONFIG, then
~/.config/yt-transcript/config.yaml. Environment variables override file values:

  YT_TRANSCRIPT_ADDR, YT_TRANSCRIPT_MODE, YT_TRANSCRIPT_LOG_LEVEL,
  YT_TRANSCRIPT_LOG_FORMAT, YT_TRANSCRIPT_SCRATCH_DIR, YT_TRANSCRIPT_KEEP_AUDIO,
  YT_TRANSCRIPT_RECOGNIZER, YT_TRANSCRIPT_MODEL, YT_TRANSCRIPT_CORS_ORIGINS,
  WHISPER_PATH, OPENAI_API_KEY, REDIS_URL

PORT is used as the listen address (":$PORT") when YT_TRANSCRIPT_ADDR is unset.`,
		Example: `  yt-transcript config init
  yt-transcript config show
  yt-transcript config path`,
	}

	cmd.AddCommand(configShowCmd(env))
	cmd.AddCommand(configPathCmd(env))
	cmd.AddCommand(configInitCmd(env))

	return cmd
}

// configShowCmd creates the "config show" subcommand.
func configShowCmd(env *Env) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration as YAML, after defaults, the file and
environment variables are merged. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(env, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file")
	return cmd
}

// configPathCmd creates the "config path" subcommand.
func configPathCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := config.Path("", env.Getenv)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, path)
			return nil
		},
	}
}

// configInitCmd creates the "config init" subcommand.
func configInitCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Long: `Write a config file with default values to the config location.
Fails if the file already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(env)
		},
	}
}

func runConfigShow(env *Env, configPath string) error {
	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}
	data, err := cfg.Redacted().Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = env.Stdout.Write(data)
	return err
}

func runConfigInit(env *Env) error {
	path, _, err := config.Path("", env.Getenv)
	if err != nil {
		return err
	}
	path = config.ExpandPath(path)

	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Wrote %s\n", path)
	return nil
}
