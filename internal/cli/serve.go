package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/httpapi"
)

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var (
		configPath string
		addr       string
		dev        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcript HTTP API",
		Long: `Run the HTTP API.

POST /api/youtube/transcript accepts {"url", "videoId", "lang", "generateIfNotFound"}
and returns the transcript, falling back to speech recognition when the video
has no captions. Add ?format=srt|vtt|text for subtitle or plain text output.

The server drains in-flight requests on SIGINT/SIGTERM.`,
		Example: `  yt-transcript serve
  yt-transcript serve --addr :8080 --dev
  yt-transcript serve --config ./config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, configPath, addr, dev)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: $YT_TRANSCRIPT_CONFIG or ~/.config/yt-transcript/config.yaml)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode: include error details in responses")

	return cmd
}

func runServe(cmd *cobra.Command, env *Env, configPath, addr string, dev bool) error {
	ctx := cmd.Context()

	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dev {
		cfg.Server.Mode = config.ModeDevelopment
	}
	development := cfg.Server.Mode == config.ModeDevelopment

	logger := newLogger(env.Stderr, cfg.Log)
	if development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	resolver, closeFn, err := env.ResolverFactory.NewResolver(ctx, cfg, logger, true)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer closeFn()

	srv := httpapi.New(resolver,
		httpapi.WithLogger(logger),
		httpapi.WithDevelopment(development),
		httpapi.WithVersion(env.Version),
		httpapi.WithCORSOrigins(cfg.Server.CORSOrigins),
	)
	return srv.Run(ctx, cfg.Server.Addr)
}
