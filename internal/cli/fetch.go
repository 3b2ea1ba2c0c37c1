package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/yt-transcript/internal/config"
	"github.com/alnah/yt-transcript/internal/format"
	"github.com/alnah/yt-transcript/internal/lang"
	"github.com/alnah/yt-transcript/internal/transcript"
)

// defaultFetchParallel bounds concurrent videos in one fetch.
const defaultFetchParallel = 2

// fetchOptions holds parsed flags of the fetch command.
type fetchOptions struct {
	configPath string
	language   string
	format     string
	output     string
	noGenerate bool
	parallel   int
}

// FetchCmd creates the fetch command.
// The env parameter provides injectable dependencies for testing.
func FetchCmd(env *Env) *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <url-or-id>...",
		Short: "Print the transcript of one or more videos",
		Long: `Fetch transcripts from the command line.

Each argument is a YouTube URL (watch, youtu.be, embed, shorts, live) or an
11-character video ID. Authored captions are used when available; otherwise the
audio is downloaded and transcribed unless --no-generate is set.

With one video and --output, the transcript is written to that file. With
several videos, --output names a directory and each transcript is written to
<videoId>.<ext> inside it. Without --output, transcripts go to stdout.`,
		Example: `  yt-transcript fetch https://youtu.be/dQw4w9WgXcQ
  yt-transcript fetch dQw4w9WgXcQ -l fr -f srt -o rick.srt
  yt-transcript fetch --no-generate -f text ID1 ID2 ID3 -o transcripts/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, env, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "Preferred language (code or English name, e.g. fr, pt-BR, German)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(format.JSON), "Output format: json, srt, vtt, text")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (one video) or directory (several videos)")
	cmd.Flags().BoolVar(&opts.noGenerate, "no-generate", false, "Do not fall back to speech recognition")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", defaultFetchParallel, "Videos processed concurrently")

	return cmd
}

// fetchResult is the rendered output of one reference.
type fetchResult struct {
	ref  string
	res  transcript.Result
	body []byte
	err  error
}

func runFetch(cmd *cobra.Command, env *Env, refs []string, opts fetchOptions) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	out, err := format.ParseOutput(opts.format)
	if err != nil {
		return err
	}
	if opts.language != "" && lang.Normalize(opts.language) == "" {
		fmt.Fprintf(env.Stderr, "Warning: unknown language %q, using provider default\n", opts.language)
	}

	cfg, err := env.ConfigLoader.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, cfg.Log)

	// === SETUP ===

	resolver, closeFn, err := env.ResolverFactory.NewResolver(ctx, cfg, logger, !opts.noGenerate)
	if err != nil {
		return err
	}
	defer closeFn()

	// === RESOLVE ===

	generate := !opts.noGenerate
	results := make([]fetchResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))

	for i, ref := range refs {
		results[i].ref = ref
		g.Go(func() error {
			res, err := resolver.Resolve(gctx, transcript.Request{
				VideoID:            ref,
				Lang:               opts.language,
				GenerateIfNotFound: &generate,
			})
			if err != nil {
				results[i].err = fmt.Errorf("%s: %w", ref, err)
				return nil // keep going; failures are reported per video
			}
			var buf bytes.Buffer
			if err := format.Render(&buf, out, res); err != nil {
				return err
			}
			results[i].res, results[i].body = res, buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if err := writeResult(env, r, out, opts.output, len(refs) > 1); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.res.Generated {
			fmt.Fprintf(env.Stderr, "%s: transcript generated by speech recognition\n", r.res.VideoID)
		}
	}
	return errors.Join(errs...)
}

// writeResult sends one rendered transcript to stdout or a file.
func writeResult(env *Env, r fetchResult, out format.Output, output string, batch bool) error {
	if output == "" {
		_, err := env.Stdout.Write(r.body)
		return err
	}

	name := string(r.res.VideoID) + out.Extension()
	var path string
	if batch {
		path = config.ResolveOutputPath("", config.ExpandPath(output), name)
	} else {
		path = config.ResolveOutputPath(config.ExpandPath(output), "", name)
	}
	if err := writeFileAtomic(path, r.body); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Done: %s\n", path)
	return nil
}
