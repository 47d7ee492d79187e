package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/correlator"
	"github.com/denizgursoy/cacik-reporter/pkg/metrics"
	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
	"github.com/denizgursoy/cacik-reporter/pkg/runner"
	"github.com/denizgursoy/cacik-reporter/pkg/sink"
)

// ErrTestsFailed is returned by the replay command when at least one test
// failed.
var ErrTestsFailed = runner.ErrTestsFailed

const ndjsonBuffer = 64

type fileOpener struct{}

func (fileOpener) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// StartApplication runs the command line with args.
func StartApplication(ctx context.Context, args []string) error {
	root := NewRootCmd(fileOpener{})
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func NewRootCmd(opener StreamOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "cacik-reporter",
		Short:         "cacik-reporter - turns cucumber runner events into suite and test events",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(NewReplayCmd(opener))
	return root
}

// NewReplayCmd creates the replay subcommand.
func NewReplayCmd(opener StreamOpener) *cobra.Command {
	flags := &Config{}
	var configPath string

	cmd := &cobra.Command{
		Use:          "replay [events.ndjson]",
		Short:        "Replay a recorded runner event stream (stdin when no file is given)",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := []*Config{DefaultConfig()}
			if configPath != "" {
				fileConfig, err := LoadConfig(configPath)
				if err != nil {
					return err
				}
				configs = append(configs, fileConfig)
			}
			cfg := MergeConfigs(append(configs, flags)...)
			if err := cfg.Validate(); err != nil {
				return err
			}

			input := cmd.InOrStdin()
			if len(args) == 1 {
				stream, err := opener.Open(args[0])
				if err != nil {
					return fmt.Errorf("could not open %s: %w", args[0], err)
				}
				defer stream.Close()
				input = stream
			}

			return replay(cmd.Context(), cfg, input, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&flags.CID, "cid", "", "run identifier written to every message")
	cmd.Flags().StringSliceVar(&flags.Specs, "specs", nil, "spec files, the first is used when a message has no source")
	cmd.Flags().BoolVar(&flags.TagsInTitle, "tags-in-title", false, "prefix suite titles with their tags")
	cmd.Flags().BoolVar(&flags.FailAmbiguousDefinitions, "fail-ambiguous-definitions", false, "report the runner's message for ambiguous steps")
	cmd.Flags().StringVar(&flags.Format, "format", "", "output format: ndjson, console or html")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "disable colored console output")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while replaying")

	return cmd
}

func replay(ctx context.Context, cfg *Config, input io.Reader, stdout, stderr io.Writer) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	registry := prometheus.NewRegistry()
	options := []reporter.Option{
		reporter.WithTagsInTitle(cfg.TagsInTitle),
		reporter.WithFailAmbiguousDefinitions(cfg.FailAmbiguousDefinitions),
		reporter.WithSpecs(cfg.Specs...),
		reporter.WithLogger(logger),
		reporter.WithMetrics(metrics.New(registry)),
	}

	var out reporter.Sink
	var finish func() error
	switch cfg.Format {
	case FormatConsole:
		console := sink.NewConsole(stdout, cfg.NoColor)
		out = console
		finish = func() error {
			console.PrintSummary()
			return nil
		}
	case FormatHTML:
		report := sink.NewHTML(stdout)
		out = report
		finish = report.Close
	default:
		ndjson := sink.NewNDJSON(stdout, ndjsonBuffer)
		out = ndjson
		finish = ndjson.Close
	}

	rep := reporter.New(out, cfg.CID, options...)
	pipeline := runner.NewPipeline(correlator.New(correlator.WithLogger(logger)), rep, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	stopMetrics := serveMetrics(groupCtx, group, cfg.MetricsAddr, registry, logger)

	group.Go(func() error {
		defer stopMetrics()

		replayErr := pipeline.Replay(groupCtx, input)
		if replayErr == nil {
			replayErr = pipeline.Settle(groupCtx)
		}
		return errors.Join(replayErr, finish())
	})

	if err := group.Wait(); err != nil {
		return err
	}

	if failed := pipeline.FailedCount(); failed > 0 {
		return fmt.Errorf("%w: %d", ErrTestsFailed, failed)
	}
	return nil
}

// serveMetrics exposes the registry on addr until the returned stop function
// is called. An empty addr serves nothing.
func serveMetrics(ctx context.Context, group *errgroup.Group, addr string, registry *prometheus.Registry, logger cacik.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	group.Go(func() error {
		logger.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	return func() {
		if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("could not stop metrics server", "error", err)
		}
	}
}
