package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/cwship/internal/adapters/memory"
	"github.com/bft-labs/cwship/internal/cliconfig"
	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/pkg/cwship"
	"github.com/bft-labs/cwship/pkg/log"
	"github.com/bft-labs/cwship/plugins/filetail"
)

const helpDescription = `
Ship log lines to CloudWatch Logs without blocking the producer.

Lines are buffered per stream and delivered in batches on a timer or as soon
as a stream's buffer nears the size limit. Streams are created on first use.

Sources:
  - stdin, one record per line, shipped to --stream
  - files, followed like tail -F, with --tail stream=path (repeatable)

Configure via $HOME/.cwship/config.toml, CWSHIP_* environment variables, or flags.
`

var exampleUsage = strings.TrimSpace(`
  myapp 2>&1 | cwship --log-group myapp --stream web
  cwship --log-group myapp --tail nginx=/var/log/nginx/access.log --add-instance-id
  cwship --log-group myapp --stream web --dry-run < app.log
`)

// maxLineBytes bounds a single stdin line.
const maxLineBytes = domain.MaxPutBytes

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "cwship",
		Short:         "Ship log lines to CloudWatch Logs",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Determine config path (default $HOME/.cwship/config.toml)
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; flags override both
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cliconfig.Logger(cfg.Debug)
			logger.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.cwship/config.toml)")
	root.Flags().StringVar(&cfg.LogGroup, "log-group", cfg.LogGroup, "log group every stream is written to")
	root.Flags().StringVar(&cfg.Stream, "stream", cfg.Stream, "stream that receives lines read from stdin")
	root.Flags().StringArrayVar(&cfg.Tail, "tail", cfg.Tail, "follow a file into a stream, as stream=path (repeatable)")
	root.Flags().BoolVar(&cfg.FromStart, "from-start", cfg.FromStart, "ship existing content of tailed files")

	root.Flags().DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "time between flushes (1m to 30m)")
	root.Flags().IntVar(&cfg.MaxBatchBytes, "max-batch-bytes", cfg.MaxBatchBytes, "buffered bytes per stream that trigger an early flush")
	root.Flags().StringVar(&cfg.Format, "format", cfg.Format, "record format: string or json")
	root.Flags().BoolVar(&cfg.AddTimestamp, "add-timestamp", cfg.AddTimestamp, "add the local time to each record")
	root.Flags().BoolVar(&cfg.AddInstanceID, "add-instance-id", cfg.AddInstanceID, "add the EC2 instance id to each record")
	root.Flags().StringVar(&cfg.FailurePolicy, "failure-policy", cfg.FailurePolicy, "on delivery failure: isolate (retry stream later) or abort (drop cycle)")
	root.Flags().StringVar(&cfg.StatusDir, "status-dir", cfg.StatusDir, "directory for status.json (disabled when empty)")
	root.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "log every append and delivery step")

	root.Flags().StringVar(&cfg.Region, "region", cfg.Region, "AWS region (defaults to the SDK's resolution)")
	root.Flags().StringVar(&cfg.Profile, "profile", cfg.Profile, "AWS shared config profile")
	root.Flags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "CloudWatch Logs endpoint override")
	if err := root.Flags().MarkHidden("endpoint"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	root.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "print batches to stdout instead of calling AWS")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger := cliconfig.Logger(false)
		logger.Error().Err(err).Msg("cwship")
		stop()
		os.Exit(1)
	}
}

// run builds the shipper, feeds it from stdin and tailed files, and stops it
// when input ends or ctx is cancelled.
func run(ctx context.Context, cfg cliconfig.Config, logger zerolog.Logger, stdin io.Reader, stdout io.Writer) error {
	libLogger := log.FromZerolog(logger)

	opts := []cwship.Option{cwship.WithLogger(libLogger)}

	if cfg.DryRun {
		opts = append(opts, cwship.WithLogsClient(memory.NewClient(
			memory.WithAutoCreateGroups(),
			memory.WithPutHook(func(group, stream string, records []domain.Record) {
				for _, rec := range records {
					fmt.Fprintf(stdout, "%s/%s %d %s\n", group, stream, rec.Timestamp, rec.Message)
				}
			}),
		)))
	} else {
		awsCfg, err := cwship.LoadAWSConfig(ctx, cfg.Region, cfg.Profile)
		if err != nil {
			return err
		}
		opts = append(opts, cwship.WithAWSConfig(awsCfg, cfg.Endpoint))
	}

	files, err := cfg.TailFiles()
	if err != nil {
		return err
	}
	if len(files) > 0 {
		opts = append(opts, filetail.WithFileTail(filetail.Config{
			Files:     files,
			FromStart: cfg.FromStart,
		}))
	}

	s, err := cwship.New(cfg.ShipperConfig(), opts...)
	if err != nil {
		return fmt.Errorf("create shipper: %w", err)
	}

	// The shipper outlives ctx so Stop can run the final flush.
	if err := s.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start shipper: %w", err)
	}

	inputDone := make(chan error, 1)
	if cfg.Stream != "" {
		go func() { inputDone <- readLines(ctx, stdin, cfg.Stream, s) }()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("received signal, stopping...")
	case err := <-inputDone:
		if err != nil {
			logger.Error().Err(err).Msg("read stdin")
		}
		if len(files) > 0 {
			// Keep tailing until interrupted.
			<-ctx.Done()
			logger.Info().Msg("received signal, stopping...")
		}
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop shipper: %w", err)
	}

	totals := s.Delivery().Totals()
	logger.Info().
		Uint64("delivered", totals.RecordsSent).
		Uint64("dropped", totals.RecordsDropped).
		Int("pending", s.Pending()).
		Msg("shipper stopped")
	return nil
}

// readLines ships each line of r to stream until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader, stream string, s *cwship.Shipper) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		s.Log(stream, line)
	}
	return scanner.Err()
}
