package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/logger"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/internal/version"
	"github.com/rxtech-lab/argo-archiver/pkg/archive"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/catalog"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/provider"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitConfig  = 2
	dateLayout  = "2006-01-02"
	defaultRoot = "."
)

// loadConfig reads --config and applies the flags that override it.
func loadConfig(cmd *cli.Command) (archive.Config, error) {
	config, err := archive.LoadConfig(cmd.String("config"))
	if err != nil {
		return archive.Config{}, err
	}

	if cmd.IsSet("source") {
		config.Source = provider.SourceType(cmd.String("source"))
	}

	if cmd.IsSet("log-level") {
		config.LogLevel = cmd.String("log-level")
	}

	if cmd.IsSet("skip-symbol-check") {
		config.SkipSymbolCheck = cmd.Bool("skip-symbol-check")
	}

	if err := config.Validate(); err != nil {
		return archive.Config{}, err
	}

	return config, nil
}

func newLogger(level string) (*logger.Logger, error) {
	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return nil, archiveErrors.Wrap(archiveErrors.ErrCodeInvalidConfiguration, "invalid log level", err)
	}

	return log, nil
}

// downloadAction archives the requested range and prints the run summary.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return exitError(err)
	}

	log, err := newLogger(config.LogLevel)
	if err != nil {
		return exitError(err)
	}
	defer log.Sync()

	channels, err := parseChannels(cmd.StringSlice("channels"))
	if err != nil {
		return exitError(err)
	}

	intervals, err := parseIntervals(cmd.StringSlice("bars"))
	if err != nil {
		return exitError(err)
	}

	params := archive.Params{
		Symbols:   splitValues(cmd.StringSlice("symbols")),
		Channels:  channels,
		Intervals: intervals,
		Start:     cmd.Timestamp("start"),
		End:       cmd.Timestamp("end"),
		Root:      cmd.String("save_to"),
	}

	var opts []archive.ArchiverOption
	if !cmd.Bool("no-progress") {
		opts = append(opts, archive.WithProgress(newProgress(cmd.Root().ErrWriter)))
	}

	archiver, err := archive.NewClient(config, log.Logger, opts...)
	if err != nil {
		return exitError(err)
	}

	report, runErr := archiver.Run(ctx, params)
	if report == nil {
		return exitError(runErr)
	}

	fmt.Fprintln(cmd.Root().Writer)
	fmt.Fprint(cmd.Root().Writer, report.Summary())

	if runErr != nil {
		return exitError(runErr)
	}

	if report.HasFailures() {
		return cli.Exit("some days failed to download, re-run to retry them", exitFailed)
	}

	return nil
}

// newProgress renders archive progress as a progress bar.
func newProgress(w io.Writer) archive.OnProgress {
	var bar *progressbar.ProgressBar

	return func(current, total int, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Archiving"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			)
		}

		bar.Describe(message)
		_ = bar.Set(current)
	}
}

// statsAction prints what the archive holds for each requested combination.
func statsAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return exitError(err)
	}

	channels, err := parseChannels(cmd.StringSlice("channels"))
	if err != nil {
		return exitError(err)
	}

	intervals, err := parseIntervals(cmd.StringSlice("bars"))
	if err != nil {
		return exitError(err)
	}

	cat, err := catalog.Open(cmd.String("save_to"), config.Exchange)
	if err != nil {
		return exitError(err)
	}
	defer cat.Close()

	w := cmd.Root().Writer

	for _, symbol := range splitValues(cmd.StringSlice("symbols")) {
		for _, channel := range channels {
			combinationIntervals := []types.Interval{""}
			if channel.HasIntervals() {
				combinationIntervals = intervals
			}

			for _, interval := range combinationIntervals {
				stats, err := cat.Stats(ctx, symbol, channel, interval)
				if err != nil {
					return exitError(err)
				}

				printStats(w, stats)
			}
		}
	}

	return nil
}

func printStats(w io.Writer, stats catalog.Stats) {
	name := archive.Combination{Symbol: stats.Symbol, Channel: stats.Channel, Interval: stats.Interval}.String()

	if stats.Files == 0 {
		fmt.Fprintf(w, "%s: no files\n", name)

		return
	}

	fmt.Fprintf(w, "%s: %d files from %s to %s, %d rows (%s .. %s), %d empty days, %d missing days\n",
		name, stats.Files,
		stats.FirstDay.Format(time.DateOnly), stats.LastDay.Format(time.DateOnly),
		stats.Rows, stats.FirstTimestamp, stats.LastTimestamp,
		len(stats.EmptyDays), len(stats.MissingDays))

	for _, day := range stats.MissingDays {
		fmt.Fprintf(w, "  missing %s\n", day.Format(time.DateOnly))
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	config := archive.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}

// exitError maps err onto the process exit code.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	if archiveErrors.IsConfigurationError(err) {
		return cli.Exit(err.Error(), exitConfig)
	}

	return cli.Exit(err.Error(), exitFailed)
}

func selectionFlags(symbolsRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "symbols",
			Usage:    "Symbols or indices, repeated or comma separated (e.g. XBTUSD,ETHUSD)",
			Required: symbolsRequired,
		},
		&cli.StringSliceFlag{
			Name:     "channels",
			Usage:    "Channels to download: bars, quotes, trades",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "bars",
			Usage: "Bar intervals, required with channel bars: 1m, 5m, 1h, 1d",
		},
		&cli.StringFlag{
			Name:  "save_to",
			Usage: "Archive root directory. It must exist",
			Value: defaultRoot,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML config file",
		},
	}
}

func newApp() *cli.Command {
	downloadFlags := append(selectionFlags(true),
		&cli.TimestampFlag{
			Name:     "start",
			Usage:    "First day to download in `YYYY-MM-DD` format",
			Required: true,
			Config: cli.TimestampConfig{
				Layouts:  []string{dateLayout},
				Timezone: time.UTC,
			},
		},
		&cli.TimestampFlag{
			Name:     "end",
			Usage:    "Last day to download in `YYYY-MM-DD` format. Clamped to yesterday",
			Required: true,
			Config: cli.TimestampConfig{
				Layouts:  []string{dateLayout},
				Timezone: time.UTC,
			},
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: fmt.Sprintf("Source of quotes and trades (%v)", provider.GetSupportedSources()),
		},
		&cli.BoolFlag{
			Name:  "skip-symbol-check",
			Usage: "Do not validate symbols against the instrument list",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Do not render a progress bar",
		},
	)

	return &cli.Command{
		Name:    "archiver",
		Usage:   "Download BitMEX historical market data into a day-partitioned CSV archive",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:   "download",
				Usage:  "Download every missing day of the requested symbols and channels",
				Flags:  downloadFlags,
				Action: downloadAction,
			},
			{
				Name:   "stats",
				Usage:  "Summarize the archived days",
				Flags:  selectionFlags(true),
				Action: statsAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
		// exit codes are resolved by run
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp()
	app.Writer = stdout
	app.ErrWriter = stderr

	err := app.Run(ctx, args)
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(stderr, "Error:", err)

	if exitCoder, ok := err.(cli.ExitCoder); ok {
		return exitCoder.ExitCode()
	}

	// flag parsing failures
	return exitConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
