package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/bnema/anyconv/config"
	"github.com/bnema/anyconv/internal/adapter/ffmpeg"
	"github.com/bnema/anyconv/internal/adapter/office"
	"github.com/bnema/anyconv/internal/adapter/pdf"
	"github.com/bnema/anyconv/internal/adapter/stills"
	sqlitestore "github.com/bnema/anyconv/internal/adapter/storage/sqlite"
	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/metadata"
	"github.com/bnema/anyconv/internal/port"
	"github.com/bnema/anyconv/internal/progress"
	"github.com/bnema/anyconv/internal/service"
)

var knownLocales = map[string]bool{
	"en": true, "fr": true, "de": true, "es": true, "it": true,
	"pt": true, "ja": true, "zh": true,
}

func main() {
	app := &cli.App{
		Name:  "anyconv",
		Usage: "batch-convert audio, image, movie and document files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "input", Aliases: []string{"i"}, Usage: "input file or directory (repeatable)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory or file"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "target format, codec or protocol (comma-separated for several)"},
			&cli.BoolFlag{Name: "merge", Aliases: []string{"m"}, Usage: "merge each movie with its audio partner"},
			&cli.BoolFlag{Name: "concat", Aliases: []string{"c"}, Usage: "concatenate the batch into one output"},
			&cli.StringFlag{Name: "split", Aliases: []string{"s"}, Usage: "split PDFs by page ranges, e.g. \"1-3,7,12-\""},
			&cli.IntFlag{Name: "framerate", Aliases: []string{"fps"}, Usage: "framerate override"},
			&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Usage: "high, medium or low"},
			&cli.BoolFlag{Name: "delete", Aliases: []string{"d"}, Usage: "delete sources after successful conversion"},
			&cli.BoolFlag{Name: "across", Aliases: []string{"a"}, Usage: "treat all inputs as one batch"},
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "walk input directories recursively"},
			&cli.BoolFlag{Name: "dropzone", Aliases: []string{"z"}, Usage: "watch the input directory and convert new files"},
			&cli.IntFlag{Name: "workers", Usage: "worker pool size (overrides MAX_WORKERS)"},
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "locale override"},
			&cli.BoolFlag{Name: "web", Aliases: []string{"w"}, Usage: "hand the request to the web front-end"},
			&cli.StringSliceFlag{Name: "metadata-tags", Usage: "extra sidecar tags as key:value (repeatable)"},
			&cli.BoolFlag{Name: "silent", Usage: "suppress progress bars"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error.Printf("%v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	if c.Bool("web") {
		// The web front-end is a separate process; nothing to run here.
		logger.Info.Printf("web mode requested; start the anyconv web front-end and point it at the same inputs")
		return nil
	}

	if lang := c.String("language"); lang != "" && !knownLocales[strings.ToLower(lang)] {
		logger.Warn.Printf("unknown locale %q, falling back to en", lang)
	}

	customTags, err := metadata.ParseCustomTags(c.StringSlice("metadata-tags"))
	if err != nil {
		return err
	}

	inputs := c.StringSlice("input")
	// Bare positional arguments are accepted as inputs too.
	inputs = append(inputs, c.Args().Slice()...)

	req := &domain.RunRequest{
		Inputs:       inputs,
		TargetFormat: c.String("format"),
		Output:       c.String("output"),
		Framerate:    c.Int("framerate"),
		Quality:      domain.ParseQuality(c.String("quality")),
		Merge:        c.Bool("merge"),
		Concat:       c.Bool("concat"),
		SplitRanges:  c.String("split"),
		DeleteSource: c.Bool("delete"),
		Across:       c.Bool("across"),
		Recursive:    c.Bool("recursive"),
		Dropzone:     c.Bool("dropzone"),
		Workers:      c.Int("workers"),
		Language:     c.String("language"),
		CustomTags:   customTags,
	}
	if req.Workers == 0 {
		req.Workers = cfg.Workers()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	history, err := sqlitestore.NewHistory(cfg.DataDir)
	if err != nil {
		// History is bookkeeping; a broken store must not block conversions.
		logger.Warn.Printf("conversion history disabled: %v", err)
		history = nil
	}
	defer func() {
		if history != nil {
			_ = history.Close()
		}
	}()

	tracker := progress.NewTracker()
	reporter := progress.NewReporter(tracker, c.Bool("silent"))

	conv := service.NewConverter(
		ffmpeg.NewEngine(reporter),
		stills.NewEngine(),
		pdf.NewEngine(),
		office.NewEngine(),
		reporter,
		historyOrNil(history),
	)
	dispatcher := service.NewDispatcher(conv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return dispatcher.Run(ctx, req)
}

// historyOrNil avoids handing the converter a typed nil pointer wrapped in
// a non-nil interface.
func historyOrNil(h *sqlitestore.History) port.History {
	if h == nil {
		return nil
	}
	return h
}
