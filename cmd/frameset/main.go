// Package main provides the CLI entry point for frameset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/frameset/pkg/adapters/ggrenderer"
	"github.com/user/frameset/pkg/adapters/logger"
	"github.com/user/frameset/pkg/adapters/osfilesystem"
	"github.com/user/frameset/pkg/adapters/smartdecoder"
	"github.com/user/frameset/pkg/config"
	"github.com/user/frameset/pkg/framestore"
	"github.com/user/frameset/pkg/metrics"
	"github.com/user/frameset/pkg/orchestrator"
	"github.com/user/frameset/pkg/ports"
	"github.com/user/frameset/pkg/stages/extract"
	"github.com/user/frameset/pkg/stages/preprocess"
	"github.com/user/frameset/pkg/summarizer"
	"github.com/user/frameset/pkg/transform"
	"github.com/user/frameset/pkg/uploadformat"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "frameset",
		Usage:   l10n.T("Build labeled frame datasets from raw videos"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Value:    "info",
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				EnvVars:  []string{"FRAMESET_LOG_LEVEL"},
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
			&cli.StringFlag{
				Name:     "summary",
				Usage:    l10n.T("Write a Markdown run summary to this file"),
				Category: l10n.T("Reports"),
			},
			&cli.StringFlag{
				Name:     "metrics-file",
				Usage:    l10n.T("Write Prometheus metrics to this file"),
				Category: l10n.T("Reports"),
			},
		},
		Commands: []*cli.Command{
			extractCommand(),
			preprocessCommand(),
			reviewCommand(),
			exportCommand(),
			versionCommand(),
		},
	}
}

func configFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    l10n.T("Dataset configuration file (YAML)"),
		Required: required,
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "workers",
		Usage: l10n.T("Number of preprocessing workers (0 = one per CPU)"),
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: l10n.T("Extract labeled frames from the videos of every label directory"),
		Flags: []cli.Flag{
			configFlag(true),
			&cli.StringFlag{Name: "src", Usage: l10n.T("Directory holding one subdirectory of videos per label"), Required: true},
			&cli.StringFlag{Name: "dst", Usage: l10n.T("Destination frame dataset directory"), Required: true},
			&cli.BoolFlag{Name: "apply-transforms", Usage: l10n.T("Apply the preprocessing transformations before saving")},
			&cli.StringFlag{Name: "ffmpeg", Usage: l10n.T("Path to the ffmpeg executable"), EnvVars: []string{"FRAMESET_FFMPEG"}},
			&cli.Float64Flag{Name: "frame-rate", Usage: l10n.T("Frame rate of MJPEG streams")},
			workersFlag(),
		},
		Action: runExtract,
	}
}

func preprocessCommand() *cli.Command {
	return &cli.Command{
		Name:  "preprocess",
		Usage: l10n.T("Apply the preprocessing transformations to a frame dataset"),
		Flags: []cli.Flag{
			configFlag(true),
			&cli.StringFlag{Name: "src", Usage: l10n.T("Source frame dataset directory"), Required: true},
			&cli.StringFlag{Name: "dst", Usage: l10n.T("Destination frame dataset directory"), Required: true},
			workersFlag(),
		},
		Action: runPreprocess,
	}
}

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     l10n.T("Review and correct the frame labels of one video"),
		UsageText: l10n.T("Keys: n/right next, p/left previous, t cycle label, s save, q quit"),
		Flags: []cli.Flag{
			configFlag(false),
			&cli.StringFlag{Name: "frames", Usage: l10n.T("Frame directory of the video to review"), Required: true},
			&cli.StringFlag{Name: "dst", Usage: l10n.T("Dataset directory to save into (default: parent of --frames)")},
			&cli.StringSliceFlag{Name: "classes", Usage: l10n.T("Classes to cycle through (default: configured classes)")},
			&cli.StringFlag{Name: "preview", Usage: l10n.T("Image file updated with the current frame after every key")},
			&cli.StringFlag{Name: "font", Usage: l10n.T("Font file (TTF) for the preview captions")},
		},
		Action: runReview,
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: l10n.T("Flatten a frame dataset into one directory per label for upload"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "src", Usage: l10n.T("Source frame dataset directory"), Required: true},
			&cli.StringFlag{Name: "dst", Usage: l10n.T("Upload directory"), Required: true},
			&cli.StringSliceFlag{Name: "skip-label", Usage: l10n.T("Labels to leave out, e.g. unknown")},
		},
		Action: runExport,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("frameset version %s", version))
			return nil
		},
	}
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("frame-rate") {
		cfg.FrameRate = c.Float64("frame-rate")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// batch holds the wiring shared by extract and preprocess.
type batch struct {
	cfg     config.Config
	log     ports.Logger
	fs      ports.FileSystem
	metrics *metrics.Recorder
	orch    *orchestrator.Orchestrator
	decoder *smartdecoder.Decoder
}

func newBatch(c *cli.Context) (*batch, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log := newLogger(c)

	storeOpts, err := cfg.StoreOptions()
	if err != nil {
		return nil, err
	}

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	store := framestore.New(fs, renderer, storeOpts, log)

	decoder := smartdecoder.New(smartdecoder.Options{
		FFmpegPath: cfg.FFmpegPath,
		FrameRate:  cfg.FrameRate,
	})
	if !decoder.FFmpegAvailable() {
		log.Warn("ffmpeg not found, only MJPEG videos can be decoded")
	}

	var rec *metrics.Recorder
	if c.String("metrics-file") != "" {
		rec = metrics.New()
	}

	orch := orchestrator.New(
		extract.NewStage(decoder, log),
		preprocess.NewStage(log, cfg.Workers),
		store,
		fs,
		transform.NewRegistry(),
		rec,
		log,
	)

	return &batch{cfg: cfg, log: log, fs: fs, metrics: rec, orch: orch, decoder: decoder}, nil
}

// report writes the summary and metrics files requested on the command line.
func (b *batch) report(c *cli.Context, result orchestrator.RunResult) error {
	if path := c.String("summary"); path != "" {
		s := buildSummary(result, b.cfg)
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(func(key string) string { return l10n.T(key) }),
			summarizer.WithVersion(version),
		), b.fs)
		if err := w.Write(path, s); err != nil {
			return err
		}
		b.log.Info("Summary written to %s", path)
	}

	if path := c.String("metrics-file"); path != "" && b.metrics != nil {
		if err := b.fs.MkdirAll(filepath.Dir(path)); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
		if err := b.metrics.WriteTextfile(path); err != nil {
			return err
		}
		b.log.Info("Metrics written to %s", path)
	}
	return nil
}

func runExtract(c *cli.Context) error {
	b, err := newBatch(c)
	if err != nil {
		return err
	}
	defer b.decoder.Close()

	req, err := b.cfg.ToExtractRequest(c.String("src"), c.String("dst"), c.Bool("apply-transforms"))
	if err != nil {
		return err
	}

	result, err := b.orch.ExtractDataset(c.Context, req)
	if err != nil {
		return err
	}
	return b.report(c, result)
}

func runPreprocess(c *cli.Context) error {
	b, err := newBatch(c)
	if err != nil {
		return err
	}
	defer b.decoder.Close()

	result, err := b.orch.PreprocessDataset(c.Context, b.cfg.ToPreprocessRequest(c.String("src"), c.String("dst")))
	if err != nil {
		return err
	}
	return b.report(c, result)
}

func runExport(c *cli.Context) error {
	log := newLogger(c)
	exporter := uploadformat.New(osfilesystem.New(), log)

	_, err := exporter.Export(c.Context, c.String("src"), c.String("dst"), uploadformat.Options{
		SkipLabels: c.StringSlice("skip-label"),
	})
	return err
}

// buildSummary converts a run result into a summary.
func buildSummary(result orchestrator.RunResult, cfg config.Config) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithRun(result.Operation, result.SourceRoot, result.DestRoot, result.Elapsed).
		WithSettings(summarizer.Settings{
			Transforms:  result.Transforms,
			StoreFormat: cfg.Store.Format,
			Quality:     cfg.Store.Quality,
			Workers:     cfg.Workers,
			FrameRate:   cfg.FrameRate,
		}).
		WithLabelCounts(result.LabelCounts())

	for _, v := range result.Videos {
		info := summarizer.VideoInfo{
			Name:        v.Name,
			SourceLabel: v.SourceLabel,
			Frames:      v.Frames,
			DurationMs:  v.DurationMs,
			ElapsedMs:   int(v.Elapsed.Milliseconds()),
		}
		if v.Err != nil {
			info.Error = v.Err.Error()
		}
		b.WithVideo(info)
	}
	return b.Build()
}
