package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	storec "saber/client/store"
	"saber/config"
	"saber/internal/pkg/ingest"
	"saber/internal/pkg/parse"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/fsnotify/fsnotify"
)

// loader runs the ingestion pipeline without the HTTP daemon: a one-shot
// scan for cron-style deployments, or --watch for continuous ingestion.
func main() {
	var (
		configFile = kingpin.Flag("config", "Path to YAML config file").Short('c').Default("config.yaml").Envar("SABER_CONFIG").String()
		oneFile    = kingpin.Flag("file", "Ingest only the named file from the log directory").Short('f').String()
		watch      = kingpin.Flag("watch", "Keep running: rescan on directory changes and every scan interval").Short('w').Bool()
		logFormat  = kingpin.Flag("log-format", "Log format").Default("text").Envar("SABER_LOG_FORMAT").Enum("text", "json")
		logOutput  = kingpin.Flag("log-output", "Log output destination").Default("stdout").Envar("SABER_LOG_OUTPUT").Enum("stdout", "stderr")
	)
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger, err := newLogger(*logOutput, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", *configFile), slog.Any("err", err))
		os.Exit(1)
	}

	schema, err := parse.NewSchema(cfg.Server.LogSchema)
	if err != nil {
		logger.Error("failed to validate log schema", slog.Any("err", err))
		os.Exit(1)
	}

	scli, err := storec.New(cfg.Server.Store, logger)
	if err != nil {
		logger.Error("failed to initialize store client", slog.Any("err", err))
		os.Exit(1)
	}
	defer scli.Close()

	orch := ingest.New(scli, schema, ingest.Options{
		Dir:             cfg.Server.Ingest.LogDirectory,
		Pattern:         cfg.Server.Ingest.FilePattern,
		Workers:         cfg.Server.Ingest.Workers,
		FallbackWallet:  cfg.Server.Ingest.FallbackWallet,
		MaxMappingDepth: cfg.Server.Ingest.MaxMappingDepth,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *oneFile != "":
		report, err := orch.IngestFile(ctx, filepath.Base(*oneFile))
		if err != nil {
			logger.Error("ingestion failed", slog.Any("err", err))
			os.Exit(1)
		}
		if report.FilesFailed > 0 {
			os.Exit(1)
		}
	case *watch:
		if err := watchLoop(ctx, orch, cfg.Server.Ingest, logger); err != nil {
			logger.Error("watch loop failed", slog.Any("err", err))
			os.Exit(1)
		}
	default:
		report, err := orch.Ingest(ctx)
		if err != nil {
			logger.Error("ingestion failed", slog.Any("err", err))
			os.Exit(1)
		}
		if report.FilesFailed > 0 {
			os.Exit(1)
		}
	}
}

// watchLoop rescans on filesystem events in the log directory, debounced,
// plus a periodic full rescan as a safety net for missed events (e.g. on
// network filesystems fsnotify cannot see writes from other hosts).
func watchLoop(ctx context.Context, orch *ingest.Orchestrator, cfg config.Ingest, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.LogDirectory); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.LogDirectory, err)
	}

	ticker := time.NewTicker(time.Duration(cfg.ScanInterval))
	defer ticker.Stop()

	// Initial pass picks up whatever is already there.
	runScan := func() {
		if _, err := orch.Ingest(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scan failed", slog.Any("err", err))
		}
	}
	runScan()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename) {
				// Writers append in bursts; wait for the directory to settle.
				debounce = time.After(2 * time.Second)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.Any("err", err))
		case <-debounce:
			debounce = nil
			runScan()
		case <-ticker.C:
			runScan()
		}
	}
}

func newLogger(logOutput, logFormat string) (*slog.Logger, error) {
	var w io.Writer
	switch logOutput {
	case "stdout", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("unsupported log output: %s", logOutput)
	}

	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", logFormat)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
