package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/medtext/config"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/ingest"
	"github.com/c360studio/medtext/io/brat"
	"github.com/c360studio/medtext/pipeline"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/publish"
	"github.com/c360studio/medtext/storage"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var (
		dir         string
		output      string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and annotate documents as they arrive",
		Long: `Watch monitors a directory for new or modified documents, runs the
annotation pipeline on each of them and writes brat standoff output.

When a NATS URL is configured, annotated documents are also stored in
JetStream and published for downstream consumers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Watch.Dir = dir
			}
			return runWatch(cfg, output, metricsAddr, logger)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to watch (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for brat files (default: alongside input)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint (empty = disabled)")

	return cmd
}

func runWatch(cfg *config.Config, output, metricsAddr string, logger *slog.Logger) error {
	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := pipeline.NewRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	runner.SetProvBuilder(prov.NewBuilder())

	var (
		store     *storage.Store
		publisher *publish.Publisher
	)
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Timeout(cfg.NATS.Timeout),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1))
		if err != nil {
			return fmt.Errorf("connect to NATS %s: %w", cfg.NATS.URL, err)
		}
		defer nc.Close()

		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("create JetStream context: %w", err)
		}
		store, err = storage.NewStore(ctx, js, logger)
		if err != nil {
			return fmt.Errorf("create document store: %w", err)
		}
		publisher = publish.NewPublisher(nc, cfg.NATS.Subject, logger)
		logger.Info("NATS connected", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		logger.Info("Metrics endpoint listening", "addr", metricsAddr)
	}

	watcher, err := pipeline.NewWatcher(cfg.Watch, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	logger.Info("Medtext ready",
		"version", Version,
		"watch_dir", cfg.Watch.Dir,
		"pattern", cfg.Watch.Pattern)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down", "dropped_events", watcher.DroppedEvents())
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if event.Op == pipeline.FileOpDelete {
				continue
			}
			if err := processFile(ctx, event.AbsPath, cfg, runner, store, publisher, output, logger); err != nil {
				logger.Error("Failed to process document", "path", event.Path, "error", err)
			}
		}
	}
}

// processFile ingests a single file, annotates it and exports the result.
func processFile(ctx context.Context, path string, cfg *config.Config, runner *pipeline.Runner, store *storage.Store, publisher *publish.Publisher, output string, logger *slog.Logger) error {
	doc, err := ingestFile(path, logger)
	if err != nil {
		return err
	}

	if err := runner.Annotate(doc); err != nil {
		return err
	}

	outDir := output
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	converter := &brat.OutputConverter{Logger: logger}
	if err := converter.Convert([]*document.Document{doc}, outDir); err != nil {
		return err
	}

	if store != nil {
		opCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
		defer cancel()
		if err := store.PutDocument(opCtx, doc); err != nil {
			return fmt.Errorf("store document: %w", err)
		}
		if err := publisher.PublishDocument(opCtx, doc); err != nil {
			return fmt.Errorf("publish document: %w", err)
		}
	}

	logger.Info("Document annotated",
		"path", path,
		"uid", doc.UID(),
		"annotations", doc.Anns.Len())
	return nil
}

func ingestFile(path string, logger *slog.Logger) (*document.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		return ingest.NewHTMLConverter(logger).Convert(content, "file://"+abs)
	default:
		return ingest.LoadTextFile(path)
	}
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║             Medtext v" + Version + "                     ║")
	fmt.Println("║      Clinical Text Annotation Toolkit         ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}
