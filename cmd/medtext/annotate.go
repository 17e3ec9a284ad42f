package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/ingest"
	"github.com/c360studio/medtext/io/brat"
	"github.com/c360studio/medtext/io/doccano"
	"github.com/c360studio/medtext/pipeline"
	"github.com/c360studio/medtext/prov"
)

func annotateCmd(flags *rootFlags) *cobra.Command {
	var (
		format       string
		output       string
		outputFormat string
		pattern      string
		keepSegments bool
	)

	cmd := &cobra.Command{
		Use:   "annotate [paths...]",
		Short: "Annotate documents with syntagmas, negation and family context",
		Long: `Annotate loads documents from the given files or directories, runs
the annotation pipeline on each of them and writes the result to the
output directory.

Input formats: text (plain text files), brat (text + .ann pairs),
html (web pages converted to markdown).
Output formats: brat (standoff files), doccano (JSONL).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}

			docs, err := loadDocuments(args, format, pattern, logger)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents found in %v", args)
			}

			runner, err := pipeline.NewRunner(cfg, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			runner.SetProvBuilder(prov.NewBuilder())
			if err := runner.AnnotateAll(docs); err != nil {
				return err
			}

			if err := writeDocuments(docs, output, outputFormat, keepSegments, logger); err != nil {
				return err
			}

			logger.Info("Annotation complete",
				"documents", len(docs),
				"output", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Input format (text, brat, html)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory")
	cmd.Flags().StringVar(&outputFormat, "to", "brat", "Output format (brat, doccano)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "File pattern for directory inputs (default from config)")
	cmd.Flags().BoolVar(&keepSegments, "keep-segments", false, "Export plain segments as brat entities")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// loadDocuments resolves each path to one or more documents. Directories
// are expanded with the glob pattern, files are loaded directly.
func loadDocuments(paths []string, format, pattern string, logger *slog.Logger) ([]*document.Document, error) {
	if pattern == "" {
		pattern = "*.txt"
	}

	var docs []*document.Document
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		switch {
		case info.IsDir() && format == "brat":
			loaded, err := brat.NewInputConverter(logger).LoadDirectory(path, pattern)
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
		case info.IsDir():
			files, err := doublestar.FilepathGlob(filepath.Join(path, pattern))
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", path, err)
			}
			for _, file := range files {
				doc, err := loadDocument(file, format, logger)
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
		default:
			doc, err := loadDocument(path, format, logger)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func loadDocument(path, format string, logger *slog.Logger) (*document.Document, error) {
	switch format {
	case "text":
		return ingest.LoadTextFile(path)
	case "brat":
		return brat.NewInputConverter(logger).LoadFile(path)
	case "html":
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
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func writeDocuments(docs []*document.Document, output, outputFormat string, keepSegments bool, logger *slog.Logger) error {
	switch outputFormat {
	case "brat":
		converter := &brat.OutputConverter{
			KeepSegments: keepSegments,
			Logger:       logger,
		}
		return converter.Convert(docs, output)
	case "doccano":
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(filepath.Join(output, "annotations.jsonl"))
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		return doccano.NewOutputConverter(doccano.Config{}).SaveRelationExtraction(f, docs)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
