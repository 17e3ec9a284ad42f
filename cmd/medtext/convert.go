package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/io/brat"
	"github.com/c360studio/medtext/io/doccano"
)

func convertCmd(flags *rootFlags) *cobra.Command {
	var (
		from         string
		to           string
		input        string
		output       string
		pattern      string
		keepSegments bool
		textColumn   string
		labelColumn  string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert annotated documents between brat and doccano formats",
		Long: `Convert reads annotated documents in one format and writes them in
another, without running the annotation pipeline.

Formats: brat (a directory of .txt/.ann pairs), doccano-relations,
doccano-seq and doccano-class (JSONL files, one document per line).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			doccanoCfg := doccano.Config{ColumnText: textColumn, ColumnLabel: labelColumn}

			var docs []*document.Document
			switch from {
			case "brat":
				loaded, err := brat.NewInputConverter(logger).LoadDirectory(input, pattern)
				if err != nil {
					return err
				}
				docs = loaded
			case "doccano-relations", "doccano-seq", "doccano-class":
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open %s: %w", input, err)
				}
				defer f.Close()
				converter := doccano.NewInputConverter(doccanoCfg, logger)
				var loadErr error
				switch from {
				case "doccano-relations":
					docs, loadErr = converter.LoadRelationExtraction(f)
				case "doccano-seq":
					docs, loadErr = converter.LoadSeqLabeling(f)
				case "doccano-class":
					docs, loadErr = converter.LoadTextClassification(f)
				}
				if loadErr != nil {
					return loadErr
				}
			default:
				return fmt.Errorf("unknown input format %q", from)
			}

			if len(docs) == 0 {
				return fmt.Errorf("no documents found in %s", input)
			}

			switch to {
			case "brat":
				converter := &brat.OutputConverter{
					KeepSegments: keepSegments,
					Logger:       logger,
				}
				if err := converter.Convert(docs, output); err != nil {
					return err
				}
			case "doccano-relations", "doccano-seq", "doccano-class":
				if dir := filepath.Dir(output); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create output dir: %w", err)
					}
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				converter := doccano.NewOutputConverter(doccanoCfg)
				switch to {
				case "doccano-relations":
					err = converter.SaveRelationExtraction(f, docs)
				case "doccano-seq":
					err = converter.SaveSeqLabeling(f, docs)
				case "doccano-class":
					err = converter.SaveTextClassification(f, docs)
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown output format %q", to)
			}

			logger.Info("Conversion complete",
				"documents", len(docs),
				"from", from,
				"to", to,
				"output", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format (brat, doccano-relations, doccano-seq, doccano-class)")
	cmd.Flags().StringVar(&to, "to", "", "Output format (brat, doccano-relations, doccano-seq, doccano-class)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input directory (brat) or JSONL file (doccano)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (brat) or JSONL file (doccano)")
	cmd.Flags().StringVar(&pattern, "pattern", "*.txt", "File pattern for brat input directories")
	cmd.Flags().BoolVar(&keepSegments, "keep-segments", false, "Export plain segments as brat entities")
	cmd.Flags().StringVar(&textColumn, "text-column", "", "doccano text column name (default \"text\")")
	cmd.Flags().StringVar(&labelColumn, "label-column", "", "doccano label column name (default \"label\")")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
