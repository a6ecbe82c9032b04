package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChicagoDave/ilotplanner/internal/server"
	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
	"github.com/ChicagoDave/ilotplanner/pkg/pipeline"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Output formats for analyze.
const (
	formatSummary = "summary"
	formatJSON    = "json"
	formatGeoJSON = "geojson"
	formatRecord  = "record"
)

// loadConfig resolves the --config flag and validates the result.
func loadConfig(path string) (*config.Config, *validation.Report, error) {
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, validation.ValidateConfig(cfg), nil
}

func analyzeCmd() *cobra.Command {
	var configPath, format, output string

	cmd := &cobra.Command{
		Use:   "analyze [drawing]",
		Short: "Analyze one drawing (.dxf, .json, .yaml) and print the layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, report, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !report.Valid {
				printReport(cmd.OutOrStdout(), report)
				return report.Err()
			}

			d, err := pipeline.LoadDrawing(args[0])
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(loggerFromContext(cmd.Context()))
			res, err := runner.Analyze(cmd.Context(), d, cfg)
			if err != nil {
				printFailure(cmd.ErrOrStderr(), err)
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeResult(w, res, format)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file or project directory (default: built-in defaults)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSummary, "output format: summary, json, geojson or record")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func writeResult(w io.Writer, res *layout.Result, format string) error {
	switch strings.ToLower(format) {
	case formatSummary:
		printSummary(w, res)
		return nil
	case formatJSON:
		return encodeJSON(w, res)
	case formatRecord:
		return encodeJSON(w, res.Record())
	case formatGeoJSON:
		data, err := res.MarshalGeoJSON()
		if err != nil {
			return fmt.Errorf("encoding geojson: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func batchCmd() *cobra.Command {
	var configPath, outDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch [drawings...]",
		Short: "Analyze several drawings on a bounded worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, report, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !report.Valid {
				printReport(cmd.OutOrStdout(), report)
				return report.Err()
			}
			if workers <= 0 {
				workers = cfg.Workers()
			}

			logger := loggerFromContext(cmd.Context())
			jobs := make([]pipeline.Job, 0, len(args))
			var failed []pipeline.Outcome
			for _, path := range args {
				d, err := pipeline.LoadDrawing(path)
				if err != nil {
					logger.Error("skipping drawing", "path", path, "err", err)
					failed = append(failed, pipeline.Outcome{Name: path, Err: err, Message: err.Error()})
					continue
				}
				jobs = append(jobs, pipeline.Job{Name: path, Drawing: d, Config: cfg})
			}

			outcomes := pipeline.NewRunner(logger).Batch(cmd.Context(), jobs, workers)
			outcomes = append(outcomes, failed...)

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("creating output dir: %w", err)
				}
				for _, o := range outcomes {
					if !o.OK() {
						continue
					}
					name := strings.TrimSuffix(filepath.Base(o.Name), filepath.Ext(o.Name)) + ".json"
					if err := writeJSONFile(filepath.Join(outDir, name), o.Result); err != nil {
						return err
					}
				}
			}

			printBatch(cmd.OutOrStdout(), outcomes)
			for _, o := range outcomes {
				if !o.OK() {
					return fmt.Errorf("%d of %d drawings failed", countFailed(outcomes), len(outcomes))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file or project directory")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "write one JSON result per drawing to this directory")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent analyses (default: runtime.workers)")
	return cmd
}

func countFailed(outcomes []pipeline.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return encodeJSON(f, v)
}

func validateCmd() *cobra.Command {
	var layoutPath string

	cmd := &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Validate a configuration, and optionally a saved layout, without analyzing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			_, report, err := loadConfig(path)
			if err != nil {
				return err
			}

			if layoutPath != "" {
				data, err := os.ReadFile(layoutPath)
				if err != nil {
					return fmt.Errorf("reading layout: %w", err)
				}
				var res layout.Result
				if err := json.Unmarshal(data, &res); err != nil {
					return fmt.Errorf("parsing layout: %w", err)
				}
				report.Merge(layout.Validate(&res))
			}

			printReport(cmd.OutOrStdout(), report)
			return report.Err()
		},
	}

	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "JSON layout written by analyze --format json")
	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP adapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, report, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !report.Valid {
				printReport(cmd.OutOrStdout(), report)
				return report.Err()
			}
			srv := server.New(cfg, port, loggerFromContext(cmd.Context()))
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file or project directory")
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
