package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medreport/internal/async"
	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/ingest"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
	"github.com/joseph-ayodele/medreport/internal/server"
)

var errExtractionFailed = errors.New("extraction failed")

func newExtractCmd(f *rootFlags) *cobra.Command {
	var fileType, xlsxOut string
	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract metrics and notes from one report file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.processor.ProcessFile(cmd.Context(), args[0], fileType)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if xlsxOut != "" && res.Success {
				if err := writeXLSX(a, res, xlsxOut); err != nil {
					return err
				}
			}
			if !res.Success {
				return fmt.Errorf("%w: %s", errExtractionFailed, res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fileType, "type", "", "declared file type: pdf, image or text (default: from extension)")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "also write an XLSX workbook to this path")
	return cmd
}

func newTextCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "text",
		Short: "Extract metrics and notes from report text read on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			res := a.processor.ExtractText(cmd.Context(), string(raw))
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newBatchCmd(f *rootFlags) *cobra.Command {
	var (
		dir     string
		outDir  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract every supported report under a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, f)
			if err != nil {
				return err
			}
			defer a.Close()

			paths, stats, err := ingest.ScanDirectory(dir, ingest.Filter{
				AllowedExts: a.cfg.Files.AllowedExtensions,
				SkipHidden:  true,
			})
			if err != nil {
				return err
			}
			a.logger.Info("scan complete", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched)
			if len(paths) == 0 {
				a.logger.Warn("no supported files found", "dir", dir)
				return nil
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}

			opts := async.FromConfig(a.cfg.Queue)
			if workers > 0 {
				opts = append(opts, async.WithWorkers(workers))
			}
			q := async.NewProcessorQueue(a.processor, a.logger, opts...)

			var (
				mu      sync.Mutex
				wg      sync.WaitGroup
				ok, bad int
			)
			start := time.Now()
			for _, p := range paths {
				wg.Add(1)
				err := q.Enqueue(ctx, async.Job{
					Path:        p,
					SubmittedAt: time.Now(),
					OnDone: func(job async.Job, res pipeline.Result) {
						defer wg.Done()
						mu.Lock()
						defer mu.Unlock()
						if res.Success {
							ok++
						} else {
							bad++
						}
						report(cmd.OutOrStdout(), a, outDir, job, res)
					},
				})
				if err != nil {
					wg.Done()
					a.logger.Error("enqueue failed", "path", p, "error", err)
					break
				}
			}
			wg.Wait()
			if err := q.Shutdown(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed %d files: %d ok, %d failed in %s\n",
				ok+bad, ok, bad, time.Since(start).Round(time.Millisecond))
			if bad > 0 {
				return fmt.Errorf("%w: %d of %d files", errExtractionFailed, bad, ok+bad)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to scan recursively")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write one JSON result per file here")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (default QUEUE_WORKERS)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func newMCPCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extraction tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.NewMCPServer(a.processor, version, a.logger)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newWatchCmd(f *rootFlags) *cobra.Command {
	var (
		dir      string
		outDir   string
		existing bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Extract reports as they appear under a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, f)
			if err != nil {
				return err
			}
			defer a.Close()
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}

			events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
				Roots:       []string{dir},
				Filter:      ingest.Filter{AllowedExts: a.cfg.Files.AllowedExtensions, SkipHidden: true},
				InitialScan: existing,
				Debounce:    debounce,
			}, a.logger)
			if err != nil {
				return err
			}

			q := async.NewProcessorQueue(a.processor, a.logger, async.FromConfig(a.cfg.Queue)...)
			var mu sync.Mutex
			onDone := func(job async.Job, res pipeline.Result) {
				mu.Lock()
				defer mu.Unlock()
				report(cmd.OutOrStdout(), a, outDir, job, res)
			}

			a.logger.Info("watching for reports", "dir", dir)
		loop:
			for {
				select {
				case p, ok := <-events:
					if !ok {
						break loop
					}
					if err := q.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now(), OnDone: onDone}); err != nil {
						a.logger.Warn("enqueue failed", "path", p, "error", err)
					}
				case err, ok := <-errs:
					if ok {
						a.logger.Warn("watch error", "error", err)
					}
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Queue.JobTimeout)
			defer cancel()
			return q.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch recursively")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write one JSON result per file here")
	cmd.Flags().BoolVar(&existing, "existing", false, "also process files already present")
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "wait this long after the last write before processing")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// report prints one result line and optionally its JSON file. Callers serialize.
func report(w io.Writer, a *app, outDir string, job async.Job, res pipeline.Result) {
	fmt.Fprintf(w, "%-8s %s words=%d metrics=%d notes=%d %s\n",
		status(res), job.Path, res.Text.WordCount,
		len(res.Extraction.Metrics), len(res.Extraction.Notes), res.Error)
	if outDir == "" {
		return
	}
	if err := writeResultFile(outDir, res); err != nil {
		a.logger.Error("write result", "path", job.Path, "error", err)
	}
}

func status(res pipeline.Result) string {
	if res.Success {
		return "OK"
	}
	return "FAILED"
}

func writeResultFile(outDir string, res pipeline.Result) error {
	name := strings.TrimSuffix(filepath.Base(res.FilePath), filepath.Ext(res.FilePath)) + ".json"
	fh, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return err
	}
	defer fh.Close()
	return writeJSON(fh, res)
}

func writeXLSX(a *app, res pipeline.Result, out string) error {
	data, err := export.NewService(a.logger).ResultXLSX(res)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
