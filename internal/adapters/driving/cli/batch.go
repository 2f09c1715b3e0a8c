package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/services"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/watcher"
)

// Batch output formats.
const (
	formatText = "text"
	formatCSV  = "csv"
	formatJSON = "json"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file-or-dir>...",
	Short: "Score many decks",
	Long: `Score every deck given on the command line. Directories are searched
recursively for supported deck files; hidden directories are skipped.

A deck that fails is reported as a failed row and does not stop the batch.

With --watch, the directories are watched after the first run and any deck
that is created or saved is scored again.

Examples:
  deckscore batch decks/ --parallel 4
  deckscore batch decks/ --format csv --output scores.csv
  deckscore batch decks/ --watch --fast`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("pitch-type", "t", "", "VC_DEMO, GOV_SUPPORT or STARTUP_CONTEST for every deck")
	batchCmd.Flags().Bool("fast", false, "skip every LLM call")
	batchCmd.Flags().IntP("parallel", "p", 2, "decks evaluated concurrently")
	batchCmd.Flags().StringP("format", "f", formatText, "output format (text, csv or json)")
	batchCmd.Flags().StringP("output", "o", "", "write results to a file instead of stdout")
	batchCmd.Flags().BoolP("watch", "w", false, "re-score decks when they change")
	batchCmd.Flags().Duration("debounce", watcher.DefaultDebounce, "quiet period before re-scoring in watch mode")
	rootCmd.AddCommand(batchCmd)
}

type batchRun struct {
	cmd    *cobra.Command
	opts   domain.BatchOptions
	format string
	output string
}

//nolint:errcheck // flags registered in init
func runBatch(cmd *cobra.Command, args []string) error {
	if batchService == nil {
		return errors.New("batch service not configured")
	}

	evalOpts, err := evaluateOptions(cmd)
	if err != nil {
		return err
	}
	parallel, _ := cmd.Flags().GetInt("parallel")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	watch, _ := cmd.Flags().GetBool("watch")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	format = strings.ToLower(format)
	if !slices.Contains([]string{formatText, formatCSV, formatJSON}, format) {
		return fmt.Errorf("unknown format %q (use text, csv or json)", format)
	}

	run := &batchRun{
		cmd:    cmd,
		opts:   domain.BatchOptions{Evaluate: evalOpts, Parallelism: parallel},
		format: format,
		output: output,
	}

	paths, err := collectDecks(args, supportedPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 && !watch {
		return errors.New("no deck files found")
	}
	if len(paths) > 0 {
		if err := run.execute(cmd.Context(), paths); err != nil {
			return err
		}
	}
	if !watch {
		return nil
	}

	w, err := watcher.New(watchDirs(args), supportedPath, debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.PrintErrf("Watching %s for deck changes (Ctrl+C to stop)\n", strings.Join(watchDirs(args), ", "))
	return w.Run(ctx, func(changed []string) {
		if err := run.execute(ctx, changed); err != nil {
			logger.Warn("Batch failed: %v", err)
		}
	})
}

func (r *batchRun) execute(ctx context.Context, paths []string) error {
	summary, err := batchService.Run(ctx, paths, r.opts)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	out := r.cmd.OutOrStdout()
	if r.output != "" {
		f, err := os.Create(r.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeBatch(out, summary, r.format); err != nil {
		return err
	}
	if r.output != "" {
		r.cmd.PrintErrf("Wrote %d results to %s\n", summary.Total, r.output)
	}
	return nil
}

func writeBatch(w io.Writer, summary *domain.BatchSummary, format string) error {
	switch format {
	case formatCSV:
		return services.WriteBatchCSV(w, summary)
	case formatJSON:
		return services.WriteBatchJSON(w, summary)
	default:
		renderBatch(w, summary, stylesFor(w))
		return nil
	}
}

// supportedPath reports whether a deck loader handles the file extension.
// Without loaders every file is accepted and failures surface as rows.
func supportedPath(path string) bool {
	if deckLoaders == nil {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(deckLoaders.SupportedExtensions(), ext)
}

// collectDecks expands directories into the supported files beneath them.
// Files named explicitly are kept as given. The result has no duplicates.
func collectDecks(args []string, accept func(string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			hidden := strings.HasPrefix(d.Name(), ".")
			if d.IsDir() {
				if path != arg && hidden {
					return filepath.SkipDir
				}
				return nil
			}
			if !hidden && accept(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot scan %s: %w", arg, err)
		}
	}
	return paths, nil
}

// watchDirs returns the directories to watch: directory arguments as
// given and the parent directory of file arguments.
func watchDirs(args []string) []string {
	var dirs []string
	for _, arg := range args {
		dir := arg
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			dir = filepath.Dir(arg)
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
