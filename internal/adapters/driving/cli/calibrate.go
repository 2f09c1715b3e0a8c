package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/logger"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Tune coverage thresholds against labelled decks",
	Long: `Grid-search the coverage thresholds (sim_high, sim_mid) and the evidence
count (top_k) against hand-labelled decks. Every grid point runs in fast
mode, so no LLM calls are made.

The labels file holds a JSON array of labels, a single label, or an
object with a "labels" array. Each label's filename is matched by name
stem against the supported deck files under --decks.

Examples:
  deckscore calibrate --labels labels.json --decks decks/
  deckscore calibrate --labels labels.json --decks decks/ --sim-high 0.7,0.75 --top-k 3
  deckscore calibrate --labels labels.json --decks decks/ --evaluate-only`,
	Args: cobra.NoArgs,
	RunE: runCalibrate,
}

func init() {
	grid := domain.DefaultCalibrationGrid()
	calibrateCmd.Flags().String("labels", "", "labels JSON file (required)")
	calibrateCmd.Flags().String("decks", ".", "directory holding the labelled decks")
	calibrateCmd.Flags().Float64Slice("sim-high", grid.Highs, "sim_high values to try")
	calibrateCmd.Flags().Float64Slice("sim-mid", grid.Mids, "sim_mid values to try")
	calibrateCmd.Flags().IntSlice("top-k", grid.TopKs, "top_k values to try")
	calibrateCmd.Flags().Bool("evaluate-only", false, "score the current settings without a grid search")
	calibrateCmd.Flags().Bool("json", false, "print as JSON")
	_ = calibrateCmd.MarkFlagRequired("labels")
	rootCmd.AddCommand(calibrateCmd)
}

//nolint:errcheck // flags registered in init
func runCalibrate(cmd *cobra.Command, _ []string) error {
	if calibrationService == nil {
		return errors.New("calibration service not configured")
	}
	if deckLoaders == nil {
		return errors.New("deck loaders not configured")
	}

	labelsPath, _ := cmd.Flags().GetString("labels")
	decksDir, _ := cmd.Flags().GetString("decks")
	evaluateOnly, _ := cmd.Flags().GetBool("evaluate-only")
	asJSON, _ := cmd.Flags().GetBool("json")

	data, err := os.ReadFile(labelsPath)
	if err != nil {
		return fmt.Errorf("failed to read labels: %w", err)
	}
	labels, err := parseLabels(data)
	if err != nil {
		return err
	}

	cases, err := loadCases(cmd, labels, decksDir)
	if err != nil {
		return err
	}

	if evaluateOnly {
		summary, err := calibrationService.Evaluate(cmd.Context(), cases)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		if asJSON {
			return printJSON(cmd, summary)
		}
		renderSummary(cmd.OutOrStdout(), summary)
		return nil
	}

	grid := domain.CalibrationGrid{}
	grid.Highs, _ = cmd.Flags().GetFloat64Slice("sim-high")
	grid.Mids, _ = cmd.Flags().GetFloat64Slice("sim-mid")
	grid.TopKs, _ = cmd.Flags().GetIntSlice("top-k")

	result, err := calibrationService.Calibrate(cmd.Context(), cases, grid)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	if asJSON {
		return printJSON(cmd, result)
	}
	renderCalibration(cmd.OutOrStdout(), result, stylesFor(cmd.OutOrStdout()))
	return nil
}

// parseLabels accepts an array of labels, one label, or {"labels": [...]}.
// Entries without a label_id are dropped.
func parseLabels(data []byte) ([]domain.Label, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: labels are not valid JSON: %v", domain.ErrInvalidInput, err)
	}

	var labels []domain.Label
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw, &labels); err != nil {
			return nil, fmt.Errorf("%w: labels: %v", domain.ErrInvalidInput, err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var wrapper struct {
			LabelID string         `json:"label_id"`
			Labels  []domain.Label `json:"labels"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: labels: %v", domain.ErrInvalidInput, err)
		}
		if wrapper.LabelID != "" {
			var one domain.Label
			if err := json.Unmarshal(raw, &one); err != nil {
				return nil, fmt.Errorf("%w: label: %v", domain.ErrInvalidInput, err)
			}
			labels = []domain.Label{one}
		} else {
			labels = wrapper.Labels
		}
	default:
		return nil, fmt.Errorf("%w: labels must be a JSON array or object", domain.ErrInvalidInput)
	}

	kept := labels[:0]
	for _, l := range labels {
		if l.ID != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no labels with a label_id", domain.ErrInvalidInput)
	}
	return kept, nil
}

// loadCases pairs each label with its deck. Labels without a deck are
// skipped with a warning.
func loadCases(cmd *cobra.Command, labels []domain.Label, decksDir string) ([]domain.CalibrationCase, error) {
	index, err := indexDecks(decksDir)
	if err != nil {
		return nil, err
	}

	cases := make([]domain.CalibrationCase, 0, len(labels))
	for _, label := range labels {
		path, ok := index[stem(label.Filename)]
		if !ok {
			logger.Warn("No deck for label %s (%s)", label.ID, label.Filename)
			continue
		}
		deck, err := deckLoaders.Load(cmd.Context(), path)
		if err != nil {
			logger.Warn("Skipping label %s: %v", label.ID, err)
			continue
		}
		cases = append(cases, domain.CalibrationCase{Deck: deck, Label: label})
	}
	if len(cases) == 0 {
		return nil, errors.New("no labelled decks could be loaded")
	}
	return cases, nil
}

// indexDecks maps file name stems to supported deck paths under dir.
// The first path in walk order wins.
func indexDecks(dir string) (map[string]string, error) {
	index := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedPath(path) {
			return nil
		}
		if _, exists := index[stem(path)]; !exists {
			index[stem(path)] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", dir, err)
	}
	return index, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
