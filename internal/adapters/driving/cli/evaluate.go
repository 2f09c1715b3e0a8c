package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/logger"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Score a pitch deck",
	Long: `Score a pitch deck against the rubric for its pitch type.

Supported formats:
  .json       {"pages":[{"text":"..."}], "metadata":{"filename":"..."}}
  .md         slides separated by --- lines or level-one headings
  .txt        slides separated by form feeds or --- lines
  .html       one slide per <section>

The pitch type is inferred from the slides unless --pitch-type is given.

Examples:
  deckscore evaluate deck.md
  deckscore evaluate deck.json --pitch-type GOV_SUPPORT --json
  deckscore evaluate deck.md --fast`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringP("pitch-type", "t", "", "VC_DEMO, GOV_SUPPORT or STARTUP_CONTEST")
	evaluateCmd.Flags().Bool("json", false, "print the full report as JSON")
	evaluateCmd.Flags().Bool("fast", false, "skip every LLM call")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if err := requireEvaluation(); err != nil {
		return err
	}

	opts, err := evaluateOptions(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag registered in init

	report, err := evaluationService.EvaluateFile(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}

	if asJSON {
		return printJSON(cmd, report)
	}
	renderReport(cmd.OutOrStdout(), report, stylesFor(cmd.OutOrStdout()))
	return nil
}

// evaluateOptions builds options from the --pitch-type and --fast flags
// shared by evaluate and batch.
func evaluateOptions(cmd *cobra.Command) (domain.EvaluateOptions, error) {
	opts := domain.EvaluateOptions{Persist: !globalOpts.NoStore}

	pitchType, _ := cmd.Flags().GetString("pitch-type") //nolint:errcheck // flag registered in init
	if pitchType != "" {
		pt, ok := domain.ParsePitchType(pitchType)
		if !ok {
			return opts, fmt.Errorf("unknown pitch type %q (use VC_DEMO, GOV_SUPPORT or STARTUP_CONTEST)", pitchType)
		}
		opts.PitchType = string(pt)
	}

	fast, _ := cmd.Flags().GetBool("fast") //nolint:errcheck // flag registered in init
	if fast {
		scoring, err := currentScoring()
		if err != nil {
			return opts, err
		}
		scoring.FastMode = true
		opts.Scoring = &scoring
	}
	return opts, nil
}

// currentScoring returns the effective scoring settings, or the defaults
// when no settings service is configured. Invalid stored scoring is
// replaced by the defaults with a warning, as at startup.
func currentScoring() (domain.ScoringSettings, error) {
	if settingsService == nil {
		return domain.DefaultScoringSettings(), nil
	}
	settings, err := settingsService.Effective()
	if err == nil {
		return settings.Scoring, nil
	}
	if !errors.Is(err, domain.ErrInvalidConfig) {
		return domain.ScoringSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	logger.Warn("Ignoring scoring settings: %v", err)
	return domain.DefaultScoringSettings(), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
