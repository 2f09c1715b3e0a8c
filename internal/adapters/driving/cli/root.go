// Package cli implements the deckscore command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// version is set by SetVersion from build flags.
var version = "dev"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Options are the global flags handed to the bootstrap function.
type Options struct {
	ConfigDir string
	DataDir   string
	NoStore   bool
	Verbose   bool
	LogFormat string
}

// Services are the driving ports the commands call.
// Everything except Evaluation may be nil.
type Services struct {
	Evaluation  driving.EvaluationService
	Reports     driving.ReportService
	Rubrics     driving.RubricService
	Batch       driving.BatchService
	Calibration driving.CalibrationService
	Settings    driving.SettingsService

	// Metrics serves Prometheus metrics next to the MCP HTTP transport.
	Metrics http.Handler

	// Loaders reads deck files for batch discovery and calibration.
	Loaders driven.DeckLoaderRegistry

	// Close releases stores and AI clients.
	Close func() error
}

// Bootstrap builds services from the global options.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	closeFn   func() error

	evaluationService  driving.EvaluationService
	reportService      driving.ReportService
	rubricService      driving.RubricService
	batchService       driving.BatchService
	calibrationService driving.CalibrationService
	settingsService    driving.SettingsService
	metricsHandler     http.Handler
	deckLoaders        driven.DeckLoaderRegistry

	globalOpts Options
)

var rootCmd = &cobra.Command{
	Use:   "deckscore",
	Short: "Score pitch decks against an investor rubric",
	Long: `deckscore evaluates pitch decks against a weighted rubric for the
pitch type (VC demo day, government support programme, startup contest)
and reports a 0-100 score, per-criterion coverage and feedback.

Scoring works offline. Configure an embedding or LLM provider with
'deckscore settings' to enable semantic retrieval and written feedback.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&globalOpts.LogFormat, "log-format", "text", "log format (text or json)")
	flags.StringVar(&globalOpts.ConfigDir, "config", "", "config directory (default ~/.deckscore)")
	flags.StringVar(&globalOpts.DataDir, "data-dir", "", "report database directory (default config directory)")
	flags.BoolVar(&globalOpts.NoStore, "no-store", false, "keep reports in memory only")
}

// SetVersion sets the version reported by the version command and MCP server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	evaluationService = s.Evaluation
	reportService = s.Reports
	rubricService = s.Rubrics
	batchService = s.Batch
	calibrationService = s.Calibration
	settingsService = s.Settings
	metricsHandler = s.Metrics
	deckLoaders = s.Loaders
	closeFn = s.Close
}

// Execute runs the root command. Commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	format, err := logger.ParseFormat(globalOpts.LogFormat)
	if err != nil {
		return err
	}
	logger.SetFormat(format)
	logger.SetVerbose(globalOpts.Verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	services, err := bootstrap(cmd.Context(), globalOpts)
	if err != nil {
		return fmt.Errorf("starting deckscore: %w", err)
	}
	SetServices(services)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeFn == nil {
		return nil
	}
	err := closeFn()
	closeFn = nil
	return err
}

func requireEvaluation() error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}
	return nil
}
