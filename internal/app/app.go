// Package app is the composition root: it builds the adapters and core
// services behind every deckscore command.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/deckscore/internal/adapters/driven/ai"
	"github.com/custodia-labs/deckscore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/deckscore/internal/adapters/driven/metrics"
	"github.com/custodia-labs/deckscore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deckscore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/deckscore/internal/adapters/driving/cli"
	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/services"
	"github.com/custodia-labs/deckscore/internal/loaders"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// Ensure Bootstrap matches the CLI hook.
var _ cli.Bootstrap = Bootstrap

// Bootstrap opens the config directory, starts the configured AI
// providers and assembles the services. Providers that fail to start are
// logged and replaced by the deterministic fallbacks.
func Bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(ctx))
	settings, err := effectiveSettings(settingsService)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder(true)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}
	aiServices := ai.Initialise(ctx, *settings, prompts, recorder)

	reports, closeStore, err := openReportStore(opts, configDir)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	rubrics := file.NewRubricStore(filepath.Join(configDir, "rubrics"))
	registry := loaders.Default()

	evaluation := services.NewEvaluationService(services.EvaluationDeps{
		Rubrics:       rubrics,
		Loaders:       registry,
		Reports:       reports,
		Embedding:     aiServices.EmbeddingService,
		Classifier:    aiServices.Classifier,
		Reviewer:      aiServices.Reviewer,
		Narrator:      aiServices.Narrator,
		AnalysisModel: aiServices.ModelName(),
		Metrics:       recorder,
	}, settings.Scoring)

	logger.Debug("Config %s, rubrics %s, loaders %v",
		configStore.Path(), rubrics.Dir(), registry.SupportedExtensions())

	return &cli.Services{
		Evaluation:  evaluation,
		Reports:     services.NewReportService(reports),
		Rubrics:     services.NewRubricService(rubrics),
		Batch:       services.NewBatchService(evaluation),
		Calibration: services.NewCalibrationService(evaluation, settings.Scoring),
		Settings:    settingsService,
		Metrics:     recorder.Handler(),
		Loaders:     registry,
		Close: func() error {
			aiServices.Close()
			return closeStore()
		},
	}, nil
}

// effectiveSettings returns the settings with environment overrides.
// Invalid scoring parameters are replaced by the defaults with a warning
// so 'deckscore settings scoring' can still repair them.
func effectiveSettings(s *services.SettingsService) (*domain.AppSettings, error) {
	settings, err := s.Effective()
	if err == nil {
		return settings, nil
	}

	stored, getErr := s.Get()
	if getErr != nil {
		return nil, fmt.Errorf("loading settings: %w", getErr)
	}
	logger.Warn("Ignoring scoring settings: %v", err)
	stored.Scoring = domain.DefaultScoringSettings()
	return stored, nil
}

// openReportStore opens the SQLite store, or an in-memory store when
// reports are not kept between runs.
func openReportStore(opts cli.Options, configDir string) (driven.ReportStore, func() error, error) {
	if opts.NoStore {
		return memory.NewReportStore(), func() error { return nil }, nil
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(configDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening report database: %w", err)
	}
	return store.ReportStore(), store.Close, nil
}
