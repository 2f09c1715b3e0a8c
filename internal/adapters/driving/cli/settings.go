package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers and scoring parameters.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsScoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "Set scoring parameters",
	Long: `Set the thresholds and limits of the scoring engine. Only the flags
given are changed. Values are validated before they are saved.

Coverage thresholds must satisfy 0 < sim_low < sim_mid < sim_high < 1.
A sim_low of 0 means sim_mid - 0.10.

Examples:
  deckscore settings scoring --sim-high 0.70 --sim-mid 0.58
  deckscore settings scoring --top-k 4 --llm-slide-limit 8
  deckscore settings scoring --fast`,
	Args: cobra.NoArgs,
	RunE: runSettingsScoring,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider for semantic retrieval of slide evidence.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider for slide classification, coverage review and written feedback.`,
	RunE:  runSettingsLLM,
}

func init() {
	f := settingsScoringCmd.Flags()
	f.Float64("sim-high", 0, "similarity for COVERED")
	f.Float64("sim-mid", 0, "similarity for PARTIALLY_COVERED")
	f.Float64("sim-low", 0, "similarity below which an item is NOT_COVERED (0 = sim-mid - 0.10)")
	f.Int("top-k", 0, "evidence slides kept per rubric item")
	f.Float64("min-similarity", 0, "drop retrieval candidates below this similarity")
	f.Int("llm-slide-limit", 0, "leading slides classified by the LLM")
	f.Bool("fast", false, "skip every LLM call")
	f.Int("workers", 0, "parallel workers per evaluation")
	f.Int("llm-concurrency", 0, "concurrent LLM calls across the process")
	f.Float64("rps", 0, "requests per second per provider (0 = unlimited)")
	f.Duration("call-timeout", 0, "timeout per external call attempt")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsScoringCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Effective()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())

	// LLM settings
	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())

	// Scoring settings
	sc := settings.Scoring
	cmd.Println("[Scoring]")
	cmd.Printf("  Thresholds: high %.2f, mid %.2f, low %.2f\n", sc.SimHigh, sc.SimMid, sc.Low())
	cmd.Printf("  Top K: %d\n", sc.TopK)
	cmd.Printf("  Min similarity: %.2f\n", sc.MinSimilarity)
	cmd.Printf("  LLM slide limit: %d\n", sc.LLMSlideLimit)
	cmd.Printf("  Fast mode: %s\n", yesNo(sc.FastMode))
	cmd.Printf("  Workers: %d (LLM concurrency %d)\n", sc.Workers, sc.LLMConcurrency)
	cmd.Printf("  Rate limit: %.1f req/s, timeout %s\n", sc.RequestsPerSecond, sc.CallTimeout)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'deckscore settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	if provider == "" {
		cmd.Println("  Provider: (none, deterministic fallback)")
		cmd.Println()
		return
	}
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("deckscore Settings Wizard")
	cmd.Println("=========================")
	cmd.Println("Decks are scored without any provider. Providers add semantic")
	cmd.Println("retrieval (embedding) and written feedback (LLM).")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Embedding Provider
	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if confirm(cmd, reader, "Configure an embedding provider?") {
		if err := configureEmbeddingProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Retrieval uses lexical similarity only.")
		cmd.Println()
	}

	// Step 2: LLM Provider
	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if confirm(cmd, reader, "Configure an LLM provider?") {
		if err := configureLLMProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Slides are classified by keyword rules.")
		cmd.Println()
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

//nolint:errcheck // flags registered in init
func runSettingsScoring(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	sc := settings.Scoring

	f := cmd.Flags()
	changed := false
	cmd.LocalNonPersistentFlags().VisitAll(func(fl *pflag.Flag) {
		changed = changed || fl.Changed
	})
	if !changed {
		return errors.New("no scoring flags given, see 'deckscore settings scoring --help'")
	}
	if f.Changed("sim-high") {
		sc.SimHigh, _ = f.GetFloat64("sim-high")
	}
	if f.Changed("sim-mid") {
		sc.SimMid, _ = f.GetFloat64("sim-mid")
	}
	if f.Changed("sim-low") {
		sc.SimLow, _ = f.GetFloat64("sim-low")
	}
	if f.Changed("top-k") {
		sc.TopK, _ = f.GetInt("top-k")
	}
	if f.Changed("min-similarity") {
		sc.MinSimilarity, _ = f.GetFloat64("min-similarity")
	}
	if f.Changed("llm-slide-limit") {
		sc.LLMSlideLimit, _ = f.GetInt("llm-slide-limit")
	}
	if f.Changed("fast") {
		sc.FastMode, _ = f.GetBool("fast")
	}
	if f.Changed("workers") {
		sc.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("llm-concurrency") {
		sc.LLMConcurrency, _ = f.GetInt("llm-concurrency")
	}
	if f.Changed("rps") {
		sc.RequestsPerSecond, _ = f.GetFloat64("rps")
	}
	if f.Changed("call-timeout") {
		sc.CallTimeout, _ = f.GetDuration("call-timeout")
	}

	if err := settingsService.SetScoring(sc); err != nil {
		return fmt.Errorf("failed to set scoring: %w", err)
	}
	cmd.Printf("Scoring updated: high %.2f, mid %.2f, low %.2f, top_k %d, fast %s\n",
		sc.SimHigh, sc.SimMid, sc.Low(), sc.TopK, yesNo(sc.FastMode))
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func readPassword(reader *bufio.Reader) string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

// confirm asks a yes/no question that defaults to no.
func confirm(cmd *cobra.Command, reader *bufio.Reader, question string) bool {
	cmd.Printf("%s [y/N]: ", question)
	answer := strings.ToLower(readLine(reader))
	return answer == "y" || answer == "yes"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
