package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qualarr/qualarr/config"
	"github.com/qualarr/qualarr/sonarr"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	version   = "dev"
	buildTime = "unknown"

	// Command flags
	dryRun bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qualarr",
	Short: "Declarative quality settings management for Sonarr",
	Long: `qualarr reconciles a declarative configuration of quality profiles and
quality definitions against one or more Sonarr instances, applying only
the changes needed to bring them in line with the configuration.`,
}

// SetVersion records the build version for the version output and the
// update command.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "log planned changes without applying them")
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when writing to a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// instanceNames returns the configured instance names in stable order
func instanceNames() []string {
	names := make([]string, 0, len(cfg.Instances))
	for name := range cfg.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test connections to the configured Sonarr instances",
	Long:    `Test the connection to every configured Sonarr instance and display basic quality settings statistics.`,
	PreRunE: initializeApp,
	RunE:    runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	for _, name := range instanceNames() {
		instance := cfg.Instances[name]
		fmt.Printf("Testing connection to Sonarr instance %q at %s...\n", name, instance.URL)

		client, err := sonarr.NewClient(instance.URL, instance.APIKey, logger)
		if err != nil {
			return fmt.Errorf("instance %q: %w", name, err)
		}
		fmt.Println("✓ Connection successful!")

		profiles, err := client.QualityProfiles(ctx)
		if err != nil {
			return fmt.Errorf("instance %q: %w", name, err)
		}
		definitions, _, err := client.QualityDefinitions(ctx)
		if err != nil {
			return fmt.Errorf("instance %q: %w", name, err)
		}
		formats, err := client.CustomFormats(ctx)
		if err != nil {
			return fmt.Errorf("instance %q: %w", name, err)
		}

		fmt.Printf("- Quality profiles: %d (%d managed)\n", len(profiles), len(instance.Profiles.Definitions))
		fmt.Printf("- Quality definitions: %d\n", len(definitions))
		fmt.Printf("- Custom formats: %d\n", len(formats))
		if instance.Quality.TrashID != "" {
			fmt.Printf("- Curated definition profile: %s\n", instance.Quality.TrashID)
		}
		fmt.Println()
	}

	return nil
}
