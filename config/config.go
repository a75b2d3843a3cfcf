package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/qualarr/qualarr/quality"
)

// trashIDPattern matches the content hashes TRaSH-Guides uses as profile
// identifiers.
var trashIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// Load loads and validates the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "qualarr"))
		}

		// Check /etc
		v.AddConfigPath("/etc/qualarr/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		quality.EntryDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// viper folds every map key to lower case, which corrupts the
	// case-sensitive profile and quality names used as keys under
	// instances. That section is decoded again from the file as written.
	if err := decodeInstances(v.ConfigFileUsed(), &cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// decodeInstances replaces the instances section with one decoded straight
// from the YAML document, preserving map key case.
func decodeInstances(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	var doc struct {
		Instances map[string]interface{} `yaml:"instances"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Instances = nil
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			quality.EntryDecodeHook(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: &cfg.Instances,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(doc.Instances); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks the connection settings and runs the per-entity
// validation passes. Entity errors are field-scoped and collected rather
// than reported one at a time.
func validate(cfg *Config) error {
	var errs []error

	if len(cfg.Instances) == 0 {
		errs = append(errs, fmt.Errorf("at least one instance must be configured"))
	}

	for name, instance := range cfg.Instances {
		if instance.URL == "" {
			errs = append(errs, fmt.Errorf("instances.%s.url is required", name))
		}
		if instance.APIKey == "" {
			errs = append(errs, fmt.Errorf("instances.%s.api_key must be set to a valid API key", name))
		}

		if instance.Quality.TrashID != "" {
			if !trashIDPattern.MatchString(instance.Quality.TrashID) {
				errs = append(errs, fmt.Errorf("instances.%s.quality.trash_id is not a valid trash ID: %q",
					name, instance.Quality.TrashID))
			}
			if cfg.Trash.MetadataDir == "" {
				errs = append(errs, fmt.Errorf("trash.metadata_dir is required when instances.%s.quality.trash_id is set", name))
			}
		}

		errs = append(errs, validateEntities(name, instance)...)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid logging format: %s", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

// validateEntities runs the quality entity validation passes. The passes
// normalize dependent defaults in place, so the normalized entities are
// written back into the document.
func validateEntities(instanceName string, instance InstanceConfig) []error {
	var errs []error

	for profileName, profile := range instance.Profiles.Definitions {
		for _, err := range profile.Validate() {
			errs = append(errs, fmt.Errorf("instances.%s.profiles.definitions[%s]: %w", instanceName, profileName, err))
		}
		instance.Profiles.Definitions[profileName] = profile
	}

	for qualityName, definition := range instance.Quality.Definitions {
		// A title repeating the quality name is the remote default.
		if definition.Title == qualityName {
			definition.Title = ""
		}
		for _, err := range definition.Validate() {
			errs = append(errs, fmt.Errorf("instances.%s.quality.definitions[%s]: %w", instanceName, qualityName, err))
		}
		instance.Quality.Definitions[qualityName] = definition
	}

	return errs
}
