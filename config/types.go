package config

import (
	"github.com/qualarr/qualarr/quality"
)

// Config represents the complete declarative configuration document
type Config struct {
	Instances map[string]InstanceConfig `mapstructure:"instances"`
	Trash     TrashConfig               `mapstructure:"trash"`
	Safety    SafetyConfig              `mapstructure:"safety"`
	Logging   LoggingConfig             `mapstructure:"logging"`
}

// InstanceConfig holds the connection details and desired quality state
// for one Sonarr instance
type InstanceConfig struct {
	URL      string         `mapstructure:"url"`
	APIKey   string         `mapstructure:"api_key"`
	Quality  QualityConfig  `mapstructure:"quality"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
}

// QualityConfig describes the desired quality definitions, optionally
// seeded from a curated TRaSH-Guides profile
type QualityConfig struct {
	TrashID     string                        `mapstructure:"trash_id"`
	Definitions map[string]quality.Definition `mapstructure:"definitions"`
}

// ProfilesConfig describes the desired quality profiles
type ProfilesConfig struct {
	DeleteUnmanaged bool                       `mapstructure:"delete_unmanaged"`
	Definitions     map[string]quality.Profile `mapstructure:"definitions"`
}

// TrashConfig points at a local TRaSH-Guides metadata checkout
type TrashConfig struct {
	MetadataDir string `mapstructure:"metadata_dir"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
