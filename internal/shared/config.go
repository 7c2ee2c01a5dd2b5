package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Library     LibraryConfig     `toml:"library"`
	Checkpoints CheckpointsConfig `toml:"checkpoints"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	Credentials CredentialsConfig `toml:"credentials"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LibraryConfig contains music library settings.
type LibraryConfig struct {
	Root string `toml:"root"`
}

// CheckpointsConfig contains checkpoint storage settings.
type CheckpointsConfig struct {
	Dir string `toml:"dir"`
}

// AnalysisConfig contains batch-analysis defaults and external tool paths.
type AnalysisConfig struct {
	BatchSize            int     `toml:"batch_size"`
	DestructiveBatchSize int     `toml:"destructive_batch_size"`
	MoodModel            string  `toml:"mood_model"`
	TargetLUFS           float64 `toml:"target_lufs"`
	FFmpeg               string  `toml:"ffmpeg"`
	FFprobe              string  `toml:"ffprobe"`
	Extractor            string  `toml:"extractor"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	LastFM  LastFMConfig  `toml:"lastfm"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// LastFMConfig contains the Last.fm API key used for tag lookups.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// SpotifyConfig contains Spotify client-credentials settings used for
// audio feature lookups.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
