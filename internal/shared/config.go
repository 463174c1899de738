package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library     LibraryConfig     `toml:"library"`
	Lastfm      LastfmConfig      `toml:"lastfm"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
	Audio       AudioConfig       `toml:"audio"`
	Organizer   OrganizerConfig   `toml:"organizer"`
	Database    DatabaseConfig    `toml:"database"`
}

// LibraryConfig contains connection settings for the library manager API.
type LibraryConfig struct {
	BaseURL    string `toml:"base_url"`
	APIVersion string `toml:"api_version"`
}

// LastfmConfig contains Last.fm API credentials.
type LastfmConfig struct {
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// MusicBrainzConfig contains MusicBrainz client settings.
//
// MusicBrainz requires a meaningful User-Agent identifying the application.
type MusicBrainzConfig struct {
	UserAgent string `toml:"user_agent"`
}

// AudioConfig contains audio analysis settings.
type AudioConfig struct {
	ModelPath     string `toml:"model_path"`
	SampleRate    int    `toml:"sample_rate"`
	DurationLimit int    `toml:"duration_limit"`
}

// OrganizerConfig contains batch processing settings.
type OrganizerConfig struct {
	BatchSize           int      `toml:"batch_size"`
	BatchDelaySeconds   float64  `toml:"batch_delay_seconds"`
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	SkipThreshold       float64  `toml:"skip_threshold"`
	RemixPenalty        float64  `toml:"remix_penalty"`
	ProviderRateLimit   float64  `toml:"provider_rate_limit"`
	RemixKeywords       []string `toml:"remix_keywords"`
}

// DatabaseConfig contains evidence cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides for credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded
// example config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotenv loads a .env file into the process environment if one exists.
// Credentials set this way override TOML values via [Config.applyEnv].
func LoadDotenv() {
	_ = godotenv.Load()
}

// applyEnv overrides credential fields from environment variables, so secrets
// can stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Lastfm.APIKey = v
	}
	if v := os.Getenv("LASTFM_API_SECRET"); v != "" {
		c.Lastfm.APISecret = v
	}
	if v := os.Getenv("LIBRARY_API_URL"); v != "" {
		c.Library.BaseURL = v
	}
	if v := os.Getenv("MUSICBRAINZ_USER_AGENT"); v != "" {
		c.MusicBrainz.UserAgent = v
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Library.BaseURL == "" {
		return fmt.Errorf("%w: library.base_url", ErrInvalidConfig)
	}
	if c.Lastfm.APIKey == "" {
		return fmt.Errorf("%w: lastfm.api_key", ErrMissingCredentials)
	}
	return nil
}
