package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvSpotifyClientID    = "SPOTIFY_CLIENT_ID"
	EnvSpotifyRedirectURI = "SPOTIFY_REDIRECT_URI"
	EnvDatabasePath       = "COMBITIFY_DB_PATH"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Aggregation AggregationConfig `toml:"aggregation"`
	HTTP        HTTPConfig        `toml:"http"`
	UI          UIConfig          `toml:"ui"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application settings for the implicit grant flow.
//
// No client secret is needed: the access token is delivered in the redirect fragment.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local redirect capture server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AggregationConfig tunes the combined playlist run.
type AggregationConfig struct {
	PlaylistName    string  `toml:"playlist_name"`
	Public          bool    `toml:"public"`
	PageSize        int     `toml:"page_size"`
	ChunkSize       int     `toml:"chunk_size"`
	WritesPerSecond float64 `toml:"writes_per_second"`
}

// HTTPConfig contains transport settings. A zero timeout leaves requests unbounded.
type HTTPConfig struct {
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// UIConfig contains presentation preferences.
type UIConfig struct {
	Theme string `toml:"theme"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ResolveConfig loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func ResolveConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	return LoadConfig(path)
}

// ApplyEnv loads envFile (when present) into the process environment and overrides config values
// from the recognised variables. Variables already set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if v := os.Getenv(EnvSpotifyClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvSpotifyRedirectURI); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}

	return nil
}

// Validate checks the values the aggregation engine and UI depend on.
func (c *Config) Validate() error {
	if c.Aggregation.PageSize < 1 || c.Aggregation.PageSize > 50 {
		return fmt.Errorf("%w: aggregation.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.Aggregation.PageSize)
	}
	if c.Aggregation.ChunkSize < 1 || c.Aggregation.ChunkSize > 100 {
		return fmt.Errorf("%w: aggregation.chunk_size must be between 1 and 100, got %d", ErrInvalidConfig, c.Aggregation.ChunkSize)
	}
	if c.Aggregation.WritesPerSecond < 0 {
		return fmt.Errorf("%w: aggregation.writes_per_second must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Aggregation.PlaylistName) == "" {
		return fmt.Errorf("%w: aggregation.playlist_name is empty", ErrInvalidConfig)
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("%w: ui.theme must be dark or light, got %q", ErrInvalidConfig, c.UI.Theme)
	}
	return nil
}

// HasSpotifyClient reports whether a client id is configured.
func (c *Config) HasSpotifyClient() bool {
	return c.Credentials.Spotify.ClientID != "" && c.Credentials.Spotify.ClientID != "your_spotify_client_id"
}
