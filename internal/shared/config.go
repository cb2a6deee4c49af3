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
	Service ServiceConfig `toml:"service"`
	Client  ClientConfig  `toml:"client"`
	Upload  UploadConfig  `toml:"upload"`
	Report  ReportConfig  `toml:"report"`
}

// ServiceConfig contains the endpoints of the three API surfaces.
type ServiceConfig struct {
	APIURL     string `toml:"api_url"`
	LibraryURL string `toml:"library_url"`
	UploadURL  string `toml:"upload_url"`
	AppsURL    string `toml:"apps_url"` // where users enable the app to get a login token
}

// ClientConfig is the identification payload sent with every API call.
type ClientConfig struct {
	AppID      int    `toml:"app_id"`
	Version    string `toml:"version"`
	Name       string `toml:"name"`
	DeviceName string `toml:"device_name"`
	UserAgent  string `toml:"user_agent"`
}

// UploadConfig holds defaults for the upload command. Flags override them.
type UploadConfig struct {
	Parallel       bool     `toml:"parallel"`
	SkipDuplicates bool     `toml:"skip_duplicates"`
	SkipHidden     bool     `toml:"skip_hidden"`
	Tags           []string `toml:"tags"`
	Playlists      []string `toml:"playlists"`
}

// ReportConfig sets where a run report is written. An empty path disables it.
type ReportConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate reports missing endpoints or client identification fields.
func (c *Config) Validate() error {
	switch {
	case c.Service.APIURL == "", c.Service.LibraryURL == "", c.Service.UploadURL == "":
		return fmt.Errorf("%w: service URLs must not be empty", ErrInvalidConfig)
	case c.Client.Name == "", c.Client.UserAgent == "":
		return fmt.Errorf("%w: client name and user agent are required", ErrInvalidConfig)
	}
	return nil
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
