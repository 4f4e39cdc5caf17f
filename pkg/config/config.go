package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	// DefaultIndexName is the file name (without extension) of the index.
	DefaultIndexName = "search_index"
	// DefaultDownloadFile is where remote sources cache the fetched blob.
	DefaultDownloadFile = "downloaded_database.json"
	// DefaultMaxResults is the hard cap on results per query.
	DefaultMaxResults = 50
)

type Config struct {
	StorageDir string `toml:"storage_dir"`
	IndexName  string `toml:"index_name"`
	MaxResults int    `toml:"max_results"`
	// RefreshAt schedules a daily rebuild at HH:MM (24h, local time) while
	// the web server runs. Empty disables it.
	RefreshAt string `toml:"refresh_at,omitempty"`
	// Watch rebuilds the index when a file source changes on disk.
	Watch  bool       `toml:"watch"`
	Source SourceInfo `toml:"source"`
}

type SourceInfo struct {
	Type   string `toml:"type"`
	Config any    `toml:"config"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	return &Config{
		StorageDir: storageDir,
		IndexName:  DefaultIndexName,
		MaxResults: DefaultMaxResults,
		Source:     SourceInfo{Type: "file"},
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}

	if config.IndexName == "" {
		config.IndexName = DefaultIndexName
	}

	if config.MaxResults <= 0 || config.MaxResults > DefaultMaxResults {
		config.MaxResults = DefaultMaxResults
	}

	if config.Source.Type == "" {
		config.Source.Type = "file"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.RefreshAt != "" {
		if _, err := time.Parse("15:04", c.RefreshAt); err != nil {
			return fmt.Errorf("refresh_at must be HH:MM, got %q", c.RefreshAt)
		}
	}
	return nil
}

// ApplyEnv lets environment variables override the configured source:
// HAYAO_SOURCE_URL selects an http source, HAYAO_GDRIVE_ID a Google Drive
// file and HAYAO_SOURCE_PATH a local file.
func (c *Config) ApplyEnv() {
	if id := os.Getenv("HAYAO_GDRIVE_ID"); id != "" {
		c.Source = SourceInfo{Type: "gdrive", Config: map[string]any{"file_id": id}}
	}
	if u := os.Getenv("HAYAO_SOURCE_URL"); u != "" {
		c.Source = SourceInfo{Type: "http", Config: map[string]any{"url": u}}
	}
	if p := os.Getenv("HAYAO_SOURCE_PATH"); p != "" {
		c.Source = SourceInfo{Type: "file", Config: map[string]any{"path": p}}
	}
}

// DownloadPath is the cache file used by remote sources.
func (c *Config) DownloadPath() string {
	return filepath.Join(c.StorageDir, DefaultDownloadFile)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/hayao", storageDir, 1)
	return template, nil
}

// GetDefaultStorageDir returns the directory holding the index and the
// download cache.
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "hayao")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "hayao")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
