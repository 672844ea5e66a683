// Package config provides YAML-based configuration management for the viewer.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "mmsviewer.yaml"

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Archive endpoints and client limits
	Archive ArchiveConfig `yaml:"archive"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Plot defaults
	Plot PlotConfig `yaml:"plot"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Events built at startup
	Events EventsConfig `yaml:"events"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bind_address"`
	ReadTimeout          int    `yaml:"read_timeout_seconds"`
	WriteTimeout         int    `yaml:"write_timeout_seconds"`
	IdleTimeout          int    `yaml:"idle_timeout_seconds"`
	EnableGzip           bool   `yaml:"enable_gzip"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
	EnableMetrics        bool   `yaml:"enable_metrics"`
}

// ArchiveConfig contains science archive client settings
type ArchiveConfig struct {
	FileInfoURL       string `yaml:"file_info_url"`
	DownloadURL       string `yaml:"download_url"`
	DataLevel         string `yaml:"data_level"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"` // 0 waits indefinitely
}

// StorageConfig contains local cache settings
type StorageConfig struct {
	DataDirectory string `yaml:"data_directory"`
	// CacheName is the folder under DataDirectory holding downloaded files.
	CacheName string `yaml:"cache_name"`
}

// PlotConfig contains chart defaults
type PlotConfig struct {
	Title           string `yaml:"title"`
	ApproxNumPoints int    `yaml:"approx_num_points"`
}

// LoggingConfig contains log level and rotation settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty disables the file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// EventsConfig lists the events built when the server starts
type EventsConfig struct {
	MaxEvents int           `yaml:"max_events"`
	Startup   []EventConfig `yaml:"startup"`
}

// EventConfig describes one dashboard event
type EventConfig struct {
	Day             string `yaml:"day,omitempty"`
	Start           string `yaml:"start,omitempty"`
	End             string `yaml:"end,omitempty"`
	Exact           bool   `yaml:"exact,omitempty"`
	Probe           int    `yaml:"probe"`
	Instrument      string `yaml:"instrument"`
	DataRate        string `yaml:"data_rate"`
	ApproxNumPoints int    `yaml:"approx_num_points,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 8050,
			BindAddress:          "127.0.0.1",
			ReadTimeout:          30,
			WriteTimeout:         300,
			IdleTimeout:          120,
			EnableGzip:           true,
			EnableRequestLogging: true,
			EnableMetrics:        true,
		},
		Archive: ArchiveConfig{
			FileInfoURL: "https://lasp.colorado.edu/mms/sdc/public/files/api/v1/file_info/",
			DownloadURL: "https://lasp.colorado.edu/mms/sdc/public/files/api/v1/download/",
			DataLevel:   "l2",
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
			CacheName:     "mms_data",
		},
		Plot: PlotConfig{
			Title:           "MMS Viewer",
			ApproxNumPoints: 10000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "./logs/mmsviewer.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Events: EventsConfig{
			MaxEvents: 20,
			Startup: []EventConfig{
				{
					Day:             "2018-03-13",
					Probe:           1,
					Instrument:      "fgm",
					DataRate:        "srvy",
					ApproxNumPoints: 10000,
				},
			},
		},
	}
}

// DefaultPath returns the configuration path next to the running executable,
// unless MMSVIEWER_CONFIG names another file.
func DefaultPath() string {
	if p := os.Getenv("MMSVIEWER_CONFIG"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := validateDocument(data); err != nil {
		return nil, err
	}

	// Missing keys keep their defaults
	config := DefaultConfig()
	config.Events.Startup = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# MMS Viewer configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	// CACHE_DIR names the cache folder under the data directory
	if cacheDir := os.Getenv("CACHE_DIR"); cacheDir != "" {
		c.Storage.CacheName = cacheDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// ARCHIVE_BASE_URL points both endpoints at another deployment of the file API
	if base := os.Getenv("ARCHIVE_BASE_URL"); base != "" {
		if base[len(base)-1] != '/' {
			base += "/"
		}
		c.Archive.FileInfoURL = base + "file_info/"
		c.Archive.DownloadURL = base + "download/"
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		c.Logging.File = filepath.Join(configDir, c.Logging.File)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return net.JoinHostPort(c.Server.BindAddress, strconv.Itoa(c.Server.Port))
}

// ArchiveTimeout returns the per-request archive timeout, zero for none.
func (c *AppConfig) ArchiveTimeout() time.Duration {
	return time.Duration(c.Archive.TimeoutSeconds) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
