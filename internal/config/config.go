package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Buffer  BufferConfig  `mapstructure:"buffer"`
	Export  ExportConfig  `mapstructure:"export"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g. 0.0.0.0)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// StoreConfig represents document-store configuration
type StoreConfig struct {
	Backend         string `mapstructure:"backend"`          // firestore (default) or memory
	ProjectID       string `mapstructure:"project_id"`       // GCP project for the firestore backend
	CredentialsFile string `mapstructure:"credentials_file"` // Optional service-account key file
}

// BufferConfig represents point-buffer configuration
type BufferConfig struct {
	// MaxPointsPerBatch is the partition ceiling; a full document stays near
	// 50% of the store's per-document size limit at this value
	MaxPointsPerBatch int `mapstructure:"max_points_per_batch"`
}

// ExportConfig represents export configuration
type ExportConfig struct {
	MaxRangeDays int    `mapstructure:"max_range_days"` // Maximum export span in days
	DownloadDir  string `mapstructure:"download_dir"`   // Directory for generated workbooks
}

// AuthConfig represents device-key authentication configuration
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DeviceKeys maps device id to its API key
	DeviceKeys map[string]string `mapstructure:"device_keys"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Buffer.Validate(); err != nil {
		return fmt.Errorf("buffer config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "firestore":
		if c.ProjectID == "" {
			return fmt.Errorf("store.project_id is required for the firestore backend")
		}
	case "memory":
		// No options
	default:
		return fmt.Errorf("store.backend must be 'firestore' or 'memory'")
	}

	return nil
}

// Validate validates buffer configuration
func (c *BufferConfig) Validate() error {
	if c.MaxPointsPerBatch < 1 {
		return fmt.Errorf("buffer.max_points_per_batch must be positive")
	}

	return nil
}

// Validate validates export configuration
func (c *ExportConfig) Validate() error {
	if c.MaxRangeDays < 1 {
		return fmt.Errorf("export.max_range_days must be positive")
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("export.download_dir is required")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
