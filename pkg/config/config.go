// Package config provides configuration management for the class inspection tools.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Output    OutputConfig    `mapstructure:"output"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// OutputConfig holds artifact output configuration.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Format      string `mapstructure:"format"`      // text, json, or summary
	Compress    bool   `mapstructure:"compress"`
	Compression string `mapstructure:"compression"` // zstd or gzip
}

// ScanConfig holds batch scan configuration.
type ScanConfig struct {
	Workers          int      `mapstructure:"workers"` // 0 means one per CPU
	Archives         bool     `mapstructure:"archives"`
	IncludePrefixes  []string `mapstructure:"include_prefixes"`
	ExcludePrefixes  []string `mapstructure:"exclude_prefixes"`
	TopMethods       int      `mapstructure:"top_methods"`
	WriteDisassembly bool     `mapstructure:"write_disassembly"`
	WriteSummaries   bool     `mapstructure:"write_summaries"`
	UploadPrefix     string   `mapstructure:"upload_prefix"`
}

// DatabaseConfig holds database connection configuration. Scans only
// persist when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration. Scan artifacts are
// only uploaded when Enabled is set.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// TelemetryConfig holds OpenTelemetry tracing configuration.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // grpc or http
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// ServerConfig holds web UI server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Determine config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/class-inspect")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Check if it's a "file not found" error (either viper's type or os error)
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			// File specified but doesn't exist, use defaults
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow environment variables to override config
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Output defaults
	v.SetDefault("output.dir", "./out")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.compression", "zstd")

	// Scan defaults
	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.archives", true)
	v.SetDefault("scan.top_methods", 10)
	v.SetDefault("scan.write_disassembly", true)
	v.SetDefault("scan.write_summaries", true)

	// Database defaults
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	// Telemetry defaults
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.service_name", "class-inspect")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// Server defaults
	v.SetDefault("server.port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Database settings only matter when persistence is on
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Type != "postgres" && c.Database.Type != "mysql" {
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	// Storage config validation is delegated to storage package

	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan workers must not be negative")
	}

	if c.Output.Compression != "zstd" && c.Output.Compression != "gzip" {
		return fmt.Errorf("unsupported compression: %s", c.Output.Compression)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be between 0 and 1")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (c *Config) EnsureOutputDir() error {
	if c.Output.Dir == "" {
		return nil
	}
	return os.MkdirAll(c.Output.Dir, 0755)
}

// ScanDir returns the directory for one named scan under the output
// directory.
func (c *Config) ScanDir(name string) string {
	return filepath.Join(c.Output.Dir, name)
}
