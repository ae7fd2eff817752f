package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeExport = "export"
	ModeServe  = "serve"
	ModeBoth   = "both"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Report   ReportConfig   `yaml:"report"`
	Storage  StorageConfig  `yaml:"storage"`
	Logger   LoggerConfig   `yaml:"logger"`
	Security SecurityConfig `yaml:"security"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatasetConfig struct {
	CSVFile     string        `yaml:"csv_file"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// ReportConfig controls how rendered charts leave the process.
type ReportConfig struct {
	Mode      string   `yaml:"mode"`
	OutputDir string   `yaml:"output_dir"`
	Formats   []string `yaml:"formats"`
	Workers   int      `yaml:"workers"`
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
}

// StorageConfig enables uploading artifacts to S3 when S3Bucket is set.
type StorageConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit"`
	RateLimitRPS    int      `yaml:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Dataset: DatasetConfig{
			CSVFile:     "shopping_trends_updated.csv",
			LoadTimeout: 30 * time.Second,
		},
		Report: ReportConfig{
			Mode:      ModeExport,
			OutputDir: "report",
			Formats:   []string{"svg", "png"},
			Workers:   4,
			Width:     960,
			Height:    540,
		},
		Storage: StorageConfig{
			S3Region: "us-east-1",
			S3Prefix: "shopping-trends",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables (a .env file is read first if
// present). Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Dataset.CSVFile = getEnvString("CSV_FILE", c.Dataset.CSVFile)
	c.Dataset.LoadTimeout = getEnvDuration("CSV_LOAD_TIMEOUT", c.Dataset.LoadTimeout)

	c.Report.Mode = getEnvString("REPORT_MODE", c.Report.Mode)
	c.Report.OutputDir = getEnvString("REPORT_OUTPUT_DIR", c.Report.OutputDir)
	c.Report.Formats = getEnvStringSlice("REPORT_FORMATS", c.Report.Formats)
	c.Report.Workers = getEnvInt("REPORT_WORKERS", c.Report.Workers)
	c.Report.Width = getEnvInt("REPORT_WIDTH", c.Report.Width)
	c.Report.Height = getEnvInt("REPORT_HEIGHT", c.Report.Height)

	c.Storage.S3Bucket = getEnvString("S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3Region = getEnvString("S3_REGION", c.Storage.S3Region)
	c.Storage.S3Prefix = getEnvString("S3_PREFIX", c.Storage.S3Prefix)
	c.Storage.AWSProfile = getEnvString("AWS_PROFILE", c.Storage.AWSProfile)

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)
}

func (c *Config) validate() error {
	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("CSV load timeout must be positive")
	}

	validModes := []string{ModeExport, ModeServe, ModeBoth}
	if !slices.Contains(validModes, c.Report.Mode) {
		return fmt.Errorf("invalid report mode %q, must be one of: %s", c.Report.Mode, strings.Join(validModes, ", "))
	}

	if c.Report.Exports() {
		if c.Report.OutputDir == "" {
			return fmt.Errorf("report output directory cannot be empty")
		}
		if len(c.Report.Formats) == 0 {
			return fmt.Errorf("at least one report format is required")
		}
	}

	validFormats := []string{"svg", "png"}
	for _, f := range c.Report.Formats {
		if !slices.Contains(validFormats, f) {
			return fmt.Errorf("invalid report format %q, must be one of: %s", f, strings.Join(validFormats, ", "))
		}
	}

	if c.Report.Workers < 1 {
		return fmt.Errorf("report workers must be at least 1, got %d", c.Report.Workers)
	}

	if c.Report.Width < 320 || c.Report.Height < 240 {
		return fmt.Errorf("chart size must be at least 320x240, got %dx%d", c.Report.Width, c.Report.Height)
	}

	if c.Storage.S3Bucket != "" && c.Storage.S3Region == "" {
		return fmt.Errorf("S3 region is required when a bucket is set")
	}

	if c.Report.Serves() {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
		}

		if c.Server.ReadTimeout <= 0 {
			return fmt.Errorf("server read timeout must be positive")
		}

		if c.Server.WriteTimeout <= 0 {
			return fmt.Errorf("server write timeout must be positive")
		}

		if c.Security.RateLimitRPS <= 0 {
			return fmt.Errorf("rate limit RPS must be positive")
		}

		if c.Security.RateLimitBurst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	return nil
}

// Exports reports whether artifacts are written to disk.
func (r ReportConfig) Exports() bool {
	return r.Mode == ModeExport || r.Mode == ModeBoth
}

// Serves reports whether the dashboard server is started.
func (r ReportConfig) Serves() bool {
	return r.Mode == ModeServe || r.Mode == ModeBoth
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
