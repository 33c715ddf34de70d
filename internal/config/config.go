// Package config provides configuration management for tenderscan. It
// handles loading, validation, and access to configuration values from a
// YAML file and environment variables via viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/tenderscan/internal/archive"
	"github.com/jonesrussell/tenderscan/internal/database"
	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jonesrussell/tenderscan/internal/portal"
	"github.com/jonesrussell/tenderscan/internal/report"
	"github.com/jonesrussell/tenderscan/internal/tender"
)

// Defaults for the portal boundary. The paths are the portal's own endpoint
// conventions and rarely change; the base URL is deployment configuration.
const (
	DefaultBaseURL       = "https://eproc.rajasthan.gov.in"
	DefaultDirectoryPath = "/nicgep/app?page=FrontEndTendersByOrganisation&service=page"
)

// Validation errors.
var (
	ErrNoDepartments = errors.New("scan.departments must list at least one department")
	ErrNoBaseURL     = errors.New("portal.base_url must be set")
	ErrBadThreshold  = errors.New("scan.value_threshold must be positive")
	ErrNoRecipient   = errors.New("email.to must be set")
)

// PortalConfig holds the portal fetch boundary settings.
type PortalConfig struct {
	BaseURL        string        `yaml:"base_url"`
	DirectoryPath  string        `yaml:"directory_path"`
	RestartPath    string        `yaml:"restart_path"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ScanConfig holds the run inputs: which departments to scan and the value
// threshold at or above which tenders are excluded.
type ScanConfig struct {
	Departments    []string `yaml:"departments"`
	ValueThreshold int64    `yaml:"value_threshold"`
}

// ArchiveConfig holds the failed-page diagnostics sink settings.
type ArchiveConfig struct {
	Dir   string              `yaml:"dir"`
	Minio archive.MinioConfig `yaml:"minio"`
}

// Config represents the application configuration.
type Config struct {
	Logger   logger.Config      `yaml:"logger"`
	Portal   PortalConfig       `yaml:"portal"`
	Scan     ScanConfig         `yaml:"scan"`
	Database database.Config    `yaml:"database"`
	Archive  ArchiveConfig      `yaml:"archive"`
	Email    report.EmailConfig `yaml:"email"`
}

// Load builds the configuration from viper's current state (config file,
// environment overrides, defaults). Callers are expected to have initialized
// viper via cmd before calling Load.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		Logger: logger.Config{
			Level:       logger.Level(viper.GetString("logger.level")),
			Development: viper.GetBool("logger.development"),
			Encoding:    viper.GetString("logger.encoding"),
		},
		Portal: PortalConfig{
			BaseURL:        viper.GetString("portal.base_url"),
			DirectoryPath:  viper.GetString("portal.directory_path"),
			RestartPath:    viper.GetString("portal.restart_path"),
			UserAgent:      viper.GetString("portal.user_agent"),
			RequestTimeout: viper.GetDuration("portal.request_timeout"),
		},
		Scan: ScanConfig{
			Departments:    departments(),
			ValueThreshold: viper.GetInt64("scan.value_threshold"),
		},
		Database: database.Config{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetString("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
		},
		Archive: ArchiveConfig{
			Dir: viper.GetString("archive.dir"),
			Minio: archive.MinioConfig{
				Enabled:   viper.GetBool("archive.minio.enabled"),
				Endpoint:  viper.GetString("archive.minio.endpoint"),
				AccessKey: viper.GetString("archive.minio.access_key"),
				SecretKey: viper.GetString("archive.minio.secret_key"),
				Region:    viper.GetString("archive.minio.region"),
				Bucket:    viper.GetString("archive.minio.bucket"),
				UseSSL:    viper.GetBool("archive.minio.use_ssl"),
			},
		},
		Email: report.EmailConfig{
			SMTPHost: viper.GetString("email.smtp_host"),
			SMTPPort: viper.GetInt("email.smtp_port"),
			Username: viper.GetString("email.username"),
			Password: viper.GetString("email.password"),
			From:     viper.GetString("email.from"),
			To:       viper.GetString("email.to"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// departments reads the department list, accepting either a YAML list or a
// comma-separated string (the SCAN_DEPARTMENTS environment form). Names are
// trimmed of surrounding whitespace but otherwise kept exactly as given:
// matching against the portal's listing is exact.
func departments() []string {
	var raw []string

	// Environment overrides arrive as one comma-separated string; YAML
	// config arrives as a list. Splitting on comma (not whitespace)
	// preserves multi-word display names.
	switch v := viper.Get("scan.departments").(type) {
	case string:
		raw = strings.Split(v, ",")
	default:
		raw = viper.GetStringSlice("scan.departments")
	}

	out := make([]string, 0, len(raw))
	for _, d := range raw {
		if trimmed := strings.TrimSpace(d); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Validate checks the configuration for a runnable scan.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return ErrNoBaseURL
	}
	if len(c.Scan.Departments) == 0 {
		return ErrNoDepartments
	}
	if c.Scan.ValueThreshold <= 0 {
		return ErrBadThreshold
	}
	if c.Email.To == "" {
		return ErrNoRecipient
	}

	return nil
}

// setDefaults applies default values to viper keys not otherwise set.
func setDefaults() {
	viper.SetDefault("logger.level", string(logger.DefaultLevel))
	viper.SetDefault("logger.encoding", logger.DefaultEncoding)

	viper.SetDefault("portal.base_url", DefaultBaseURL)
	viper.SetDefault("portal.directory_path", DefaultDirectoryPath)
	viper.SetDefault("portal.restart_path", portal.DefaultRestartPath)
	viper.SetDefault("portal.user_agent", portal.DefaultUserAgent)
	viper.SetDefault("portal.request_timeout", portal.DefaultRequestTimeout)

	viper.SetDefault("scan.value_threshold", tender.DefaultValueThreshold)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "tenderscan")
	viper.SetDefault("database.dbname", "tenderscan")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("archive.dir", archive.DefaultDir)

	viper.SetDefault("email.smtp_host", "smtp.gmail.com")
	viper.SetDefault("email.smtp_port", 587)
}

// Describe returns a one-line summary of the scan inputs for startup logs.
func (c *Config) Describe() string {
	return fmt.Sprintf("%d departments, threshold %d", len(c.Scan.Departments), c.Scan.ValueThreshold)
}
