package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// DefaultPath is read when no --config flag or VMHEALTH_CONFIG is given.
const DefaultPath = "/etc/vm_health_check.conf"

// Output formats accepted by OUTPUT_FORMAT and --output.
var OutputFormats = []string{"text", "json", "yaml", "table"}

// Config holds all settings for one run. It is built once and passed
// explicitly to every component.
type Config struct {
	// Warning thresholds in percent. Critical is threshold + 20.
	CPUThreshold    int `env:"CPU_THRESHOLD" envDefault:"60"`
	MemoryThreshold int `env:"MEMORY_THRESHOLD" envDefault:"60"`
	DiskThreshold   int `env:"DISK_THRESHOLD" envDefault:"60"`

	LogFile      string `env:"LOG_FILE" envDefault:"/var/log/vm_health_check.log"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	OutputFormat string `env:"OUTPUT_FORMAT" envDefault:"text"`
	MetricsFile  string `env:"METRICS_FILE" envDefault:""`

	Collector CollectorConfig
	SNS       SNSConfig
	Email     EmailConfig
	Notify    NotifyConfig
	Schedule  ScheduleConfig
	Otel      OtelConfig

	// ConfigFile is the file the values were read from, empty when none was found.
	ConfigFile string
}

// CollectorConfig controls metric sampling.
type CollectorConfig struct {
	Timeout     time.Duration `env:"COLLECT_TIMEOUT" envDefault:"5s"`
	CPUInterval time.Duration `env:"CPU_SAMPLE_INTERVAL" envDefault:"1s"`
	DiskPath    string        `env:"DISK_PATH" envDefault:"/"`
}

// SNSConfig holds the AWS SNS transport settings.
type SNSConfig struct {
	TopicARN        string `env:"SNS_TOPIC_ARN" envDefault:""`
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	Profile         string `env:"AWS_PROFILE" envDefault:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	// Endpoint overrides the SNS endpoint (e.g. http://localhost:4566 for localstack).
	Endpoint string `env:"SNS_ENDPOINT" envDefault:""`
}

// IsConfigured returns true if an SNS topic is set
func (s *SNSConfig) IsConfigured() bool {
	return s.TopicARN != ""
}

// HasStaticCredentials returns true if both access keys are set
func (s *SNSConfig) HasStaticCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// EmailConfig holds the Mailgun transport settings.
type EmailConfig struct {
	MailgunDomain string `env:"MAILGUN_DOMAIN" envDefault:""`
	MailgunAPIKey string `env:"MAILGUN_API_KEY" envDefault:""`
	FromEmail     string `env:"EMAIL_FROM_ADDRESS" envDefault:"vmhealth@localhost"`
	// To is a comma separated recipient list
	To string `env:"NOTIFY_EMAIL_TO" envDefault:""`
}

// IsConfigured returns true if Mailgun and at least one recipient are set
func (e *EmailConfig) IsConfigured() bool {
	return e.MailgunDomain != "" && e.MailgunAPIKey != "" && len(e.Recipients()) > 0
}

// Recipients splits To into trimmed, non-empty addresses
func (e *EmailConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(e.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// NotifyConfig holds settings shared by all notification transports.
type NotifyConfig struct {
	Timeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	// TemplatePath points at a handlebars template for the message body.
	TemplatePath string `env:"NOTIFY_TEMPLATE" envDefault:""`
}

// ScheduleConfig controls --setup-cron and --watch.
type ScheduleConfig struct {
	// Cron is a standard five field cron expression.
	Cron string `env:"CRON_SCHEDULE" envDefault:"*/5 * * * *"`
	// ListenAddr serves the status endpoint in watch mode when set.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:""`
}

// Thresholds returns the configured warning thresholds.
func (c *Config) Thresholds() syshealth.Thresholds {
	return syshealth.Thresholds{
		CPU:    c.CPUThreshold,
		Memory: c.MemoryThreshold,
		Disk:   c.DiskThreshold,
	}
}

// CollectorOptions converts the collector settings for syshealth.
func (c *Config) CollectorOptions() syshealth.CollectorConfig {
	return syshealth.CollectorConfig{
		CPUInterval: c.Collector.CPUInterval,
		DiskPath:    c.Collector.DiskPath,
		Timeout:     c.Collector.Timeout,
	}
}

// Validate checks values that cannot be used as given.
func (c *Config) Validate() error {
	var errs []error
	if !validOutput(c.OutputFormat) {
		errs = append(errs, fmt.Errorf("OUTPUT_FORMAT must be one of %s, got %q",
			strings.Join(OutputFormats, ", "), c.OutputFormat))
	}
	if c.Collector.Timeout <= 0 {
		errs = append(errs, errors.New("COLLECT_TIMEOUT must be positive"))
	}
	if c.Collector.CPUInterval <= 0 {
		errs = append(errs, errors.New("CPU_SAMPLE_INTERVAL must be positive"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func validOutput(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// LoadOptions controls where configuration values come from.
type LoadOptions struct {
	// Path is the configuration file. Empty means VMHEALTH_CONFIG or DefaultPath.
	Path string
	// Overrides are command-line values keyed by configuration key. They win
	// over every other source.
	Overrides map[string]string
	// Environ replaces the process environment, mainly for tests.
	Environ map[string]string
}

// Load builds a Config. Precedence from lowest to highest: built-in
// defaults, environment, configuration file, overrides.
func Load(opts LoadOptions) (*Config, error) {
	values := opts.Environ
	if values == nil {
		values = environMap(os.Environ())
	}
	merged := make(map[string]string, len(values))
	for k, v := range values {
		merged[k] = v
	}

	path := opts.Path
	if path == "" {
		path = merged["VMHEALTH_CONFIG"]
	}
	if path == "" {
		path = DefaultPath
	}

	fileValues, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	for k, v := range fileValues {
		merged[k] = v
	}
	for k, v := range opts.Overrides {
		merged[k] = v
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if fileValues != nil {
		cfg.ConfigFile = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

// ReadFile returns the key/value pairs in path, or nil when the file does not
// exist. Shell style KEY=VALUE files are read with godotenv; .yaml, .yml,
// .json and .toml files are read with viper and their keys upper-cased.
func ReadFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		return readStructured(path)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return values, nil
}

func readStructured(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	replacer := strings.NewReplacer(".", "_", "-", "_")
	values := make(map[string]string, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		values[strings.ToUpper(replacer.Replace(key))] = v.GetString(key)
	}
	return values, nil
}

// LogAttrs summarises the loaded configuration for a debug log line.
func (c *Config) LogAttrs() []any {
	return []any{
		slog.String("config_file", c.ConfigFile),
		slog.Int("cpu_threshold", c.CPUThreshold),
		slog.Int("memory_threshold", c.MemoryThreshold),
		slog.Int("disk_threshold", c.DiskThreshold),
		slog.String("log_file", c.LogFile),
		slog.Bool("sns", c.SNS.IsConfigured()),
		slog.Bool("email", c.Email.IsConfigured()),
	}
}
