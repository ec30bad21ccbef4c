package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const DefaultVersion = "1.0.0"

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	Version string `mapstructure:"version"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ProbeConfig struct {
	Targets  []string `mapstructure:"targets"`
	Timeout  string   `mapstructure:"timeout"`
	Interval string   `mapstructure:"interval"`

	// FailureThreshold consecutive failures suspend watch probes of a
	// target for Cooldown. Zero disables suspension.
	FailureThreshold int    `mapstructure:"failure_threshold"`
	Cooldown         string `mapstructure:"cooldown"`
}

type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Logging  LoggingConfig     `mapstructure:"logging"`
	App      AppConfig         `mapstructure:"app"`
	Database DatabaseConfig    `mapstructure:"database"`
	Headers  map[string]string `mapstructure:"headers"`
	Probe    ProbeConfig       `mapstructure:"probe"`
}

// DefaultHeaders are added to every response.
var DefaultHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

// envAliases lists extra environment variables per key, in precedence order.
var envAliases = map[string][]string{
	"server.address":     {"SERVER_ADDRESS", "HTTP_ADDR"},
	"server.environment": {"SERVER_ENVIRONMENT", "APP_ENV"},
	"logging.level":      {"LOGGING_LEVEL", "LOG_LEVEL"},
	"app.version":        {"APP_VERSION"},
	"database.url":       {"DATABASE_URL"},
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. When file is empty, config.yaml is looked up in ./config and
// the working directory; a missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":3000")
	v.SetDefault("logging.level", "")
	v.SetDefault("app.version", DefaultVersion)
	v.SetDefault("database.url", "")
	v.SetDefault("headers", DefaultHeaders)
	v.SetDefault("probe.targets", []string{"http://localhost:3000/health", "http://localhost:3001/health"})
	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("probe.interval", "10s")
	v.SetDefault("probe.failure_threshold", 3)
	v.SetDefault("probe.cooldown", "30s")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// IsDevelopment reports whether the environment was explicitly set to
// development. An unset environment is not development.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// EnvironmentName is the name reported to clients. It is the configured
// value as given, or development when unset.
func (c *Config) EnvironmentName() string {
	if c.Server.Environment == "" {
		return EnvDevelopment
	}
	return c.Server.Environment
}

// ProbeTimeout returns the parsed probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Timeout)
	return d
}

// ProbeInterval returns the parsed watch interval.
func (c *Config) ProbeInterval() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Interval)
	return d
}

// ProbeCooldown returns the parsed cooldown, or zero when unset.
func (c *Config) ProbeCooldown() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Cooldown)
	return d
}

// Validate checks the loaded values. The log level is deliberately left
// unchecked; unknown names fall back to info in the logger.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Length(0, 64),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.App,
			validation.By(func(value interface{}) error {
				ac, ok := value.(AppConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an AppConfig")
				}
				return validation.ValidateStruct(&ac,
					validation.Field(&ac.Version, validation.Length(0, 64)),
				)
			}),
		),
		validation.Field(&c.Headers,
			validation.By(validateHeaders),
		),
		validation.Field(&c.Probe,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Targets,
						validation.Each(validation.Required, validation.By(validateTargetURL)),
					),
					validation.Field(&pc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.FailureThreshold,
						validation.Min(0),
					),
					validation.Field(&pc.Cooldown,
						validation.When(pc.Cooldown != "", validation.By(validateDuration)),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}

	return nil
}

func validateTargetURL(value interface{}) error {
	target, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

func validateHeaders(value interface{}) error {
	headers, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string map")
	}

	for name := range headers {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " :\r\n") {
			return validation.NewError("validation_invalid_header", fmt.Sprintf("invalid header name %q", name))
		}
	}

	return nil
}
