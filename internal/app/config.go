package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/raysh454/qadetector/internal/auth"
	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/extractor"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/notify"
	"github.com/raysh454/qadetector/internal/webclient"
)

const (
	ValidatorNu    = "nu"
	ValidatorLocal = "local"

	EnvPrefix  = "QADETECTOR"
	configName = "qadetector"
)

// ServerConfig is read by the HTTP API.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`

	// PublicURL is the externally reachable base used in embed snippets.
	PublicURL string `mapstructure:"public_url"`

	// AllowedOrigins may call the auth-check endpoint with credentials.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration `mapstructure:"job_retention"`
}

// ChecksConfig selects check implementations and bounds their run time.
type ChecksConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	Validator      string        `mapstructure:"validator"`
	ValidatorURL   string        `mapstructure:"validator_url"`
	DictionaryPath string        `mapstructure:"dictionary_path"`
}

// Config aggregates the per-package configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  database.Config  `mapstructure:"database"`
	Extractor extractor.Config `mapstructure:"extractor"`
	WebClient webclient.Config `mapstructure:"webclient"`
	Checks    ChecksConfig     `mapstructure:"checks"`
	Auth      auth.Config      `mapstructure:"auth"`
	Notify    notify.Config    `mapstructure:"notify"`
	Log       logging.Config   `mapstructure:"log"`
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:   ":8080",
			PublicURL:    "http://localhost:8080",
			JobRetention: 10 * time.Minute,
		},
		Database:  database.DefaultConfig(),
		Extractor: extractor.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Checks: ChecksConfig{
			Timeout:   20 * time.Second,
			Validator: ValidatorLocal,
		},
		Auth:   auth.DefaultConfig(),
		Notify: notify.DefaultConfig(),
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultsMap(c *Config) map[string]any {
	return map[string]any{
		"server.listen_addr":           c.Server.ListenAddr,
		"server.public_url":            c.Server.PublicURL,
		"server.allowed_origins":       c.Server.AllowedOrigins,
		"server.job_retention":         c.Server.JobRetention,
		"database.driver":              string(c.Database.Driver),
		"database.dsn":                 c.Database.DSN,
		"extractor.backend":            string(c.Extractor.Backend),
		"extractor.navigation_timeout": c.Extractor.NavigationTimeout,
		"extractor.idle_after":         c.Extractor.IdleAfter,
		"extractor.idle_inflight":      c.Extractor.IdleInflight,
		"extractor.headless":           c.Extractor.Headless,
		"extractor.no_sandbox":         c.Extractor.NoSandbox,
		"extractor.exec_path":          c.Extractor.ExecPath,
		"webclient.timeout":            c.WebClient.Timeout,
		"webclient.user_agent":         c.WebClient.UserAgent,
		"webclient.max_body_bytes":     c.WebClient.MaxBodyBytes,
		"checks.timeout":               c.Checks.Timeout,
		"checks.validator":             c.Checks.Validator,
		"checks.validator_url":         c.Checks.ValidatorURL,
		"checks.dictionary_path":       c.Checks.DictionaryPath,
		"auth.email_suffix":            c.Auth.EmailSuffix,
		"auth.email_header":            c.Auth.EmailHeader,
		"auth.name_header":             c.Auth.NameHeader,
		"auth.user_header":             c.Auth.UserHeader,
		"notify.discord_token":         c.Notify.DiscordToken,
		"notify.discord_channel_id":    c.Notify.DiscordChannelID,
		"notify.score_threshold":       c.Notify.ScoreThreshold,
		"log.level":                    c.Log.Level,
		"log.format":                   c.Log.Format,
	}
}

// NewViper builds the config source. An explicit path must exist; without
// one the usual locations are searched and a missing file is not an error.
// Every key can be overridden from the environment, e.g.
// QADETECTOR_DATABASE_DSN.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaultsMap(DefaultConfig()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, p := range []string{".", "./config", "/etc/qadetector", "$HOME/.qadetector"} {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is NewViper followed by Decode.
func LoadConfig(path string) (*Config, *viper.Viper, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Checks.Validator {
	case ValidatorNu, ValidatorLocal:
	default:
		return fmt.Errorf("checks.validator must be %q or %q, got %q", ValidatorNu, ValidatorLocal, c.Checks.Validator)
	}
	if c.Checks.Timeout < 0 {
		return fmt.Errorf("checks.timeout must not be negative")
	}
	if c.Notify.ScoreThreshold < 0 || c.Notify.ScoreThreshold > 100 {
		return fmt.Errorf("notify.score_threshold must be within 0..100")
	}
	return nil
}

// WatchLogLevel re-reads the log level whenever the config file changes.
// It is a no-op when no file was loaded.
func WatchLogLevel(v *viper.Viper, logger *logging.LogrusLogger) {
	if v == nil || logger == nil || v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		level := v.GetString("log.level")
		logger.SetLevel(level)
		logger.Info("config reloaded",
			logging.Field{Key: "file", Value: e.Name},
			logging.Field{Key: "log_level", Value: level})
	})
	v.WatchConfig()
}
