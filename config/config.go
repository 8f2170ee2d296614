package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig defines the HTTP server configuration.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// CatalogConfig defines how the upstream product catalog is reached.
type CatalogConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DefaultLimit int           `mapstructure:"default_limit"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// SessionConfig defines the lifetime of HTTP stack sessions.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// UseCasesConfig points at an optional use-case table file.
type UseCasesConfig struct {
	File string `mapstructure:"file"`
}

// OllamaConfig defines the Ollama configuration used by the stack advisor.
type OllamaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Model           string `mapstructure:"model"`
	MaxPromptLength int    `mapstructure:"max_prompt_length"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Session  SessionConfig  `mapstructure:"session"`
	UseCases UseCasesConfig `mapstructure:"usecases"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig holds the loaded configuration.
var AppConfig *Config

// EnvPrefix prefixes environment overrides, e.g. GRIDSTACK_SERVER_PORT.
const EnvPrefix = "GRIDSTACK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "")

	v.SetDefault("catalog.url", "https://beta.node.thegrid.id/graphql")
	v.SetDefault("catalog.timeout", 15*time.Second)
	v.SetDefault("catalog.default_limit", 50)
	v.SetDefault("catalog.cache_ttl", 5*time.Minute)

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("usecases.file", "")

	v.SetDefault("ollama.enabled", false)
	v.SetDefault("ollama.host", "http://127.0.0.1:11434")
	v.SetDefault("ollama.model", "gemma3:latest")
	v.SetDefault("ollama.max_prompt_length", 7500)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// Load reads the configuration. With an empty path it looks for config.yaml
// in the working directory and falls back to defaults when there is none; an
// explicit path must exist. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration into AppConfig.
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Catalog.URL == "" {
		return errors.New("catalog.url is required")
	}
	if c.Catalog.DefaultLimit <= 0 {
		return fmt.Errorf("catalog.default_limit must be positive, got %d", c.Catalog.DefaultLimit)
	}
	if c.Ollama.Enabled && c.Ollama.Model == "" {
		return errors.New("ollama.model is required when ollama is enabled")
	}
	return nil
}
