// Package config loads server configuration from defaults, an optional YAML
// file, NOUGHTS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/noughts/internal/api"
	"github.com/mcoot/noughts/internal/factory"
	"github.com/mcoot/noughts/internal/gateway"
	"github.com/mcoot/noughts/internal/services/bot"
	redisstorage "github.com/mcoot/noughts/internal/storage/redis"
)

// EnvPrefix is prepended to every environment override, e.g. NOUGHTS_SERVER_PORT
const EnvPrefix = "NOUGHTS"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// API converts to the HTTP server's configuration.
func (s ServerConfig) API() api.ServerConfig {
	return api.ServerConfig{
		Host:            s.Host,
		Port:            s.Port,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
	}
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "text".
	Format string `mapstructure:"format"`
}

// NewLogger builds the process logger writing to w.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logging.format must be json or text, got %q", l.Format)
	}
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Type is "memory" or "redis".
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// CredentialsConfig locates the secret -> display name file.
type CredentialsConfig struct {
	Path string `mapstructure:"path"`
}

// BotConfig configures move suggestions.
type BotConfig struct {
	// Enabled turns on the Anthropic strategy when an API key is present.
	Enabled    bool          `mapstructure:"enabled"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Difficulty string        `mapstructure:"difficulty"`
}

// GatewayConfig tunes the realtime dispatcher.
type GatewayConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// Config is the top-level server configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Bot         BotConfig         `mapstructure:"bot"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
}

// Validate checks all configuration invariants and reports every violation.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Credentials.Path == "" {
		errs = append(errs, "credentials.path must not be empty")
	}
	if err := validateBot(c.Bot); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Gateway.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("gateway.queue_size must be >= 1, got %d", c.Gateway.QueueSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 0-65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, text], got %q", l.Format)
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Type {
	case factory.StorageTypeMemory:
		return nil
	case factory.StorageTypeRedis:
	default:
		return fmt.Errorf("storage.type must be one of [memory, redis], got %q", s.Type)
	}

	var errs []string
	if s.Redis.URL == "" {
		errs = append(errs, "storage.redis.url must not be empty")
	}
	if s.Redis.PoolSize < 1 {
		errs = append(errs, fmt.Sprintf("storage.redis.pool_size must be >= 1, got %d", s.Redis.PoolSize))
	}
	if s.Redis.MinIdleConns < 0 || s.Redis.MinIdleConns > s.Redis.PoolSize {
		errs = append(errs, "storage.redis.min_idle_conns must be between 0 and pool_size")
	}
	if s.Redis.SessionTTL <= 0 {
		errs = append(errs, "storage.redis.session_ttl must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateBot(b BotConfig) error {
	var errs []string
	if b.Timeout <= 0 {
		errs = append(errs, "bot.timeout must be positive")
	}
	if _, err := bot.ParseDifficulty(b.Difficulty, ""); err != nil || b.Difficulty == "" {
		errs = append(errs, fmt.Sprintf("bot.difficulty must be one of [easy, medium, expert], got %q", b.Difficulty))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Factory converts the configuration into the application factory's input.
func (c Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:          logger,
		StorageType:     c.Storage.Type,
		CredentialsPath: c.Credentials.Path,
		Bot: bot.Config{
			Timeout:    c.Bot.Timeout,
			Difficulty: bot.Difficulty(c.Bot.Difficulty),
		},
		QueueSize: c.Gateway.QueueSize,
	}
	if c.Bot.Enabled {
		cfg.AnthropicAPIKey = c.Bot.APIKey
		cfg.AnthropicModel = c.Bot.Model
	}
	if c.Storage.Type == factory.StorageTypeRedis {
		cfg.RedisConfig = &redisstorage.Config{
			URL:          c.Storage.Redis.URL,
			PoolSize:     c.Storage.Redis.PoolSize,
			MinIdleConns: c.Storage.Redis.MinIdleConns,
			SessionTTL:   c.Storage.Redis.SessionTTL,
		}
	}
	return cfg
}

// New returns a Viper instance with defaults and environment overrides set.
// Callers may bind flags to it before calling LoadFromViper.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional SDK variable works too
	_ = v.BindEnv("bot.api_key", EnvPrefix+"_BOT_API_KEY", "ANTHROPIC_API_KEY")

	setDefaults(v)
	return v
}

// Load reads configuration from path, if given, applies environment variable
// overrides and validates the result.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	serverDefaults := api.DefaultServerConfig()
	v.SetDefault("server.host", serverDefaults.Host)
	v.SetDefault("server.port", serverDefaults.Port)
	v.SetDefault("server.read_timeout", serverDefaults.ReadTimeout)
	v.SetDefault("server.write_timeout", serverDefaults.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", serverDefaults.ShutdownTimeout)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	redisDefaults := redisstorage.DefaultConfig()
	v.SetDefault("storage.type", factory.StorageTypeMemory)
	v.SetDefault("storage.redis.url", redisDefaults.URL)
	v.SetDefault("storage.redis.pool_size", redisDefaults.PoolSize)
	v.SetDefault("storage.redis.min_idle_conns", redisDefaults.MinIdleConns)
	v.SetDefault("storage.redis.session_ttl", redisDefaults.SessionTTL)

	v.SetDefault("credentials.path", "data/users.json")

	botDefaults := bot.DefaultConfig()
	v.SetDefault("bot.enabled", true)
	v.SetDefault("bot.api_key", "")
	v.SetDefault("bot.model", bot.DefaultModel)
	v.SetDefault("bot.timeout", botDefaults.Timeout)
	v.SetDefault("bot.difficulty", string(botDefaults.Difficulty))

	v.SetDefault("gateway.queue_size", gateway.DefaultQueueSize)
}
