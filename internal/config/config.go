// Package config loads server configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/evcraddock/species-catalog/internal/chat"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "sc.yaml"

// Config is the root server configuration.
//
// Sources, first match wins for the file:
//  1. the path passed to Load;
//  2. the SC_CONFIG environment variable;
//  3. ./sc.yaml;
//  4. environment only.
//
// Environment variables (including a ./.env file) always override the file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Chat   ChatConfig   `yaml:"chat"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host    string `yaml:"host"     env:"SC_HOST"     env-default:""`
	Port    int    `yaml:"port"     env:"SC_PORT"     env-default:"8080"`
	BaseURL string `yaml:"base_url" env:"SC_BASE_URL" env-default:"http://localhost:8080"`
	DevMode bool   `yaml:"dev_mode" env:"SC_DEV_MODE" env-default:"false"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DBConfig locates the SQLite database. An empty path means the default.
type DBConfig struct {
	Path string `yaml:"path" env:"SC_DB"`
}

// LogConfig controls optional file logging.
type LogConfig struct {
	File       string `yaml:"file"         env:"SC_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"SC_LOG_MAX_SIZE_MB"  env-default:"50"`
	MaxBackups int    `yaml:"max_backups"  env:"SC_LOG_MAX_BACKUPS"  env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"SC_LOG_MAX_AGE_DAYS" env-default:"28"`
}

// SMTPConfig is used to send magic-link emails.
type SMTPConfig struct {
	Host string `yaml:"host" env:"SC_SMTP_HOST"`
	Port string `yaml:"port" env:"SC_SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SC_SMTP_USER"`
	Pass string `yaml:"pass" env:"SC_SMTP_PASS"`
	From string `yaml:"from" env:"SC_SMTP_FROM"`
}

// ChatConfig selects the completion provider for the species assistant.
type ChatConfig struct {
	Provider    string        `yaml:"provider"    env:"SC_CHAT_PROVIDER"    env-default:"openai"`
	OpenAIKey   string        `yaml:"openai_key"  env:"OPENAI_API_KEY"`
	GeminiKey   string        `yaml:"gemini_key"  env:"GEMINI_API_KEY"`
	Model       string        `yaml:"model"       env:"SC_CHAT_MODEL"`
	BaseURL     string        `yaml:"base_url"    env:"SC_CHAT_BASE_URL"`
	Temperature float64       `yaml:"temperature" env:"SC_CHAT_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int           `yaml:"max_tokens"  env:"SC_CHAT_MAX_TOKENS"  env-default:"500"`
	Timeout     time.Duration `yaml:"timeout"     env:"SC_CHAT_TIMEOUT"     env-default:"30s"`
}

// Completer returns the chat package configuration for the selected provider.
func (c ChatConfig) Completer() chat.Config {
	key := c.OpenAIKey
	if c.Provider == chat.ProviderGemini {
		key = c.GeminiKey
	}
	return chat.Config{
		Provider:    c.Provider,
		APIKey:      key,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}

// Load reads configuration from path (or the fallbacks above), overlays the
// environment, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	file, err := resolveFile(path)
	if err != nil {
		return nil, err
	}

	if file != "" {
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveFile picks the config file to read, or "" for environment only.
func resolveFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv("SC_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %q: %w", path, err)
		}
		return path, nil
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	switch c.Chat.Provider {
	case chat.ProviderOpenAI, chat.ProviderGemini:
	default:
		return fmt.Errorf("chat.provider must be %q or %q", chat.ProviderOpenAI, chat.ProviderGemini)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be between 0 and 2")
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be > 0")
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("chat.timeout must be > 0")
	}

	if !c.Server.DevMode && c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required when smtp.host is set")
	}

	return nil
}
