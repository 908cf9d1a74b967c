// Package config is the system-wide settings coordinator. Precedence is
// file > environment > defaults; a .env file in the working directory is
// loaded into the environment first.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Gateway *GatewayConfig `json:"gateway"`
	Storage *StorageConfig `json:"storage"`
	HTTP    *HTTPConfig    `json:"http"`
	Preview *PreviewConfig `json:"preview"`
}

// GatewayConfig configures the platform gateway connection. An empty
// GuildID registers the setup command globally instead of per-guild.
type GatewayConfig struct {
	URL          string        `json:"url"`
	Token        string        `json:"token"`
	CommandName  string        `json:"command_name"`
	GuildID      string        `json:"guild_id"`
	PingInterval time.Duration `json:"ping_interval"`
}

// StorageConfig locates the durable state file and the history database.
// An empty HistoryPath disables the history log.
type StorageConfig struct {
	StatePath   string `json:"state_path"`
	HistoryPath string `json:"history_path"`
}

// HTTPConfig configures the ops API server.
type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// PreviewConfig configures the preview draft cache.
type PreviewConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns production-ready defaults: state under ./data, ops
// API on 8080, ten-minute preview window.
func DefaultConfig() *Config {
	return &Config{
		Gateway: &GatewayConfig{
			URL:          "ws://localhost:9443/gateway",
			CommandName:  "tutoring",
			PingInterval: 30 * time.Second,
		},
		Storage: &StorageConfig{
			StatePath:   "./data/sessions.json",
			HistoryPath: "./data/history.db",
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Preview: &PreviewConfig{
			TTL: 600 * time.Second,
		},
	}
}

// Validate catches invalid configurations before components start.
func (c *Config) Validate() error {
	if c.Gateway == nil {
		return fmt.Errorf("gateway configuration is required")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway URL cannot be empty")
	}
	if c.Gateway.CommandName == "" {
		return fmt.Errorf("gateway command name cannot be empty")
	}
	if c.Gateway.PingInterval <= 0 {
		return fmt.Errorf("gateway ping interval must be positive")
	}
	if c.Storage == nil {
		return fmt.Errorf("storage configuration is required")
	}
	if c.Storage.StatePath == "" {
		return fmt.Errorf("state path cannot be empty")
	}
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP write timeout must be positive")
	}
	if c.Preview == nil {
		return fmt.Errorf("preview configuration is required")
	}
	if c.Preview.TTL <= 0 {
		return fmt.Errorf("preview TTL must be positive")
	}
	return nil
}

// LoadFromEnv overrides defaults from STUDYTABLES_* environment variables.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if url := os.Getenv("STUDYTABLES_GATEWAY_URL"); url != "" {
		config.Gateway.URL = url
	}
	if token := os.Getenv("STUDYTABLES_GATEWAY_TOKEN"); token != "" {
		config.Gateway.Token = token
	}
	if name := os.Getenv("STUDYTABLES_COMMAND_NAME"); name != "" {
		config.Gateway.CommandName = name
	}
	if guildID := os.Getenv("STUDYTABLES_GUILD_ID"); guildID != "" {
		config.Gateway.GuildID = guildID
	}
	if interval := os.Getenv("STUDYTABLES_GATEWAY_PING_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Gateway.PingInterval = d
		}
	}
	if path := os.Getenv("STUDYTABLES_STATE_PATH"); path != "" {
		config.Storage.StatePath = path
	}
	if path := os.Getenv("STUDYTABLES_HISTORY_PATH"); path != "" {
		config.Storage.HistoryPath = path
	}
	if host := os.Getenv("STUDYTABLES_HTTP_HOST"); host != "" {
		config.HTTP.Host = host
	}
	if port := os.Getenv("STUDYTABLES_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.HTTP.Port = p
		}
	}
	if timeout := os.Getenv("STUDYTABLES_HTTP_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("STUDYTABLES_HTTP_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.WriteTimeout = d
		}
	}
	if ttl := os.Getenv("STUDYTABLES_PREVIEW_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Preview.TTL = d
		}
	}

	return config
}

// configFile mirrors Config for JSON parsing, with durations as strings.
type configFile struct {
	Gateway *gatewayConfigFile `json:"gateway"`
	Storage *StorageConfig     `json:"storage"`
	HTTP    *httpConfigFile    `json:"http"`
	Preview *previewConfigFile `json:"preview"`
}

type gatewayConfigFile struct {
	URL          string `json:"url"`
	Token        string `json:"token"`
	CommandName  string `json:"command_name"`
	GuildID      string `json:"guild_id"`
	PingInterval string `json:"ping_interval"`
}

type httpConfigFile struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

type previewConfigFile struct {
	TTL string `json:"ttl"`
}

// LoadFromFile reads a JSON config file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := DefaultConfig()

	if file.Gateway != nil {
		if file.Gateway.URL != "" {
			config.Gateway.URL = file.Gateway.URL
		}
		if file.Gateway.Token != "" {
			config.Gateway.Token = file.Gateway.Token
		}
		if file.Gateway.CommandName != "" {
			config.Gateway.CommandName = file.Gateway.CommandName
		}
		if file.Gateway.GuildID != "" {
			config.Gateway.GuildID = file.Gateway.GuildID
		}
		if file.Gateway.PingInterval != "" {
			if d, err := time.ParseDuration(file.Gateway.PingInterval); err == nil {
				config.Gateway.PingInterval = d
			}
		}
	}
	if file.Storage != nil {
		if file.Storage.StatePath != "" {
			config.Storage.StatePath = file.Storage.StatePath
		}
		config.Storage.HistoryPath = file.Storage.HistoryPath
	}
	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			config.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			config.HTTP.Port = file.HTTP.Port
		}
		if file.HTTP.ReadTimeout != "" {
			if d, err := time.ParseDuration(file.HTTP.ReadTimeout); err == nil {
				config.HTTP.ReadTimeout = d
			}
		}
		if file.HTTP.WriteTimeout != "" {
			if d, err := time.ParseDuration(file.HTTP.WriteTimeout); err == nil {
				config.HTTP.WriteTimeout = d
			}
		}
	}
	if file.Preview != nil && file.Preview.TTL != "" {
		if d, err := time.ParseDuration(file.Preview.TTL); err == nil {
			config.Preview.TTL = d
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return config, nil
}

// LoadWithPrecedence resolves configuration as file > environment >
// defaults. Missing .env and config files are fine; environment and
// defaults still apply.
func LoadWithPrecedence(path string) *Config {
	_ = godotenv.Load()

	config := LoadFromEnv()

	if path != "" {
		if fileConfig, err := LoadFromFile(path); err == nil {
			config = fileConfig
		}
	}

	return config
}
