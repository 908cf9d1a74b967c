package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if config.Gateway.CommandName != "tutoring" {
		t.Errorf("default command name = %q", config.Gateway.CommandName)
	}
	if config.Preview.TTL != 600*time.Second {
		t.Errorf("default preview TTL = %v", config.Preview.TTL)
	}
	if config.Storage.StatePath != "./data/sessions.json" {
		t.Errorf("default state path = %q", config.Storage.StatePath)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STUDYTABLES_GATEWAY_URL", "ws://gw.example.com/gateway")
	t.Setenv("STUDYTABLES_GATEWAY_TOKEN", "secret")
	t.Setenv("STUDYTABLES_COMMAND_NAME", "study")
	t.Setenv("STUDYTABLES_GUILD_ID", "guild-9")
	t.Setenv("STUDYTABLES_STATE_PATH", "/var/lib/st/sessions.json")
	t.Setenv("STUDYTABLES_HISTORY_PATH", "/var/lib/st/history.db")
	t.Setenv("STUDYTABLES_HTTP_PORT", "9090")
	t.Setenv("STUDYTABLES_PREVIEW_TTL", "5m")

	config := LoadFromEnv()
	if config.Gateway.URL != "ws://gw.example.com/gateway" {
		t.Errorf("gateway URL = %q", config.Gateway.URL)
	}
	if config.Gateway.Token != "secret" {
		t.Errorf("gateway token = %q", config.Gateway.Token)
	}
	if config.Gateway.CommandName != "study" {
		t.Errorf("command name = %q", config.Gateway.CommandName)
	}
	if config.Gateway.GuildID != "guild-9" {
		t.Errorf("guild ID = %q", config.Gateway.GuildID)
	}
	if config.Storage.StatePath != "/var/lib/st/sessions.json" {
		t.Errorf("state path = %q", config.Storage.StatePath)
	}
	if config.HTTP.Port != 9090 {
		t.Errorf("HTTP port = %d", config.HTTP.Port)
	}
	if config.Preview.TTL != 5*time.Minute {
		t.Errorf("preview TTL = %v", config.Preview.TTL)
	}
}

func TestLoadFromEnv_IgnoresUnparsableValues(t *testing.T) {
	t.Setenv("STUDYTABLES_HTTP_PORT", "not-a-number")
	t.Setenv("STUDYTABLES_PREVIEW_TTL", "soon")

	config := LoadFromEnv()
	if config.HTTP.Port != 8080 {
		t.Errorf("HTTP port = %d, want default 8080", config.HTTP.Port)
	}
	if config.Preview.TTL != 600*time.Second {
		t.Errorf("preview TTL = %v, want default", config.Preview.TTL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"gateway": {"url": "ws://file.example.com/gateway", "ping_interval": "45s"},
		"storage": {"state_path": "/data/sessions.json", "history_path": ""},
		"http": {"port": 7070},
		"preview": {"ttl": "2m"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Gateway.URL != "ws://file.example.com/gateway" {
		t.Errorf("gateway URL = %q", config.Gateway.URL)
	}
	if config.Gateway.PingInterval != 45*time.Second {
		t.Errorf("ping interval = %v", config.Gateway.PingInterval)
	}
	if config.Gateway.CommandName != "tutoring" {
		t.Errorf("command name = %q, want default kept", config.Gateway.CommandName)
	}
	if config.Storage.StatePath != "/data/sessions.json" {
		t.Errorf("state path = %q", config.Storage.StatePath)
	}
	// An explicitly empty history path disables the history log.
	if config.Storage.HistoryPath != "" {
		t.Errorf("history path = %q, want empty", config.Storage.HistoryPath)
	}
	if config.HTTP.Port != 7070 {
		t.Errorf("HTTP port = %d", config.HTTP.Port)
	}
	if config.Preview.TTL != 2*time.Minute {
		t.Errorf("preview TTL = %v", config.Preview.TTL)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestLoadWithPrecedence_FileBeatsEnv(t *testing.T) {
	t.Setenv("STUDYTABLES_HTTP_PORT", "9090")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"http": {"port": 7070}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config := LoadWithPrecedence(path)
	if config.HTTP.Port != 7070 {
		t.Errorf("HTTP port = %d, want file value 7070", config.HTTP.Port)
	}
}

func TestLoadWithPrecedence_FallsBackToEnv(t *testing.T) {
	t.Setenv("STUDYTABLES_HTTP_PORT", "9090")

	config := LoadWithPrecedence(filepath.Join(t.TempDir(), "missing.json"))
	if config.HTTP.Port != 9090 {
		t.Errorf("HTTP port = %d, want env value 9090", config.HTTP.Port)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty gateway URL", func(c *Config) { c.Gateway.URL = "" }},
		{"empty command name", func(c *Config) { c.Gateway.CommandName = "" }},
		{"zero ping interval", func(c *Config) { c.Gateway.PingInterval = 0 }},
		{"empty state path", func(c *Config) { c.Storage.StatePath = "" }},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }},
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"zero read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"zero preview TTL", func(c *Config) { c.Preview.TTL = 0 }},
		{"nil gateway", func(c *Config) { c.Gateway = nil }},
		{"nil preview", func(c *Config) { c.Preview = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
