package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Store    StoreConfig    `toml:"store"`
	Remote   RemoteConfig   `toml:"remote"`
	Ambient  AmbientConfig  `toml:"ambient"`
	Popover  PopoverConfig  `toml:"popover"`
	Confirm  ConfirmConfig  `toml:"confirm"`
	Add      AddConfig      `toml:"add"`
	Server   ServerConfig   `toml:"server"`
	Keys     KeysConfig     `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type StoreConfig struct {
	CounterFloor int64 `toml:"counter_floor"`
}

type RemoteConfig struct {
	URL       string             `toml:"url"`
	Timeout   string             `toml:"timeout"`
	ItemsPath string             `toml:"items_path"`
	Fields    RemoteFieldsConfig `toml:"fields"`
}

// RemoteFieldsConfig lists accepted external field names per channel field.
type RemoteFieldsConfig struct {
	ID            []string `toml:"id"`
	DisplayNumber []string `toml:"display_number"`
	SecondaryID   []string `toml:"secondary_id"`
}

type AmbientConfig struct {
	MarkupPath string `toml:"markup_path"`
}

// PopoverConfig is measured in terminal cells.
type PopoverConfig struct {
	Gap    int `toml:"gap"`
	Margin int `toml:"margin"`
}

type ConfirmConfig struct {
	Delete bool `toml:"delete"`
}

type AddConfig struct {
	PairingBase string `toml:"pairing_base"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeysConfig overrides single TUI bindings. Blank keeps the default.
type KeysConfig struct {
	Add    string `toml:"add"`
	Menu   string `toml:"menu"`
	Delete string `toml:"delete"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".chantab/log",
			},
		},
		Store: StoreConfig{
			CounterFloor: 0,
		},
		Remote: RemoteConfig{
			Timeout: "5s",
		},
		Popover: PopoverConfig{
			Gap:    1,
			Margin: 1,
		},
		Confirm: ConfirmConfig{
			Delete: true,
		},
		Add: AddConfig{
			PairingBase: "https://example.com/pair",
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Keys: KeysConfig{
			Add:    "n",
			Menu:   ".",
			Delete: "d",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Store.CounterFloor < 0 {
		return errors.New("store.counter_floor must be >= 0")
	}

	if raw := strings.TrimSpace(c.Remote.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid remote.url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("remote.url must use http or https: %q", raw)
		}
	}
	if _, err := c.RemoteTimeout(); err != nil {
		return err
	}
	for name, aliases := range map[string][]string{
		"id":             c.Remote.Fields.ID,
		"display_number": c.Remote.Fields.DisplayNumber,
		"secondary_id":   c.Remote.Fields.SecondaryID,
	} {
		for idx, alias := range aliases {
			if strings.TrimSpace(alias) == "" {
				return fmt.Errorf("remote.fields.%s[%d] is empty", name, idx)
			}
		}
	}

	if c.Popover.Gap < 0 {
		return errors.New("popover.gap must be >= 0")
	}
	if c.Popover.Margin < 0 {
		return errors.New("popover.margin must be >= 0")
	}

	if raw := strings.TrimSpace(c.Add.PairingBase); raw != "" {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid add.pairing_base: %w", err)
		}
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	for name, endpoint := range map[string]string{
		"api_endpoint": c.Server.APIEndpoint,
		"mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("server.%s must start with /: %q", name, endpoint)
		}
	}
	if strings.TrimRight(c.Server.APIEndpoint, "/") == strings.TrimRight(c.Server.MCPEndpoint, "/") {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}

	seen := map[string]string{}
	for _, binding := range []struct{ name, value string }{
		{"add", c.Keys.Add},
		{"menu", c.Keys.Menu},
		{"delete", c.Keys.Delete},
	} {
		value := normalizeKey(binding.value)
		if value == "" {
			continue
		}
		if fixed, ok := fixedKeys[value]; ok && !(value == "enter" && binding.name == "menu") {
			return fmt.Errorf("keys.%s %q is reserved for %s", binding.name, value, fixed)
		}
		if other, ok := seen[value]; ok {
			return fmt.Errorf("keys.%s and keys.%s both use %q", other, binding.name, value)
		}
		seen[value] = binding.name
	}

	return nil
}

// fixedKeys maps table-level keys that cannot be overridden to their action.
// enter always opens the action menu; confirmation keys (y, n) only apply inside dialogs.
var fixedKeys = map[string]string{
	"q":      "quit",
	"ctrl+c": "quit",
	"r":      "retry",
	"?":      "help",
	"j":      "move down",
	"down":   "move down",
	"k":      "move up",
	"up":     "move up",
	"esc":    "close",
	"enter":  "actions",
}

// normalizeKey matches the TUI's parsing of one binding value.
func normalizeKey(raw string) string {
	value := strings.TrimSpace(raw)
	if len([]rune(value)) > 1 {
		return strings.ToLower(value)
	}
	return value
}

// RemoteTimeout parses remote.timeout. Empty means no timeout.
func (c Config) RemoteTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Remote.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid remote.timeout: %w", err)
	}
	if d < 0 {
		return 0, errors.New("remote.timeout must be >= 0")
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
