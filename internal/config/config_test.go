package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/chantab.db")
	if cfg.Database.Path != "/tmp/chantab.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Popover.Gap != 1 || cfg.Popover.Margin != 1 {
		t.Fatalf("unexpected popover spacing %#v", cfg.Popover)
	}
	if !cfg.Confirm.Delete {
		t.Fatal("expected delete confirmation enabled by default")
	}
	if cfg.Remote.URL != "" {
		t.Fatalf("expected no remote by default, got %q", cfg.Remote.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() default error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/chantab.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadEmptyPathAndEmptyFile(t *testing.T) {
	defaults := Default("/tmp/chantab.db")
	if _, err := Load("  ", defaults); err != nil {
		t.Fatalf("Load(blank) error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, defaults); err != nil {
		t.Fatalf("Load(empty file) error = %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/chantab.db"

[logging]
level = "debug"

[store]
counter_floor = 100

[remote]
url = "https://example.com/channels.json"
timeout = "750ms"
items_path = "data.channels"

[remote.fields]
id = ["channel_id"]
display_number = ["number", "displayNumber"]

[ambient]
markup_path = "/srv/www/channels.html"

[popover]
gap = 0
margin = 2

[confirm]
delete = false

[keys]
add = "a"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/chantab.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if cfg.Store.CounterFloor != 100 {
		t.Fatalf("unexpected counter floor %d", cfg.Store.CounterFloor)
	}
	if cfg.Remote.ItemsPath != "data.channels" || len(cfg.Remote.Fields.DisplayNumber) != 2 {
		t.Fatalf("unexpected remote config %#v", cfg.Remote)
	}
	if timeout, err := cfg.RemoteTimeout(); err != nil || timeout != 750*time.Millisecond {
		t.Fatalf("RemoteTimeout() = (%v, %v), want 750ms", timeout, err)
	}
	if cfg.Ambient.MarkupPath != "/srv/www/channels.html" {
		t.Fatalf("unexpected markup path %q", cfg.Ambient.MarkupPath)
	}
	if cfg.Popover.Gap != 0 || cfg.Popover.Margin != 2 {
		t.Fatalf("unexpected popover %#v", cfg.Popover)
	}
	if cfg.Confirm.Delete {
		t.Fatal("expected delete confirmation disabled from config override")
	}
	if cfg.Keys.Add != "a" || cfg.Keys.Menu != "." {
		t.Fatalf("unexpected keys %#v", cfg.Keys)
	}
	if cfg.Server.Bind != "127.0.0.1:5437" {
		t.Fatalf("expected default server bind preserved, got %q", cfg.Server.Bind)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"log level":           "[logging]\nlevel = \"loud\"\n",
		"counter floor":       "[store]\ncounter_floor = -1\n",
		"remote scheme":       "[remote]\nurl = \"ftp://example.com/x\"\n",
		"timeout":             "[remote]\ntimeout = \"soon\"\n",
		"empty alias":         "[remote.fields]\nid = [\"\"]\n",
		"popover gap":         "[popover]\ngap = -1\n",
		"bind":                "[server]\nbind = \"\"\n",
		"endpoint":            "[server]\napi_endpoint = \"api\"\n",
		"same endpoint":       "[server]\napi_endpoint = \"/mcp\"\n",
		"bad toml":            "[database\n",
		"key collision":       "[keys]\nadd = \"d\"\n",
		"key shadows quit":    "[keys]\nadd = \"q\"\n",
		"key shadows move":    "[keys]\ndelete = \"j\"\n",
		"key shadows help":    "[keys]\nmenu = \"?\"\n",
		"key shadows cancel":  "[keys]\ndelete = \"ESC\"\n",
		"key shadows actions": "[keys]\nadd = \"enter\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/default.db")); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestValidateAllowsMenuEnter(t *testing.T) {
	cfg := Default("/tmp/default.db")
	cfg.Keys = KeysConfig{Add: "a", Menu: "enter", Delete: "X"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	cfg.Keys.Delete = "Q"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() shifted key error = %v", err)
	}
	cfg.Keys.Delete = "q"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "reserved for quit") {
		t.Fatalf("Validate() error = %v, want reserved quit", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
