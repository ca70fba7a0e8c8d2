package platform

import (
	"path/filepath"
	"testing"
)

func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
	}, "/fallback/config", "/fallback/data", "chantab")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	want := Paths{
		ConfigPath: filepath.Join("/xdg/config", "chantab", "config.toml"),
		DataDir:    filepath.Join("/xdg/data", "chantab"),
		DBPath:     filepath.Join("/xdg/data", "chantab", "chantab.db"),
		MarkupPath: filepath.Join("/xdg/data", "chantab", "channels.html"),
		ExportPath: filepath.Join("/xdg/data", "chantab", "channels.json"),
	}
	if p != want {
		t.Fatalf("PathsFor() = %#v, want %#v", p, want)
	}
}

func TestPathsForLinuxWithoutXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{}, "/home/me/.config", "/home/me/.local/share", "chantab-dev")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if p.ConfigPath != filepath.Join("/home/me/.config", "chantab-dev", "config.toml") {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if p.DBPath != filepath.Join("/home/me/.local/share", "chantab-dev", "chantab-dev.db") {
		t.Fatalf("unexpected db path %q", p.DBPath)
	}
}

func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}, `C:\fallback\config`, `C:\fallback\data`, "chantab")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if p.ConfigPath != filepath.Join(`C:\Users\me\AppData\Roaming`, "chantab", "config.toml") {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if p.DBPath != filepath.Join(`C:\Users\me\AppData\Local`, "chantab", "chantab.db") {
		t.Fatalf("unexpected db path %q", p.DBPath)
	}
}

func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	p, err := PathsFor("darwin", map[string]string{"XDG_CONFIG_HOME": "/xdg"}, "/Users/me/Library/Application Support", "/Users/me/Library/Application Support", "chantab")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if p.ConfigPath != filepath.Join("/Users/me/Library/Application Support", "chantab", "config.toml") {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("linux", nil, "", "/data", "chantab"); err == nil {
		t.Fatal("expected error for empty base dir")
	}
	if _, err := PathsFor("linux", nil, "/config", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestDefaultPathsWithOptionsDevSuffix(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	p, err := DefaultPathsWithOptions(Options{AppName: "chantab", DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(p.DataDir) != "chantab-dev" {
		t.Fatalf("expected dev data dir, got %q", p.DataDir)
	}
}
