package tui

import (
	"slices"
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides single bindings. Blank fields keep the defaults.
type KeyConfig struct {
	Add    string
	Menu   string
	Delete string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	add        key.Binding
	menu       key.Binding
	delete     key.Binding
	confirm    key.Binding
	deny       key.Binding
	cancel     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry load")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		add:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add channel")),
		menu:       key.NewBinding(key.WithKeys(".", "enter"), key.WithHelp("./enter", "actions")),
		delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		confirm:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "confirm")),
		deny:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// applyConfig applies configured overrides to the user-facing bindings.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.add, cfg.Add, "add channel")
	configureBinding(&k.menu, cfg.Menu, "actions", "enter")
	configureBinding(&k.delete, cfg.Delete, "delete")
}

// configureBinding replaces b with the parsed override plus the fixed keys.
// A blank override keeps b.
func configureBinding(b *key.Binding, raw, desc string, fixed ...string) {
	keys, help := parseBindingKeys(raw)
	if len(keys) == 0 {
		return
	}
	for _, k := range fixed {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
			help += "/" + k
		}
	}
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys returns key matchers and help text for one configured binding.
func parseBindingKeys(raw string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, ""
	}
	if strings.EqualFold(value, "space") {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(value)
	if len(runes) == 1 {
		r := runes[0]
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.moveDown, k.menu, k.add, k.delete, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.menu, k.add, k.delete},
		{k.confirm, k.deny, k.cancel, k.toggleHelp, k.quit},
	}
}
