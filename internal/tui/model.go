package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/evanschultz/chantab/internal/app"
	"github.com/evanschultz/chantab/internal/domain"
	"github.com/evanschultz/chantab/internal/overlay"
	"github.com/evanschultz/chantab/internal/popover"
	"github.com/evanschultz/chantab/internal/rows"
)

// Service is the channel store surface driven by the model.
type Service interface {
	Initialize(context.Context) ([]domain.Channel, error)
	Add(context.Context, string) (domain.Channel, error)
	Remove(context.Context, string) bool
	Snapshot() []domain.Channel
	Source() app.Tier
}

// menuAction identifies one action menu entry.
type menuAction int

// actionSettings and related constants list the action menu entries in display order.
const (
	actionSettings menuAction = iota
	actionCopyAccount
	actionDelete
)

// menuItems lists the action menu entries.
var menuItems = []struct {
	action menuAction
	label  string
}{
	{action: actionSettings, label: "Settings"},
	{action: actionCopyAccount, label: "Copy account"},
	{action: actionDelete, label: "Delete"},
}

// tableOrigin is the screen cell of the table header.
var tableOrigin = popover.Point{X: 1, Y: 2}

// channelsLoadedMsg carries the boot result.
type channelsLoadedMsg struct {
	channels []domain.Channel
	err      error
}

// Model is the channel table program state.
type Model struct {
	svc    Service
	logger app.Logger
	keys   keyMap
	help   help.Model
	doc    *markdownRenderer

	table   *rows.Table
	menu    *overlay.Menu
	dialog  *overlay.Dialog
	screen  *popover.Size
	spacing popover.Spacing

	width    int
	height   int
	loaded   bool
	err      error
	showHelp bool
	status   string

	menuIndex     int
	pendingDelete string
	confirmDelete bool
	pairingBase   string
	token         string

	copyText          func(string) error
	nextDisplayNumber func() string
	nextToken         func() string
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:               svc,
		logger:            discardLogger{},
		keys:              newKeyMap(),
		help:              h,
		doc:               &markdownRenderer{},
		table:             rows.NewTable(),
		dialog:            overlay.NewDialog(),
		screen:            &popover.Size{},
		spacing:           popover.Spacing{Gap: 1, Margin: 1},
		status:            "loading...",
		confirmDelete:     true,
		pairingBase:       "https://example.com/pair",
		copyText:          clipboard.WriteAll,
		nextDisplayNumber: app.NewDisplayNumber,
		nextToken:         uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.table.SetOrigin(tableOrigin)
	m.menu = overlay.NewMenu(menuGeometry(m.table, m.screen), m.spacing)
	return m
}

// menuGeometry resolves a trigger's anchor against the live table and screen size.
func menuGeometry(table *rows.Table, screen *popover.Size) overlay.GeometryFunc {
	panel := menuPanelSize()
	return func(targetID string) (popover.Rect, popover.Size, popover.Size, bool) {
		trigger, ok := table.Trigger(targetID)
		if !ok {
			return popover.Rect{}, popover.Size{}, popover.Size{}, false
		}
		return trigger.Rect, panel, *screen, true
	}
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadChannels
}

// loadChannels resolves the initial channel list.
func (m Model) loadChannels() tea.Msg {
	channels, err := m.svc.Initialize(context.Background())
	return channelsLoadedMsg{channels: channels, err: err}
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		*m.screen = popover.Size{Width: msg.Width, Height: msg.Height}
		m.table.SetWidth(max(0, msg.Width-2*tableOrigin.X))
		if m.loaded {
			m.refresh()
		}
		return m, nil

	case channelsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "load failed"
			m.logger.Error("load channels failed", "err", msg.err)
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.table.Render(msg.channels, nil)
		m.status = fmt.Sprintf("loaded %d channels from %s", len(msg.channels), m.svc.Source())
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// handleKey routes one key press by the active overlay.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.err != nil {
		if key.Matches(msg, m.keys.reload) {
			m.err = nil
			m.status = "loading..."
			return m, m.loadChannels
		}
		return m, nil
	}
	if !m.loaded {
		return m, nil
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.toggleHelp, m.keys.cancel) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.pendingDelete != "" {
		switch {
		case key.Matches(msg, m.keys.confirm):
			id := m.pendingDelete
			m.pendingDelete = ""
			m.removeChannel(id)
		case key.Matches(msg, m.keys.deny, m.keys.cancel):
			m.pendingDelete = ""
			m.status = "delete canceled"
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.cancel) {
		if n := overlay.DismissAll(overlay.ReasonCancelKey, m.menu, m.dialog); n > 0 {
			m.token = ""
			m.status = "closed"
		}
		return m, nil
	}
	if m.dialog.State().Visible {
		if key.Matches(msg, m.keys.confirm) {
			m.confirmAdd()
		}
		return m, nil
	}
	if m.menu.State().Visible {
		switch {
		case key.Matches(msg, m.keys.moveUp):
			m.menuIndex = clamp(m.menuIndex-1, 0, len(menuItems)-1)
			return m, nil
		case key.Matches(msg, m.keys.moveDown):
			m.menuIndex = clamp(m.menuIndex+1, 0, len(menuItems)-1)
			return m, nil
		case key.Matches(msg, m.keys.confirm):
			m.activateMenuItem(m.menuIndex)
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.showHelp = true
	case key.Matches(msg, m.keys.moveUp):
		m.table.MoveSelection(-1)
	case key.Matches(msg, m.keys.moveDown):
		m.table.MoveSelection(1)
	case key.Matches(msg, m.keys.menu):
		if row, ok := m.table.Selected(); ok {
			m.toggleMenu(row.TriggerID)
		}
	case key.Matches(msg, m.keys.add):
		m.openDialog()
	case key.Matches(msg, m.keys.delete):
		if row, ok := m.table.Selected(); ok {
			m.requestDelete(row.TriggerID)
		}
	}
	return m, nil
}

// handleMouseClick routes one click through overlays, triggers, and rows.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || !m.loaded {
		return m, nil
	}
	p := popover.Point{X: msg.X, Y: msg.Y}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.pendingDelete != "" {
		return m, nil
	}
	if m.dialog.State().Visible {
		if !m.dialogRect().Contains(p) && m.dialog.Dismiss(overlay.ReasonBackdrop) {
			m.token = ""
			m.status = "add canceled"
		}
		return m, nil
	}

	panel := m.menu.PanelRect()
	if m.menu.State().Visible && panel.Contains(p) {
		// Items start one row below the panel border.
		if idx := p.Y - panel.Top - 1; idx >= 0 && idx < len(menuItems) {
			m.menuIndex = idx
			m.activateMenuItem(idx)
		}
		return m, nil
	}
	if trigger, ok := m.table.TriggerAt(p); ok {
		m.table.Select(trigger.Index)
		m.toggleMenu(trigger.ID)
		return m, nil
	}
	if m.menu.ClickOutside(p, panel, false) {
		m.status = "menu closed"
	}
	if m.table.AddButton().Contains(p) {
		m.openDialog()
		return m, nil
	}
	if idx, ok := m.table.RowAt(p); ok {
		m.table.Select(idx)
	}
	return m, nil
}

// toggleMenu opens or closes the action menu for id.
func (m *Model) toggleMenu(id string) {
	if m.menu.Toggle(id) {
		m.menuIndex = 0
		m.status = "actions for " + m.channelName(id)
		return
	}
	m.status = "menu closed"
}

// activateMenuItem runs one action menu entry against the open target.
func (m *Model) activateMenuItem(idx int) {
	target := m.menu.State().TargetID
	if target == "" || idx < 0 || idx >= len(menuItems) {
		return
	}
	switch menuItems[idx].action {
	case actionSettings:
		m.logger.Info("settings requested", "id", target)
		m.status = "settings for " + m.channelName(target)
		m.menu.Close()
	case actionCopyAccount:
		account := m.account(target)
		if err := m.copyText(account); err != nil {
			m.logger.Warn("copy account failed", "id", target, "err", err)
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = "copied account " + account
		}
		m.menu.Close()
	case actionDelete:
		m.requestDelete(target)
	}
}

// requestDelete removes id immediately or asks for confirmation first.
func (m *Model) requestDelete(id string) {
	if !m.confirmDelete {
		m.removeChannel(id)
		return
	}
	m.pendingDelete = id
	m.status = "delete " + m.channelName(id) + "? y/n"
}

// removeChannel deletes id and rebuilds the table.
func (m *Model) removeChannel(id string) {
	name := m.channelName(id)
	if !m.svc.Remove(context.Background(), id) {
		m.status = name + " already removed"
	} else {
		m.status = "deleted " + name
	}
	if m.menu.State().TargetID == id {
		m.menu.Close()
	}
	m.refresh()
}

// openDialog opens the add-channel dialog with a fresh display number and token.
func (m *Model) openDialog() {
	value := m.nextDisplayNumber()
	m.token = m.nextToken()
	m.dialog.Open(value)
	m.status = "scan to add " + rows.NamePrefix + value
}

// confirmAdd adds the dialog's channel and closes it.
func (m *Model) confirmAdd() {
	var added domain.Channel
	err := m.dialog.Confirm(func(value string) error {
		ch, err := m.svc.Add(context.Background(), value)
		if err != nil {
			return err
		}
		added = ch
		return nil
	})
	if err != nil {
		m.logger.Error("add channel failed", "err", err)
		m.status = "add failed: " + err.Error()
		return
	}
	m.token = ""
	m.refresh()
	m.table.Select(m.table.Len() - 1)
	m.status = fmt.Sprintf("added %s%s (id %s)", rows.NamePrefix, added.DisplayNumber, added.ID)
}

// refresh rebuilds the table from the store and re-places an open menu.
func (m *Model) refresh() {
	m.table.Render(m.svc.Snapshot(), nil)
	m.menu.Reposition()
}

// channelName returns the row title for id.
func (m Model) channelName(id string) string {
	for _, row := range m.table.Rows() {
		if row.TriggerID == id {
			return row.Name
		}
	}
	return "channel " + id
}

// account returns the row account for id.
func (m Model) account(id string) string {
	for _, row := range m.table.Rows() {
		if row.TriggerID == id {
			return row.Account
		}
	}
	return ""
}

// discardLogger drops model events when no logger is configured.
type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}
