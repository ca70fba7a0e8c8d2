package overlay

import (
	"strings"

	"github.com/evanschultz/chantab/internal/popover"
)

// GeometryFunc reports the anchor rect for targetID, the panel size, and the viewport size.
type GeometryFunc func(targetID string) (anchor popover.Rect, panel popover.Size, viewport popover.Size, ok bool)

// Menu is the per-row action menu. It is placed next to its trigger before it becomes visible.
type Menu struct {
	geometry  GeometryFunc
	spacing   popover.Spacing
	state     State
	placement popover.Placement
	panel     popover.Size
}

// NewMenu constructs a closed menu.
func NewMenu(geometry GeometryFunc, spacing popover.Spacing) *Menu {
	return &Menu{geometry: geometry, spacing: spacing}
}

// Open places the menu for targetID and shows it. Unknown targets leave it closed.
func (m *Menu) Open(targetID string) bool {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" || m.geometry == nil {
		return false
	}
	anchor, panel, viewport, ok := m.geometry(targetID)
	if !ok {
		return false
	}
	m.placement = popover.PlaceWith(anchor, panel, viewport, m.spacing)
	m.panel = panel
	m.state = State{Visible: true, TargetID: targetID}
	return true
}

// Close hides the menu and clears its target.
func (m *Menu) Close() {
	m.state = State{}
	m.placement = popover.Placement{}
	m.panel = popover.Size{}
}

// Toggle closes the menu when targetID is already open, otherwise reopens it for targetID.
// It reports whether the menu is visible afterwards.
func (m *Menu) Toggle(targetID string) bool {
	if m.state.Visible && m.state.TargetID == strings.TrimSpace(targetID) {
		m.Close()
		return false
	}
	m.Close()
	return m.Open(targetID)
}

// Reposition recomputes the placement for the open target, closing the menu if it is gone.
func (m *Menu) Reposition() bool {
	if !m.state.Visible {
		return false
	}
	if m.Open(m.state.TargetID) {
		return true
	}
	m.Close()
	return false
}

// State returns the current state.
func (m *Menu) State() State {
	return m.state
}

// Placement returns the last computed placement.
func (m *Menu) Placement() popover.Placement {
	return m.placement
}

// PanelRect returns the open panel's screen rect.
func (m *Menu) PanelRect() popover.Rect {
	if !m.state.Visible {
		return popover.Rect{}
	}
	return m.placement.Rect(m.panel)
}

// Dismiss closes an open menu and reports whether it was open.
func (m *Menu) Dismiss(Reason) bool {
	if !m.state.Visible {
		return false
	}
	m.Close()
	return true
}

// ClickOutside closes the menu when p is outside panel and not on a trigger.
func (m *Menu) ClickOutside(p popover.Point, panel popover.Rect, onTrigger bool) bool {
	if !m.state.Visible || onTrigger || panel.Contains(p) {
		return false
	}
	return m.Dismiss(ReasonOutsideClick)
}
