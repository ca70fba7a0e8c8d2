package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/chantab/internal/popover"
	"github.com/evanschultz/chantab/internal/rows"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	titleColor  = lipgloss.Color("252")
	pickColor   = lipgloss.Color("212")
	dangerColor = lipgloss.Color("203")
)

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render composes the screen as a string.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.loaded {
		return "loading..."
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	sourceStyle := lipgloss.NewStyle().Foreground(dimColor)
	header := titleStyle.Render("chantab") + sourceStyle.Render("  source: "+string(m.svc.Source()))

	table := lipgloss.NewStyle().PaddingLeft(tableOrigin.X).Render(m.table.View())
	body := header + strings.Repeat("\n", tableOrigin.Y) + table

	statusLine := lipgloss.NewStyle().Foreground(dimColor).Padding(0, 1).Render(m.status)
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	footer := statusLine + "\n" + helpLine

	if m.width <= 0 || m.height <= 0 {
		return m.renderStacked(body + "\n\n" + footer)
	}

	bodyHeight := max(0, m.height-lipgloss.Height(footer))
	base := fitLines(body, bodyHeight) + "\n" + footer

	layers := make([]*lipgloss.Layer, 0, 3)
	if m.menu.State().Visible {
		placement := m.menu.Placement()
		layers = append(layers, lipgloss.NewLayer(renderMenu(m.menuIndex)).X(placement.Left).Y(placement.Top).Z(5))
	}
	if m.dialog.State().Visible {
		rect := m.dialogRect()
		layers = append(layers, lipgloss.NewLayer(m.renderDialog()).X(rect.Left).Y(rect.Top).Z(10))
	}
	out := composeLayers(base, m.width, m.height, layers...)
	if m.pendingDelete != "" {
		out = overlayOnContent(out, m.renderConfirm(), m.width, m.height)
	}
	if m.showHelp {
		out = overlayOnContent(out, m.renderHelp(), m.width, m.height)
	}
	return out
}

// renderStacked appends open overlays below content when the screen size is unknown.
func (m Model) renderStacked(content string) string {
	parts := []string{content}
	if m.menu.State().Visible {
		parts = append(parts, renderMenu(m.menuIndex))
	}
	if m.dialog.State().Visible {
		parts = append(parts, m.renderDialog())
	}
	if m.pendingDelete != "" {
		parts = append(parts, m.renderConfirm())
	}
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}
	return strings.Join(parts, "\n\n")
}

// menuPanelSize measures the action menu panel.
func menuPanelSize() popover.Size {
	panel := renderMenu(-1)
	return popover.Size{Width: lipgloss.Width(panel), Height: lipgloss.Height(panel)}
}

// renderMenu renders the bordered action menu. selected < 0 highlights nothing.
func renderMenu(selected int) string {
	itemStyle := lipgloss.NewStyle().Foreground(titleColor)
	pickStyle := lipgloss.NewStyle().Foreground(pickColor).Bold(true)
	deleteStyle := lipgloss.NewStyle().Foreground(dangerColor)
	width := 0
	for _, item := range menuItems {
		width = max(width, lipgloss.Width(item.label)+2)
	}
	lines := make([]string, 0, len(menuItems))
	for idx, item := range menuItems {
		label := "  " + item.label
		style := itemStyle
		if item.action == actionDelete {
			style = deleteStyle
		}
		if idx == selected {
			label = "› " + item.label
			style = pickStyle
		}
		lines = append(lines, style.Render(padRight(label, width)))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// dialogRect returns the screen rect of the centered add dialog.
func (m Model) dialogRect() popover.Rect {
	dialog := m.renderDialog()
	w, h := lipgloss.Width(dialog), lipgloss.Height(dialog)
	return popover.Rect{
		Left:   max(0, (m.width-w)/2),
		Top:    max(0, (m.height-h)/2),
		Width:  w,
		Height: h,
	}
}

// renderDialog renders the add-channel dialog with its pairing QR code.
func (m Model) renderDialog() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	value := m.dialog.Value()
	sections := []string{titleStyle.Render("Add " + rows.NamePrefix + value)}

	target, err := pairingURL(m.pairingBase, m.token, value)
	if err == nil {
		var code string
		code, err = renderQR(target)
		if err == nil {
			sections = append(sections, "", code)
		}
	}
	if err != nil {
		sections = append(sections, "", hintStyle.Render("qr unavailable: "+err.Error()))
	}
	sections = append(sections, "", hintStyle.Render("enter/y confirm • esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 2).
		Render(strings.Join(sections, "\n"))
}

// renderConfirm renders the delete confirmation box.
func (m Model) renderConfirm() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(dangerColor)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dangerColor).
		Padding(0, 2).
		Render(titleStyle.Render("Delete "+m.channelName(m.pendingDelete)+"?") + "\n\n" + hintStyle.Render("y/enter yes • n/esc no"))
}

// renderHelp renders the markdown help overlay.
func (m Model) renderHelp() string {
	width := clamp(m.width-8, 24, 72)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Render(m.doc.render(helpMarkdown(m.keys), width))
}

// composeLayers draws layers at absolute cells over base.
func composeLayers(base string, width, height int, layers ...*lipgloss.Layer) string {
	if len(layers) == 0 {
		return base
	}
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(fitLines(base, height)).X(0).Y(0).Z(0))
	for _, layer := range layers {
		canvas.Compose(layer)
	}
	return canvas.Render()
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	return composeLayers(base, width, height, lipgloss.NewLayer(centered).X(0).Y(0).Z(20))
}

// padRight pads s to width cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
