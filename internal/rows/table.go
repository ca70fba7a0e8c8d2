package rows

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/chantab/internal/domain"
	"github.com/evanschultz/chantab/internal/popover"
)

// Table layout in terminal cells.
const (
	RowHeight    = 2
	HeaderHeight = 2

	minNameWidth  = 12
	statusWidth   = 15
	accountWidth  = 14
	labelWidth    = 8
	columnGap     = 2
	triggerGlyph  = "•••"
	triggerWidth  = 3
	addButtonText = "[+ add]"
	fixedWidth    = statusWidth + accountWidth + labelWidth + triggerWidth + 4*columnGap
)

// Table renders rows at a screen origin and hit-tests their triggers.
type Table struct {
	origin   popover.Point
	width    int
	rows     []Row
	triggers []Trigger
	selected int
}

// NewTable constructs an empty table at the screen origin.
func NewTable() *Table {
	return &Table{}
}

// SetOrigin moves the table's top-left cell. Call Render afterwards to refresh trigger geometry.
func (t *Table) SetOrigin(p popover.Point) {
	t.origin = p
}

// SetWidth sets the available width in cells.
func (t *Table) SetWidth(width int) {
	t.width = max(0, width)
}

// Render discards previous rows and triggers, lays out records, and registers each trigger.
func (t *Table) Render(records []domain.Channel, register func(Trigger)) {
	t.triggers = make([]Trigger, 0, len(records))
	t.rows = Build(records, func(tr Trigger) {
		tr.Rect = t.triggerRect(tr.Index)
		t.triggers = append(t.triggers, tr)
		if register != nil {
			register(tr)
		}
	})
	t.selected = clamp(t.selected, 0, len(t.rows)-1)
}

// Rows returns the rows from the last Render.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Trigger returns the registered trigger for id.
func (t *Table) Trigger(id string) (Trigger, bool) {
	for _, tr := range t.triggers {
		if tr.ID == id {
			return tr, true
		}
	}
	return Trigger{}, false
}

// TriggerAt returns the trigger under p.
func (t *Table) TriggerAt(p popover.Point) (Trigger, bool) {
	for _, tr := range t.triggers {
		if tr.Rect.Contains(p) {
			return tr, true
		}
	}
	return Trigger{}, false
}

// RowAt returns the row index under p.
func (t *Table) RowAt(p popover.Point) (int, bool) {
	relY := p.Y - t.origin.Y - HeaderHeight
	if relY < 0 || p.X < t.origin.X || p.X >= t.origin.X+t.totalWidth() {
		return 0, false
	}
	idx := relY / RowHeight
	if idx >= len(t.rows) {
		return 0, false
	}
	return idx, true
}

// AddButton returns the header add button's rect.
func (t *Table) AddButton() popover.Rect {
	w := lipgloss.Width(addButtonText)
	return popover.Rect{
		Left:   t.origin.X + t.totalWidth() - w,
		Top:    t.origin.Y,
		Width:  w,
		Height: 1,
	}
}

// Select moves the selection to idx, clamped to the rows.
func (t *Table) Select(idx int) {
	t.selected = clamp(idx, 0, len(t.rows)-1)
}

// MoveSelection shifts the selection by delta.
func (t *Table) MoveSelection(delta int) {
	t.Select(t.selected + delta)
}

// Selected returns the selected row.
func (t *Table) Selected() (Row, bool) {
	if len(t.rows) == 0 {
		return Row{}, false
	}
	return t.rows[t.selected], true
}

// Height returns the rendered height in lines.
func (t *Table) Height() int {
	if len(t.rows) == 0 {
		return HeaderHeight + 1
	}
	return HeaderHeight + len(t.rows)*RowHeight
}

// View renders the header and rows.
func (t *Table) View() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	addStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	ruleStyle := lipgloss.NewStyle().Foreground(dim)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	triggerStyle := lipgloss.NewStyle().Foreground(muted)

	total := t.totalWidth()
	nameW := t.nameWidth()
	header := joinCells(
		headerStyle.Render(pad("Name", nameW)),
		headerStyle.Render(pad("Status", statusWidth)),
		headerStyle.Render(pad("Account", accountWidth)),
	)
	header = pad(header, total-lipgloss.Width(addButtonText)) + addStyle.Render(addButtonText)
	lines := []string{header, ruleStyle.Render(strings.Repeat("─", total))}

	if len(t.rows) == 0 {
		lines = append(lines, subStyle.Render("No channels yet. Press n to add one."))
		return strings.Join(lines, "\n")
	}
	for idx, row := range t.rows {
		name := nameStyle
		trigger := triggerStyle
		if idx == t.selected {
			name = selectedStyle
			trigger = selectedStyle
		}
		lines = append(lines,
			joinCells(
				name.Render(pad(truncate(row.Name, nameW), nameW)),
				pad(row.Status[0], statusWidth),
				pad(truncate(row.Account, accountWidth), accountWidth),
				labelStyle.Render(pad(row.Label, labelWidth)),
				trigger.Render(triggerGlyph),
			),
			joinCells(
				pad("", nameW),
				subStyle.Render(pad(row.Status[1], statusWidth)),
				pad("", accountWidth),
				pad("", labelWidth),
				"",
			),
		)
	}
	return strings.Join(lines, "\n")
}

// joinCells joins column cells with the column gap.
func joinCells(cells ...string) string {
	return strings.Join(cells, strings.Repeat(" ", columnGap))
}

// triggerRect returns the screen rect of row idx's trigger.
func (t *Table) triggerRect(idx int) popover.Rect {
	return popover.Rect{
		Left:   t.origin.X + t.nameWidth() + fixedWidth - triggerWidth,
		Top:    t.origin.Y + HeaderHeight + idx*RowHeight,
		Width:  triggerWidth,
		Height: 1,
	}
}

// nameWidth returns the flexible name column width.
func (t *Table) nameWidth() int {
	return max(minNameWidth, t.width-fixedWidth)
}

// totalWidth returns the full table width.
func (t *Table) totalWidth() int {
	return t.nameWidth() + fixedWidth
}

// pad right-pads s with spaces to width cells.
func pad(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// truncate shortens s to max cells with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

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
