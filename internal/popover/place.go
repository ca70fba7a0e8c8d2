// Package popover computes on-screen placement for floating panels anchored to a trigger.
package popover

// Default spacing, in the same unit as the geometry handed to Place.
const (
	DefaultGap    = 8
	DefaultMargin = 16
)

// DefaultSpacing is the spacing used by Place.
var DefaultSpacing = Spacing{Gap: DefaultGap, Margin: DefaultMargin}

// Spacing holds the anchor gap and the viewport safety margin.
type Spacing struct {
	Gap    int
	Margin int
}

// Point is one position in viewport coordinates.
type Point struct {
	X int
	Y int
}

// Size is a width/height pair.
type Size struct {
	Width  int
	Height int
}

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.Left + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Contains reports whether p falls inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right() && p.Y >= r.Top && p.Y < r.Bottom()
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Placement is the computed top-left corner of a panel.
type Placement struct {
	Top  int
	Left int
}

// Rect returns the panel rectangle at this placement.
func (p Placement) Rect(panel Size) Rect {
	return Rect{Left: p.Left, Top: p.Top, Width: panel.Width, Height: panel.Height}
}

// Place positions panel below anchor using DefaultSpacing.
func Place(anchor Rect, panel Size, viewport Size) Placement {
	return PlaceWith(anchor, panel, viewport, DefaultSpacing)
}

// PlaceWith positions panel relative to anchor so it stays inside viewport where possible.
//
// The steps run in a fixed order: horizontal clamp, vertical flip, floor clamp. The flip
// tests the unclamped overflow against the viewport bottom and the floor clamp always runs
// last, so a panel larger than the viewport is pinned to the margin and may overflow.
func PlaceWith(anchor Rect, panel Size, viewport Size, spacing Spacing) Placement {
	top := anchor.Bottom() + spacing.Gap
	left := anchor.Left

	if left+panel.Width > viewport.Width {
		left = viewport.Width - panel.Width - spacing.Margin
	}
	if top+panel.Height > viewport.Height {
		top = anchor.Top - panel.Height - spacing.Gap
	}

	if left < spacing.Margin {
		left = spacing.Margin
	}
	if top < spacing.Margin {
		top = spacing.Margin
	}
	return Placement{Top: top, Left: left}
}
