// Package overlay holds the open/close state machines for the action menu and the add dialog.
package overlay

import "errors"

// ErrClosed is returned when confirming an overlay that is not open.
var ErrClosed = errors.New("overlay is not open")

// State is an overlay's visibility and target. TargetID is empty unless Visible.
type State struct {
	Visible  bool
	TargetID string
}

// Reason names what dismissed an overlay.
type Reason int

// ReasonCancelKey and related constants name dismissal causes.
const (
	ReasonCancelKey Reason = iota + 1
	ReasonBackdrop
	ReasonOutsideClick
)

// String returns a log-friendly reason name.
func (r Reason) String() string {
	switch r {
	case ReasonCancelKey:
		return "cancel_key"
	case ReasonBackdrop:
		return "backdrop"
	case ReasonOutsideClick:
		return "outside_click"
	default:
		return "unknown"
	}
}

// Dismissible is an overlay that closes on a dismissal event.
type Dismissible interface {
	Dismiss(Reason) bool
}

// DismissAll routes one dismissal to every overlay and returns how many closed.
func DismissAll(reason Reason, overlays ...Dismissible) int {
	closed := 0
	for _, o := range overlays {
		if o != nil && o.Dismiss(reason) {
			closed++
		}
	}
	return closed
}
