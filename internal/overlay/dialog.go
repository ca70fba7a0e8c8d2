package overlay

// Dialog is the add-channel dialog. Its value is fixed when it opens.
type Dialog struct {
	visible bool
	value   string
}

// NewDialog constructs a closed dialog.
func NewDialog() *Dialog {
	return &Dialog{}
}

// Open shows the dialog carrying value.
func (d *Dialog) Open(value string) {
	d.visible = true
	d.value = value
}

// Close hides the dialog and drops its value.
func (d *Dialog) Close() {
	d.visible = false
	d.value = ""
}

// Value returns the value captured at open time.
func (d *Dialog) Value() string {
	return d.value
}

// State returns the dialog state. The dialog has no row target.
func (d *Dialog) State() State {
	return State{Visible: d.visible}
}

// Confirm runs fn with the open-time value and closes. If fn fails the dialog stays open.
func (d *Dialog) Confirm(fn func(value string) error) error {
	if !d.visible {
		return ErrClosed
	}
	if fn != nil {
		if err := fn(d.value); err != nil {
			return err
		}
	}
	d.Close()
	return nil
}

// Dismiss closes an open dialog and reports whether it was open.
func (d *Dialog) Dismiss(Reason) bool {
	if !d.visible {
		return false
	}
	d.Close()
	return true
}
