package tui

import (
	"github.com/evanschultz/chantab/internal/app"
	"github.com/evanschultz/chantab/internal/popover"
)

type Option func(*Model)

// WithSpacing sets the popover gap and margin in cells.
func WithSpacing(spacing popover.Spacing) Option {
	return func(m *Model) {
		if spacing.Gap >= 0 && spacing.Margin >= 0 {
			m.spacing = spacing
		}
	}
}

func WithConfirmDelete(enabled bool) Option {
	return func(m *Model) {
		m.confirmDelete = enabled
	}
}

// WithPairingBase sets the URL encoded into the add-channel QR code.
func WithPairingBase(base string) Option {
	return func(m *Model) {
		m.pairingBase = base
	}
}

func WithLogger(logger app.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClipboard replaces the clipboard writer used by "Copy account".
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithDisplayNumbers replaces the generator for new channel display numbers.
func WithDisplayNumbers(next func() string) Option {
	return func(m *Model) {
		if next != nil {
			m.nextDisplayNumber = next
		}
	}
}

// WithTokens replaces the pairing token generator.
func WithTokens(next func() string) Option {
	return func(m *Model) {
		if next != nil {
			m.nextToken = next
		}
	}
}
