package app

import (
	"context"

	"github.com/evanschultz/chantab/internal/domain"
)

// KeyValueStore is durable string storage addressed by key.
type KeyValueStore interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(context.Context, string) (string, bool, error)
	// SetItems writes every pair in one unit.
	SetItems(context.Context, map[string]string) error
}

// SnapshotSource fetches the one-time bootstrap channel list.
type SnapshotSource interface {
	FetchChannels(context.Context) ([]domain.Channel, error)
}

// AmbientSource reconstructs channels from rows that already exist outside the store.
type AmbientSource interface {
	Scrape(context.Context) ([]domain.Channel, error)
}

// Logger receives structured store events.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards all events.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
