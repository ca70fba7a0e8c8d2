package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evanschultz/chantab/internal/app"
	"github.com/evanschultz/chantab/internal/domain"
)

// StoreSnapshotter is the subset of app.Store read by the serve surface.
type StoreSnapshotter interface {
	Snapshot() []domain.Channel
	Get(string) (domain.Channel, bool)
	Counter() int64
	Source() app.Tier
}

// AppServiceAdapter maps transport contracts onto the channel store.
type AppServiceAdapter struct {
	store StoreSnapshotter
}

// NewAppServiceAdapter builds one common adapter over a store.
func NewAppServiceAdapter(store StoreSnapshotter) *AppServiceAdapter {
	return &AppServiceAdapter{store: store}
}

// ListChannels returns the current snapshot in insertion order.
func (a *AppServiceAdapter) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	return a.store.Snapshot(), nil
}

// GetChannel returns one channel by id.
func (a *AppServiceAdapter) GetChannel(ctx context.Context, id string) (domain.Channel, error) {
	if err := a.ready(ctx); err != nil {
		return domain.Channel{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Channel{}, fmt.Errorf("channel id is required: %w", ErrInvalidRequest)
	}
	ch, ok := a.store.Get(id)
	if !ok {
		return domain.Channel{}, fmt.Errorf("channel %q: %w", id, ErrNotFound)
	}
	return ch, nil
}

// State returns the store summary with a content hash of the channel list.
func (a *AppServiceAdapter) State(ctx context.Context) (StoreState, error) {
	if err := a.ready(ctx); err != nil {
		return StoreState{}, err
	}
	channels := a.store.Snapshot()
	hash, err := hashChannels(channels)
	if err != nil {
		return StoreState{}, err
	}
	return StoreState{
		Source:    string(a.store.Source()),
		Counter:   a.store.Counter(),
		Count:     len(channels),
		StateHash: hash,
		Channels:  channels,
	}, nil
}

// ready reports whether the adapter can serve a request.
func (a *AppServiceAdapter) ready(ctx context.Context) error {
	if a == nil || a.store == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("request canceled: %w", err)
	}
	return nil
}

// hashChannels returns a stable sha256 of the channel list.
func hashChannels(channels []domain.Channel) (string, error) {
	encoded, err := app.EncodeChannels(channels)
	if err != nil {
		return "", fmt.Errorf("hash channels: %w", err)
	}
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:]), nil
}
