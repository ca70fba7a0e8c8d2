// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/evanschultz/chantab/internal/domain"
)

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUnavailable reports that the channel store has not resolved yet.
var ErrUnavailable = errors.New("channel store unavailable")

// StoreState summarizes the resolved store for read-only clients.
type StoreState struct {
	Source    string           `json:"source"`
	Counter   int64            `json:"counter"`
	Count     int              `json:"count"`
	StateHash string           `json:"state_hash"`
	Channels  []domain.Channel `json:"channels"`
}

// ChannelReader is the read-only surface exposed by serve transports.
type ChannelReader interface {
	ListChannels(context.Context) ([]domain.Channel, error)
	GetChannel(context.Context, string) (domain.Channel, error)
	State(context.Context) (StoreState, error)
}
