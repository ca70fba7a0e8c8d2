package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/evanschultz/chantab/internal/domain"
)

// Storage keys for the persisted tier.
const (
	StorageKeyChannels = "channels"
	StorageKeyCounter  = "channelIdCounter"
)

// persistedChannel mirrors the stored object shape.
type persistedChannel struct {
	ID            string `json:"id"`
	DisplayNumber string `json:"displayNumber"`
	SecondaryID   string `json:"secondaryId"`
}

// EncodeChannels serializes channels as a JSON array.
func EncodeChannels(channels []domain.Channel) (string, error) {
	out := make([]persistedChannel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, persistedChannel(ch))
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode channels: %w", err)
	}
	return string(encoded), nil
}

// DecodeChannels parses and structurally validates a stored channel list.
func DecodeChannels(raw string) ([]domain.Channel, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode channels: not a json array: %w", ErrPersistenceRead)
	}
	var entries []persistedChannel
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("decode channels: %w", errors.Join(ErrPersistenceRead, err))
	}
	out := make([]domain.Channel, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for idx, entry := range entries {
		ch, err := domain.NewChannel(domain.ChannelInput(entry))
		if err != nil {
			return nil, fmt.Errorf("decode channels: entry %d: %w", idx, errors.Join(ErrPersistenceRead, err))
		}
		if _, ok := seen[ch.ID]; ok {
			return nil, fmt.Errorf("decode channels: entry %d: duplicate id %q: %w", idx, ch.ID, ErrPersistenceRead)
		}
		seen[ch.ID] = struct{}{}
		out = append(out, ch)
	}
	return out, nil
}

// EncodeCounter serializes the counter as a decimal string.
func EncodeCounter(counter int64) string {
	return strconv.FormatInt(counter, 10)
}

// DecodeCounter parses a stored decimal counter.
func DecodeCounter(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !domain.IsDigits(raw) {
		return 0, fmt.Errorf("decode counter %q: %w", raw, ErrPersistenceRead)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode counter %q: %w", raw, errors.Join(ErrPersistenceRead, err))
	}
	return v, nil
}
