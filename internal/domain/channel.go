package domain

import (
	"strings"
)

// Channel represents one persisted row of the channel table.
type Channel struct {
	ID            string `json:"id"`
	DisplayNumber string `json:"displayNumber"`
	SecondaryID   string `json:"secondaryId"`
}

// ChannelInput holds input values for channel construction.
type ChannelInput struct {
	ID            string
	DisplayNumber string
	SecondaryID   string
}

// NewChannel constructs a validated channel record.
func NewChannel(in ChannelInput) (Channel, error) {
	c := Channel{
		ID:            strings.TrimSpace(in.ID),
		DisplayNumber: strings.TrimSpace(in.DisplayNumber),
		SecondaryID:   strings.TrimSpace(in.SecondaryID),
	}
	if err := c.Validate(); err != nil {
		return Channel{}, err
	}
	return c, nil
}

// Validate reports whether the record satisfies the table invariants.
func (c Channel) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidID
	}
	if !IsDigits(c.DisplayNumber) {
		return ErrInvalidDisplayNumber
	}
	if strings.TrimSpace(c.SecondaryID) == "" {
		return ErrInvalidSecondaryID
	}
	return nil
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CloneChannels returns a copy of the provided slice.
func CloneChannels(in []Channel) []Channel {
	if in == nil {
		return []Channel{}
	}
	out := make([]Channel, len(in))
	copy(out, in)
	return out
}
