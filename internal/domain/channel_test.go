package domain

import (
	"errors"
	"testing"
)

func TestNewChannelTrimsAndValidates(t *testing.T) {
	c, err := NewChannel(ChannelInput{ID: " 4 ", DisplayNumber: " 42 ", SecondaryID: " 555 "})
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}
	if c.ID != "4" || c.DisplayNumber != "42" || c.SecondaryID != "555" {
		t.Fatalf("unexpected channel %#v", c)
	}
}

func TestNewChannelValidation(t *testing.T) {
	cases := []struct {
		name string
		in   ChannelInput
		want error
	}{
		{name: "empty id", in: ChannelInput{DisplayNumber: "1", SecondaryID: "2"}, want: ErrInvalidID},
		{name: "empty number", in: ChannelInput{ID: "1", SecondaryID: "2"}, want: ErrInvalidDisplayNumber},
		{name: "non numeric number", in: ChannelInput{ID: "1", DisplayNumber: "4a", SecondaryID: "2"}, want: ErrInvalidDisplayNumber},
		{name: "empty secondary", in: ChannelInput{ID: "1", DisplayNumber: "4"}, want: ErrInvalidSecondaryID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewChannel(tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("NewChannel() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCloneChannelsIsIndependent(t *testing.T) {
	in := []Channel{{ID: "1", DisplayNumber: "1", SecondaryID: "9"}}
	out := CloneChannels(in)
	out[0].ID = "changed"
	if in[0].ID != "1" {
		t.Fatalf("clone aliased input: %#v", in)
	}
	if got := CloneChannels(nil); got == nil || len(got) != 0 {
		t.Fatalf("CloneChannels(nil) = %#v, want empty slice", got)
	}
}
