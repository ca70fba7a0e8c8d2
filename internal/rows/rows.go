// Package rows maps channel records to table rows and renders them for the terminal.
package rows

import (
	"github.com/evanschultz/chantab/internal/domain"
	"github.com/evanschultz/chantab/internal/popover"
)

// Fixed row texts.
const (
	NamePrefix      = "Channel "
	StatusPrimary   = "Online"
	StatusSecondary = "Signal stable"
	LabelActive     = "Active"
)

// Row is the display form of one channel.
type Row struct {
	Name      string
	Status    [2]string
	Account   string
	Label     string
	TriggerID string
}

// Trigger identifies one row's action trigger. Rect is zero until a Table lays the row out.
type Trigger struct {
	ID    string
	Index int
	Rect  popover.Rect
}

// Build maps records to rows and calls register once per row trigger.
func Build(records []domain.Channel, register func(Trigger)) []Row {
	out := make([]Row, 0, len(records))
	for idx, rec := range records {
		out = append(out, Row{
			Name:      NamePrefix + rec.DisplayNumber,
			Status:    [2]string{StatusPrimary, StatusSecondary},
			Account:   rec.SecondaryID,
			Label:     LabelActive,
			TriggerID: rec.ID,
		})
		if register != nil {
			register(Trigger{ID: rec.ID, Index: idx})
		}
	}
	return out
}
