package app

import (
	"math/rand/v2"
	"strconv"

	"github.com/evanschultz/chantab/internal/domain"
)

// NextID issues the identifier that follows counter and the counter value to persist.
// Callers must not pass math.MaxInt64.
func NextID(counter int64) (string, int64) {
	updated := counter + 1
	return strconv.FormatInt(updated, 10), updated
}

// MaxNumericID returns the largest decimal id in channels.
// Ids that are not plain decimal integers are ignored.
func MaxNumericID(channels []domain.Channel) (int64, bool) {
	var (
		maxID int64
		found bool
	)
	for _, ch := range channels {
		if !domain.IsDigits(ch.ID) {
			continue
		}
		v, err := strconv.ParseInt(ch.ID, 10, 64)
		if err != nil {
			continue
		}
		if !found || v > maxID {
			maxID = v
			found = true
		}
	}
	return maxID, found
}

// NewSecondaryID returns a random twelve-digit display value.
func NewSecondaryID() string {
	return strconv.FormatInt(100_000_000_000+rand.Int64N(900_000_000_000), 10)
}

// NewDisplayNumber returns a random numeric label for the add flow.
func NewDisplayNumber() string {
	return strconv.Itoa(1 + rand.IntN(999))
}
