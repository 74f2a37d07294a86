package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campaign status constants
const (
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Segment status filter constants
const (
	SegmentAll        = "all"
	SegmentChecked    = "checked"
	SegmentNotChecked = "not_checked"
)

// Segment describes the audience a campaign targets. It has no identity of its own:
// it is embedded in a campaign and copied by value into every email job,
// so later edits to the campaign's segment never change a job already
// created from it.
type Segment struct {
	Status    string   `json:"status"`
	Interests []string `json:"interests"`
	Locations []string `json:"locations"`
	MinAge    int      `json:"min_age"`
	MaxAge    int      `json:"max_age"`
}

// IsEmpty reports whether the segment applies no filters at all.
func (s Segment) IsEmpty() bool {
	return (s.Status == "" || s.Status == SegmentAll) &&
		len(s.Interests) == 0 && len(s.Locations) == 0 &&
		s.MinAge == 0 && s.MaxAge == 0
}

// Validate checks the segment filters for internal consistency.
func (s Segment) Validate() error {
	switch s.Status {
	case "", SegmentAll, SegmentChecked, SegmentNotChecked:
	default:
		return errInvalidSegmentStatus(s.Status)
	}
	if s.MinAge < 0 || s.MaxAge < 0 {
		return errNegativeAge
	}
	if s.MaxAge > 0 && s.MinAge > s.MaxAge {
		return errInvertedAgeRange
	}
	return nil
}

// Campaign is the top-level marketing initiative. It owns email and
// social jobs (weak references by campaign id) and an attribution code
// used to join booking conversions back to it.
type Campaign struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OwnerID   uuid.UUID       `json:"owner_id" db:"owner_id"`
	Name      string          `json:"name" db:"name"`
	EventID   *uuid.UUID      `json:"event_id" db:"event_id"`
	StartAt   time.Time       `json:"start_at" db:"start_at"`
	EndAt     time.Time       `json:"end_at" db:"end_at"`
	Budget    decimal.Decimal `json:"budget" db:"budget"`
	Code      string          `json:"code" db:"code"`
	Segment   Segment         `json:"segment"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
