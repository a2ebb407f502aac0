package schedules

import (
	"errors"
	"time"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
)

var ErrNotFound = errors.New("schedule override not found")

// Override replaces the on-chain fee schedule of one pool until deleted.
type Override struct {
	Pool      string             `json:"pool"`
	Schedule  engine.FeeSchedule `json:"schedule"`
	UpdatedAt time.Time          `json:"updated_at"`
}
