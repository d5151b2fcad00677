package entities

import (
	"time"

	"github.com/google/uuid"
)

// Event is an attendance-gated event owned by an organizer.
type Event struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"ownerUserId"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	CreatedAt   time.Time `json:"createdAt"`

	// Joins
	Owner *User `json:"owner,omitempty"`
}
