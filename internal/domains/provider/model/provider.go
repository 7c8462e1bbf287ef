package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider is the minimal projection of a service provider used by the
// promotion engine for scope checks. The full provider domain (profiles,
// calendars, payouts) lives behind its own API.
type Provider struct {
	ID           uuid.UUID `json:"id" db:"id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
