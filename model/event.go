package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventEntity represents the events table entity
type EventEntity struct {
	ID          uint64          `db:"id" json:"id"`
	UserID      uint64          `db:"user_id" json:"user_id"`
	Title       string          `db:"event_title" json:"event_title"`
	Description string          `db:"event_description" json:"event_description"`
	StartDate   time.Time       `db:"event_start_date" json:"event_start_date"`
	EndDate     time.Time       `db:"event_end_date" json:"event_end_date"`
	Location    string          `db:"event_location" json:"event_location"`
	Price       decimal.Decimal `db:"event_price" json:"event_price"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CreateEventRequest accepts dates as YYYY-MM-DD or RFC3339.
type CreateEventRequest struct {
	UserID      uint64          `json:"-"`
	Title       string          `json:"event_title" validate:"required,max=255"`
	Description string          `json:"event_description"`
	StartDate   string          `json:"event_start_date" validate:"required"`
	EndDate     string          `json:"event_end_date" validate:"required"`
	Location    string          `json:"event_location" validate:"required"`
	Price       decimal.Decimal `json:"event_price" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

type CreateEventResponse struct {
	Message string `json:"message"`
	EventID uint64 `json:"eventId"`
}
