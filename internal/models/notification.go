package models

import (
	"encoding/json"
	"time"
)

// Notification types
const (
	NotificationBookingCreated   = "booking_created"
	NotificationBookingAccepted  = "booking_accepted"
	NotificationBookingRejected  = "booking_rejected"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationBookingCompleted = "booking_completed"
	NotificationNewMessage       = "new_message"
	NotificationNewRating        = "new_rating"
)

type Notification struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
