package models

import (
	"time"
)

type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	BookingID  *string   `db:"booking_id" json:"booking_id,omitempty"`
	Content    string    `db:"content" json:"content"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	BookingID  string `json:"booking_id,omitempty" validate:"omitempty,uuid"`
	Content    string `json:"content" validate:"required,min=1,max=2000"`
}

// Conversation is the latest message exchanged with one counterpart
type Conversation struct {
	OtherUserID string    `db:"other_user_id" json:"other_user_id"`
	LastMessage string    `db:"last_message" json:"last_message"`
	LastAt      time.Time `db:"last_at" json:"last_at"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
}
