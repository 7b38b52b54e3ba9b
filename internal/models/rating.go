package models

import (
	"time"
)

type Rating struct {
	ID          string    `db:"id" json:"id"`
	BookingID   string    `db:"booking_id" json:"booking_id"`
	RaterID     string    `db:"rater_id" json:"rater_id"`
	RatedUserID string    `db:"rated_user_id" json:"rated_user_id"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreateRatingRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty" validate:"max=1000"`
}
