package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyTutorRequest     = "tutor_request"
	NotifyTutorResponse    = "tutor_response"
	NotifyBooking          = "booking"
	NotifyBookingStatus    = "booking_status"
	NotifyNotation         = "notation"
	NotifyFeedback         = "feedback"
	NotifyEnrollment       = "enrollment"
	NotifyEnrollmentExpiry = "enrollment_expiry"
	NotifyPayment          = "payment"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"` // recipient
	Title      string     `gorm:"size:255;not null" json:"title"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Type       string     `gorm:"size:50;index" json:"type"`
	IsRead     bool       `gorm:"default:false" json:"isRead"`
	RelatedURL *string    `gorm:"size:500" json:"relatedUrl,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}
