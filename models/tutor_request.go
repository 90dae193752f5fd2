package models

import (
	"time"

	"github.com/google/uuid"
)

type TutorRequestStatus string

const (
	TutorPending  TutorRequestStatus = "pending"
	TutorAccepted TutorRequestStatus = "accepted"
	TutorRejected TutorRequestStatus = "rejected"
)

// TutorRequest is unique per (user, musician, ISO year, ISO week).
type TutorRequest struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_tutor_request_week" json:"userId"`
	MusicianID     uint               `gorm:"not null;index;uniqueIndex:idx_tutor_request_week" json:"musicianId"`
	FirstName      string             `gorm:"size:50" json:"firstName"`
	LastName       string             `gorm:"size:50" json:"lastName"`
	Email          string             `gorm:"size:255" json:"email"`
	Topic          string             `gorm:"size:200;not null" json:"topic"`
	Message        string             `gorm:"size:1000;not null" json:"message"`
	Status         TutorRequestStatus `gorm:"size:20;default:'pending';index" json:"status"`
	RequestedAt    time.Time          `gorm:"not null" json:"requestedAt"`
	RespondedAt    *time.Time         `json:"respondedAt,omitempty"`
	WeekIdentifier string             `gorm:"size:8;not null" json:"weekIdentifier"`
	Year           int                `gorm:"not null;uniqueIndex:idx_tutor_request_week" json:"year"`
	Week           int                `gorm:"not null;uniqueIndex:idx_tutor_request_week" json:"week"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updatedAt"`
}

// InWeek reports whether the request belongs to the given ISO week.
func (t *TutorRequest) InWeek(year, week int) bool {
	return t.Year == year && t.Week == week
}
