package models

import (
	"time"

	"github.com/google/uuid"
)

type NotationStatus string

const (
	NotationPending    NotationStatus = "pending"
	NotationInProgress NotationStatus = "in-progress"
	NotationCompleted  NotationStatus = "completed"
	NotationRejected   NotationStatus = "rejected"
)

type Notation struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	MusicianID       uint           `gorm:"not null;index" json:"musicianId"`
	SongName         string         `gorm:"size:200;not null" json:"songName"`
	SongReferenceURL string         `gorm:"type:text" json:"songReferenceUrl,omitempty"`
	VideoURL         string         `gorm:"type:text" json:"videoUrl,omitempty"`
	AudioURL         string         `gorm:"type:text" json:"audioUrl,omitempty"`
	Status           NotationStatus `gorm:"size:20;default:'pending';index" json:"status"`
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

type Feedback struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MusicianID  uint      `gorm:"not null;index" json:"musicianId"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:5000;not null" json:"description"`
	FirstName   string    `gorm:"size:50" json:"firstName,omitempty"`
	LastName    string    `gorm:"size:50" json:"lastName,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Feedback) TableName() string { return "feedbacks" }

type FAQ struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Question  string    `gorm:"size:500;not null" json:"question"`
	Answer    string    `gorm:"size:5000;not null" json:"answer"`
	IsActive  bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (FAQ) TableName() string { return "faqs" }

type Advertisement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:5000;not null" json:"description"`
	PhotoURL    string    `gorm:"type:text;not null" json:"photoUrl"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
