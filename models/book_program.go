package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
)

type ProgramLocation struct {
	Address         string  `gorm:"size:500" json:"address"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	SelectedFromMap bool    `gorm:"default:false" json:"selectedFromMap"`
}

type ContactNumber struct {
	CountryCode string `gorm:"size:8;default:'+91'" json:"countryCode"`
	Phone       string `gorm:"size:20" json:"phone"`
}

type BookProgram struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"userId"`
	MusicianID     uint            `gorm:"not null;index" json:"musicianId"`
	NumberOfPeople string          `gorm:"size:20;not null" json:"numberOfPeople"`
	ProgramType    string          `gorm:"size:10;not null" json:"programType"`
	Location       ProgramLocation `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	ContactNumber  ContactNumber   `gorm:"embedded;embeddedPrefix:contact_" json:"contactNumber"`
	ProgramDate    time.Time       `gorm:"not null" json:"programDate"`
	BookingStatus  BookingStatus   `gorm:"size:20;default:'pending';index" json:"bookingStatus"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}
