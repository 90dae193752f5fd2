package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SocialLink struct {
	IconURL string `json:"iconUrl"`
	Link    string `json:"link"`
}

// Profile holds the public portfolio fields shared by Musician and Prince.
type Profile struct {
	CoverPhoto   string                          `gorm:"type:text" json:"coverPhoto"`
	ProfilePhoto string                          `gorm:"type:text" json:"profilePhoto"`
	Name         string                          `gorm:"size:100" json:"name"`
	Description  string                          `gorm:"size:1000" json:"description"`
	Mail         string                          `gorm:"size:255;index" json:"mail"`
	Contact      string                          `gorm:"size:30" json:"contact"`
	Location     string                          `gorm:"size:255" json:"location"`
	SocialMedia  datatypes.JSONSlice[SocialLink] `json:"socialMedia"`
}

type Musician struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MusicianID         uint       `gorm:"uniqueIndex;not null" json:"musicianId"`
	UserID             *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	Profile            `gorm:"embedded"`
	IsActive           bool      `gorm:"default:true;index" json:"isActive"`
	IsProfileCompleted bool      `gorm:"default:false" json:"isProfileCompleted"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// RefreshCompletion marks the profile complete once every required field is set.
func (m *Musician) RefreshCompletion() {
	p := m.Profile
	m.IsProfileCompleted = p.Name != "" && p.Description != "" && p.Mail != "" &&
		p.Contact != "" && p.ProfilePhoto != ""
}

// Prince is the singleton profile of the platform owner.
type Prince struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Profile   `gorm:"embedded"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Prince) TableName() string { return "prince_profiles" }

// Counter backs monotonic sequences such as musician ids.
type Counter struct {
	Name  string `gorm:"size:50;primaryKey"`
	Value uint   `gorm:"not null;default:0"`
}

const MusicianSequence = "musician_id"
