package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleMusician UserRole = "musician"
	RoleUser     UserRole = "user"
)

type SocialType string

const (
	SocialNormal   SocialType = "normal"
	SocialGoogle   SocialType = "google"
	SocialFacebook SocialType = "facebook"
	SocialApple    SocialType = "apple"
)

// OTPPurpose tags an OTP with the flow it may be redeemed in.
type OTPPurpose string

const (
	OTPEmailVerification OTPPurpose = "emailVerification"
	OTPResetPassword     OTPPurpose = "resetPassword"
	OTPUpdateEmail       OTPPurpose = "updateEmail"
	OTPUpdatePhoneNumber OTPPurpose = "updatePhoneNumber"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName    string     `gorm:"size:50" json:"firstName"`
	LastName     string     `gorm:"size:50" json:"lastName"`
	Password     string     `gorm:"type:text" json:"-"`
	CountryCode  string     `gorm:"size:8" json:"countryCode,omitempty"`
	PhoneNumber  *string    `gorm:"size:20;uniqueIndex" json:"phoneNumber,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	SocialType   SocialType `gorm:"size:20;default:'normal'" json:"socialType"`
	SocialID     *string    `gorm:"size:255;index" json:"socialId,omitempty"`
	ProfileImage string     `gorm:"type:text" json:"profileImage,omitempty"`
	Theme        string     `gorm:"size:10;default:'light'" json:"theme"`
	LoginAt      *time.Time `json:"loginAt,omitempty"`

	OTP             *string     `gorm:"size:6" json:"-"`
	OTPCreatedAt    *time.Time  `json:"-"`
	OTPExpiresAt    *time.Time  `json:"-"`
	OTPFor          *OTPPurpose `gorm:"size:30" json:"-"`
	IsOTPVerified   bool        `gorm:"default:false" json:"isOtpVerified"`
	IsEmailVerified bool        `gorm:"default:false" json:"isEmailVerified"`

	// Values awaiting confirmation by an updateEmail / updatePhoneNumber OTP.
	PendingEmail       *string `gorm:"size:255" json:"-"`
	PendingCountryCode *string `gorm:"size:8" json:"-"`
	PendingPhoneNumber *string `gorm:"size:20" json:"-"`

	DeviceType  string  `gorm:"size:10" json:"deviceType,omitempty"`
	DeviceToken *string `gorm:"type:text" json:"-"`

	MusicianID *uint    `gorm:"index" json:"musicianId,omitempty"`
	Role       UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive   bool     `gorm:"default:true" json:"isActive"`
	IsBlocked  bool     `gorm:"default:false" json:"isBlocked"`

	// Tokens issued before this instant are rejected (logout-all).
	TokensValidAfter *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// SetOTP stores a fresh code for purpose, resetting the verified flag.
func (u *User) SetOTP(code string, purpose OTPPurpose, now time.Time, ttl time.Duration) {
	expires := now.Add(ttl)
	u.OTP = &code
	u.OTPCreatedAt = &now
	u.OTPExpiresAt = &expires
	u.OTPFor = &purpose
	u.IsOTPVerified = false
}

// ClearOTP consumes the current code.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPCreatedAt = nil
	u.OTPExpiresAt = nil
	u.OTPFor = nil
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
