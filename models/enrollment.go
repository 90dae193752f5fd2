package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EnrollmentType string

const (
	EnrollmentPaid EnrollmentType = "paid"
	EnrollmentFree EnrollmentType = "free"
)

// EnrollmentMonths is how long an enrollment grants access.
const EnrollmentMonths = 3

// Payment statuses. Free enrollments leave the status empty.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentExpired   = "expired"
	PaymentRefunded  = "refunded"
)

type Progress struct {
	CompletedLessons     datatypes.JSONSlice[string] `json:"completedLessons"`
	CompletionPercentage float64                     `gorm:"default:0" json:"completionPercentage"`
	LastAccessedAt       *time.Time                  `json:"lastAccessedAt,omitempty"`
}

type Payment struct {
	Amount        float64    `gorm:"default:0" json:"amount"`
	Currency      string     `gorm:"size:10" json:"currency,omitempty"`
	PaymentMethod string     `gorm:"size:30" json:"paymentMethod,omitempty"`
	TransactionID string     `gorm:"size:100" json:"transactionId,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Status        string     `gorm:"size:20" json:"status,omitempty"`
	SnapToken     string     `gorm:"size:255" json:"snapToken,omitempty"`
	RedirectURL   string     `gorm:"type:text" json:"redirectUrl,omitempty"`
}

type Enrollment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Course         *Course        `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	EnrolledAt     time.Time      `gorm:"not null" json:"enrolledAt"`
	ExpiresAt      time.Time      `gorm:"not null;index" json:"expiresAt"`
	IsActive       bool           `gorm:"default:true;index" json:"isActive"`
	EnrollmentType EnrollmentType `gorm:"size:10;not null" json:"enrollmentType"`
	Progress       Progress       `gorm:"embedded;embeddedPrefix:progress_" json:"progress"`
	Payment        Payment        `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	IsExpired     bool `gorm:"-" json:"isExpired"`
	DaysRemaining int  `gorm:"-" json:"daysRemaining"`
}

// ExpiryFor returns the access deadline for an enrollment starting at t.
func ExpiryFor(t time.Time) time.Time {
	return t.AddDate(0, EnrollmentMonths, 0)
}

// Evaluate fills the derived expiry fields relative to now.
func (e *Enrollment) Evaluate(now time.Time) {
	e.IsExpired = !now.Before(e.ExpiresAt)
	if e.IsExpired {
		e.DaysRemaining = 0
		return
	}
	e.DaysRemaining = int(math.Ceil(e.ExpiresAt.Sub(now).Hours() / 24))
}

// AwaitingPayment reports whether a gateway checkout is still open.
func (e *Enrollment) AwaitingPayment() bool {
	return e.Payment.Status == PaymentPending
}

// Accessible limits a query to enrollments that grant access at now:
// active, unexpired and not waiting on payment.
func Accessible(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ? AND expires_at > ? AND COALESCE(payment_status, '') <> ?",
			true, now, PaymentPending)
	}
}
