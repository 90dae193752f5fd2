package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/vnkhanh/prince-music-backend/models"
)

const (
	OTPLength = 6
	OTPTTL    = 10 * time.Minute
)

// GenerateOTP returns a random 6 digit code without a leading zero.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// CheckOTP validates code against the user's pending OTP in the order
// code, expiry, purpose. It never mutates u.
func CheckOTP(u *models.User, code string, purpose models.OTPPurpose, now time.Time) error {
	if u.OTP == nil || *u.OTP != code {
		return NewUnauthorizedError("Invalid OTP")
	}
	if u.OTPExpiresAt == nil || now.After(*u.OTPExpiresAt) {
		return NewUnauthorizedError("OTP has expired")
	}
	if u.OTPFor == nil || *u.OTPFor != purpose {
		return NewUnauthorizedError("OTP is not valid for this purpose")
	}
	return nil
}
