package utils

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vnkhanh/prince-music-backend/models"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		assert.NoError(t, err)
		assert.Len(t, code, OTPLength)
		assert.Regexp(t, `^[1-9]\d{5}$`, code)
	}
}

func userWithOTP(code string, purpose models.OTPPurpose, issued time.Time) *models.User {
	u := &models.User{}
	u.SetOTP(code, purpose, issued, OTPTTL)
	return u
}

func TestCheckOTP(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	u := userWithOTP("123456", models.OTPEmailVerification, now)

	assert.NoError(t, CheckOTP(u, "123456", models.OTPEmailVerification, now.Add(9*time.Minute)))

	cases := []struct {
		name    string
		code    string
		purpose models.OTPPurpose
		at      time.Time
		msg     string
	}{
		{"mismatch", "654321", models.OTPEmailVerification, now, "Invalid OTP"},
		{"expired", "123456", models.OTPEmailVerification, now.Add(11 * time.Minute), "OTP has expired"},
		{"wrong purpose", "123456", models.OTPResetPassword, now, "OTP is not valid for this purpose"},
		// mismatch is reported before expiry
		{"mismatch and expired", "000000", models.OTPEmailVerification, now.Add(time.Hour), "Invalid OTP"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckOTP(u, tc.code, tc.purpose, tc.at)
			var appErr *AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, http.StatusUnauthorized, appErr.Status)
				assert.Equal(t, tc.msg, appErr.Message)
			}
		})
	}
	// checking never consumes the code
	assert.NotNil(t, u.OTP)
}

func TestCheckOTP_NoPendingCode(t *testing.T) {
	err := CheckOTP(&models.User{}, "123456", models.OTPEmailVerification, time.Now())
	assert.EqualError(t, err, "Invalid OTP")
}

func TestWeekIdentifier(t *testing.T) {
	year, week, id := WeekIdentifier(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 5, week)
	assert.Equal(t, "2024-05", id)

	// Dec 30 2024 belongs to ISO week 1 of 2025
	year, week, id = WeekIdentifier(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, year)
	assert.Equal(t, 1, week)
	assert.Equal(t, "2025-01", id)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.Empty(t, ValidatePasswordStrength("Gu!tar7Zeb"))

	assert.Contains(t, ValidatePasswordStrength("short1!"), "Password must be at least 8 characters long")
	assert.Contains(t, ValidatePasswordStrength("alllowercase9!"), "Password must contain at least one uppercase letter")
	assert.Contains(t, ValidatePasswordStrength("NoDigitsHere!"), "Password must contain at least one number")
	assert.Contains(t, ValidatePasswordStrength("NoSpecial9x"), "Password must contain at least one special character")

	for _, weak := range []string{"Zaaa9!xQ", "Xy!123Qm", "Q9!xAbcz", "MyPassword9!", "Qw!z890m"} {
		assert.Contains(t, ValidatePasswordStrength(weak), "Password contains weak patterns", weak)
	}
}

func TestValidatePhone(t *testing.T) {
	digits, err := ValidatePhone("98765-43210", "+91")
	assert.NoError(t, err)
	assert.Equal(t, "9876543210", digits)

	_, err = ValidatePhone("123", "+91")
	assert.Error(t, err)
	_, err = ValidatePhone("9876543210", "+999")
	assert.Error(t, err)
	_, err = ValidatePhone("", "+1")
	assert.Error(t, err)
}

func TestValidateDOB(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateDOB(time.Date(1990, 5, 5, 0, 0, 0, 0, time.UTC), now))
	assert.Error(t, ValidateDOB(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Error(t, ValidateDOB(time.Date(1890, 1, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Error(t, ValidateDOB(now.Add(24*time.Hour), now))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeString("  <script>alert(1)</script> "))
	assert.Equal(t, "alert(1)", SanitizeString("javascript:alert(1)"))
	assert.Equal(t, `img src=x "x"`, SanitizeString(`<img src=x onerror="x">`))
}

func TestDetectSQLInjection(t *testing.T) {
	for _, bad := range []string{"1; DROP TABLE users", "admin' --", "x' OR 1=1", "a /* b */", "union select"} {
		assert.True(t, DetectSQLInjection(bad), bad)
	}
	for _, ok := range []string{"Learn guitar chords", "Jazz piano for beginners", "hello@example.com"} {
		assert.False(t, DetectSQLInjection(ok), ok)
	}
}

func TestSanitizeValue(t *testing.T) {
	body := map[string]interface{}{
		"title":    " <b>Guitar</b> ",
		"password": "P@ss<>word#1",
		"nested":   map[string]interface{}{"list": []interface{}{"<i>a</i>", 3.0}},
	}
	out, ok := SanitizeValue(body, map[string]bool{"password": true})
	assert.True(t, ok)
	m := out.(map[string]interface{})
	assert.Equal(t, "bGuitar/b", m["title"])
	assert.Equal(t, "P@ss<>word#1", m["password"])
	assert.Equal(t, "ia/i", m["nested"].(map[string]interface{})["list"].([]interface{})[0])

	_, ok = SanitizeValue(map[string]interface{}{"q": "1 OR 1=1"}, nil)
	assert.False(t, ok)
}
