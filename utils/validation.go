package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	ValidCountryCodes = []string{"+1", "+44", "+91", "+86", "+33", "+49", "+81", "+61", "+55", "+7"}

	otpPattern     = regexp.MustCompile(`^\d{6}$`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	nonDigit       = regexp.MustCompile(`\D`)
	commonWords    = []string{"password", "123456", "qwerty", "admin", "letmein"}
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs
// (otp6, countrycode) and reports fields by their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("otp6", func(fl validator.FieldLevel) bool {
			return otpPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("countrycode", func(fl validator.FieldLevel) bool {
			return IsValidCountryCode(fl.Field().String())
		})
	})
}

func IsValidCountryCode(code string) bool {
	for _, c := range ValidCountryCodes {
		if c == code {
			return true
		}
	}
	return false
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength returns every rule the password breaks.
func ValidatePasswordStrength(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if len(password) > 128 {
		errs = append(errs, "Password cannot exceed 128 characters")
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !specialPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}
	if hasWeakPattern(password) {
		errs = append(errs, "Password contains weak patterns")
	}
	return errs
}

func hasWeakPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, w := range commonWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	r := []rune(lower)
	for i := 0; i+2 < len(r); i++ {
		if r[i] == r[i+1] && r[i+1] == r[i+2] {
			return true
		}
		ascending := r[i+1] == r[i]+1 && r[i+2] == r[i]+2
		if ascending && (isDigitRun(r[i], r[i+2]) || isLetterRun(r[i], r[i+2])) {
			return true
		}
	}
	// "890" wraps past 9 in the classic sequence list
	return strings.Contains(lower, "890")
}

func isDigitRun(first, last rune) bool  { return first >= '1' && last <= '9' }
func isLetterRun(first, last rune) bool { return first >= 'a' && last <= 'z' }

// ValidatePhone checks length and country code and returns the digits only.
func ValidatePhone(phone, countryCode string) (string, error) {
	if phone == "" || countryCode == "" {
		return "", NewValidationError("Phone number and country code are required")
	}
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) < 7 || len(digits) > 15 {
		return "", NewValidationError("Invalid phone number length")
	}
	if !IsValidCountryCode(countryCode) {
		return "", NewValidationError("Invalid country code")
	}
	return digits, nil
}

// ValidateDOB requires an age between 13 and 120 calendar years.
func ValidateDOB(dob, now time.Time) error {
	if dob.After(now) {
		return NewValidationError("Date of birth cannot be in the future")
	}
	age := now.Year() - dob.Year()
	if age < 13 {
		return NewValidationError("Must be at least 13 years old")
	}
	if age > 120 {
		return NewValidationError("Invalid age")
	}
	return nil
}
