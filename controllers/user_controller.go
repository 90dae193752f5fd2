package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// ====== INPUT STRUCTS ======
type SignupInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"firstName" binding:"required,min=2,max=50"`
	LastName    string `json:"lastName" binding:"omitempty,max=50"`
	CountryCode string `json:"countryCode" binding:"omitempty,countrycode"`
	PhoneNumber string `json:"phoneNumber"`
	DOB         string `json:"dob"`
	DeviceType  string `json:"deviceType" binding:"omitempty,oneof=android ios web"`
	DeviceToken string `json:"deviceToken"`
}

type LoginInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DeviceType  string `json:"deviceType" binding:"omitempty,oneof=android ios web"`
	DeviceToken string `json:"deviceToken"`
}

type SocialLoginInput struct {
	SocialType   models.SocialType `json:"socialType" binding:"required,oneof=google facebook apple"`
	SocialID     string            `json:"socialId" binding:"required"`
	Email        string            `json:"email" binding:"required,email"`
	FirstName    string            `json:"firstName" binding:"omitempty,max=50"`
	LastName     string            `json:"lastName" binding:"omitempty,max=50"`
	ProfileImage string            `json:"profileImage"`
	IDToken      string            `json:"idToken"`
	DeviceType   string            `json:"deviceType" binding:"omitempty,oneof=android ios web"`
	DeviceToken  string            `json:"deviceToken"`
}

type RequestOTPInput struct {
	Email  string            `json:"email" binding:"required,email"`
	OTPFor models.OTPPurpose `json:"otpFor" binding:"required,oneof=emailVerification resetPassword updateEmail updatePhoneNumber"`
}

type VerifyOTPInput struct {
	Email  string            `json:"email" binding:"required,email"`
	OTP    string            `json:"otp" binding:"required,otp6"`
	OTPFor models.OTPPurpose `json:"otpFor" binding:"required,oneof=emailVerification resetPassword updateEmail updatePhoneNumber"`
}

type EmailOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otp6"`
}

type EmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,otp6"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type VerifyEmailUpdateInput struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,otp6"`
	NewEmail string `json:"newEmail" binding:"omitempty,email"`
}

type VerifyPhoneUpdateInput struct {
	Email          string `json:"email" binding:"required,email"`
	OTP            string `json:"otp" binding:"required,otp6"`
	NewCountryCode string `json:"newCountryCode"`
	NewPhoneNumber string `json:"newPhoneNumber"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UpdateProfileInput struct {
	FirstName    *string `json:"firstName" binding:"omitempty,min=2,max=50"`
	LastName     *string `json:"lastName" binding:"omitempty,max=50"`
	DOB          *string `json:"dob"`
	ProfileImage *string `json:"profileImage"`
	Theme        *string `json:"theme" binding:"omitempty,oneof=light dark"`
	DeviceType   *string `json:"deviceType" binding:"omitempty,oneof=android ios web"`
	DeviceToken  *string `json:"deviceToken"`
	Email        *string `json:"email" binding:"omitempty,email"`
	CountryCode  *string `json:"countryCode"`
	PhoneNumber  *string `json:"phoneNumber"`
}

type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
}

type DeleteAccountInput struct {
	Password string `json:"password"`
}

// ====== HELPERS ======
func findUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func issueOTP(u *models.User, purpose models.OTPPurpose) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	u.SetOTP(code, purpose, timeNow(), utils.OTPTTL)
	return nil
}

func otpInfo(u *models.User) gin.H {
	return gin.H{
		"expiresAt": u.OTPExpiresAt,
		"expiresIn": int(utils.OTPTTL.Seconds()),
	}
}

// sendOTPEmail mails the user's current code with the template for its purpose.
func sendOTPEmail(svc *services.Container, u *models.User) {
	if u.OTP == nil || u.OTPFor == nil {
		return
	}
	data := map[string]interface{}{
		"firstName": u.FirstName,
		"otp":       *u.OTP,
		"expiresIn": int(utils.OTPTTL.Minutes()),
	}
	to := u.Email
	tmpl := services.TemplateEmailVerification
	switch *u.OTPFor {
	case models.OTPResetPassword:
		tmpl = services.TemplatePasswordReset
	case models.OTPUpdateEmail:
		tmpl = services.TemplateEmailUpdate
		if u.PendingEmail != nil {
			to = *u.PendingEmail
			data["newEmail"] = *u.PendingEmail
		}
	case models.OTPUpdatePhoneNumber:
		tmpl = services.TemplatePhoneUpdate
		if u.PendingPhoneNumber != nil {
			cc := ""
			if u.PendingCountryCode != nil {
				cc = *u.PendingCountryCode + " "
			}
			data["newPhone"] = cc + *u.PendingPhoneNumber
		}
	}
	svc.SendEmail(to, tmpl, data)
}

// checkAccount rejects blocked and deactivated users.
func checkAccount(u *models.User) error {
	if u.IsBlocked {
		return utils.NewForbiddenError("Account is blocked")
	}
	if !u.IsActive {
		return utils.NewForbiddenError("Account is deactivated")
	}
	return nil
}

// verifyCredentials returns the user for email/password or a uniform 401.
func verifyCredentials(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.Password, password) {
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}
	return &user, nil
}

// startSession stamps the login and device details and issues a token pair.
func startSession(c *gin.Context, db *gorm.DB, user *models.User, deviceType, deviceToken string) (services.TokenPair, error) {
	now := timeNow()
	user.LoginAt = &now
	if deviceType != "" {
		user.DeviceType = deviceType
	}
	if deviceToken != "" {
		user.DeviceToken = &deviceToken
	}
	if err := db.Save(user).Error; err != nil {
		return services.TokenPair{}, err
	}
	return middleware.GetServices(c).Tokens.GeneratePair(user.ID.String(), string(user.Role))
}

func passwordError(errs []string) error {
	fields := make([]utils.FieldError, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, utils.FieldError{Field: "password", Message: e})
	}
	return utils.NewValidationError(strings.Join(errs, ", "), fields...)
}

// revokeToken blocks token for the rest of its lifetime.
func revokeToken(c *gin.Context, token string, claims *services.Claims) {
	svc := middleware.GetServices(c)
	if err := svc.Store.Revoke(c.Request.Context(), token, claims.Remaining(timeNow())); err != nil {
		svc.Logger.Warn("revoke token", zap.Error(err))
	}
}

// ====== HANDLERS ======
func Signup(c *gin.Context) {
	var input SignupInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	email := utils.NormalizeEmail(input.Email)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	if count > 0 {
		utils.Fail(c, utils.NewConflictError("User with this email already exists"))
		return
	}

	if errs := utils.ValidatePasswordStrength(input.Password); len(errs) > 0 {
		utils.Fail(c, passwordError(errs))
		return
	}

	user := models.User{
		Email:      email,
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		SocialType: models.SocialNormal,
		Role:       models.RoleUser,
		IsActive:   true,
		DeviceType: input.DeviceType,
	}
	if input.DeviceToken != "" {
		user.DeviceToken = &input.DeviceToken
	}

	if input.PhoneNumber != "" || input.CountryCode != "" {
		digits, err := utils.ValidatePhone(input.PhoneNumber, input.CountryCode)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if err := db.Model(&models.User{}).Where("phone_number = ?", digits).Count(&count).Error; err != nil {
			utils.Fail(c, err)
			return
		}
		if count > 0 {
			utils.Fail(c, utils.NewConflictError("User with this phone number already exists"))
			return
		}
		user.PhoneNumber = &digits
		user.CountryCode = input.CountryCode
	}

	if input.DOB != "" {
		dob, err := parseDate(input.DOB)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if err := utils.ValidateDOB(dob, timeNow()); err != nil {
			utils.Fail(c, err)
			return
		}
		user.DOB = &dob
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	user.Password = hashed
	if err := issueOTP(&user, models.OTPEmailVerification); err != nil {
		utils.Fail(c, err)
		return
	}

	if err := db.Create(&user).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	tokens, err := svc.Tokens.GeneratePair(user.ID.String(), string(user.Role))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	sendOTPEmail(svc, &user)

	utils.Success(c, http.StatusCreated, "User created successfully. Please verify your email with the OTP sent.", gin.H{
		"user":   user,
		"tokens": tokens,
		"otp":    otpInfo(&user),
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := verifyCredentials(db, input.Email, input.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := checkAccount(user); err != nil {
		utils.Fail(c, err)
		return
	}

	tokens, err := startSession(c, db, user, input.DeviceType, input.DeviceToken)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Login successful", gin.H{"user": user, "tokens": tokens})
}

// SocialLogin signs in by provider identity, linking or creating the
// account. Google identities are verified when a client id is configured.
func SocialLogin(c *gin.Context) {
	var input SocialLoginInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	email := utils.NormalizeEmail(input.Email)

	if input.SocialType == models.SocialGoogle && svc.Social != nil {
		if input.IDToken == "" {
			utils.Fail(c, utils.NewValidationError("idToken is required for Google sign-in"))
			return
		}
		identity, err := svc.Social.Verify(c.Request.Context(), input.IDToken)
		if err != nil || identity.Subject != input.SocialID {
			utils.Fail(c, utils.NewUnauthorizedError("Invalid social token"))
			return
		}
		if identity.Email != "" {
			email = utils.NormalizeEmail(identity.Email)
		}
		if input.FirstName == "" {
			input.FirstName = identity.FirstName
		}
		if input.LastName == "" {
			input.LastName = identity.LastName
		}
		if input.ProfileImage == "" {
			input.ProfileImage = identity.Picture
		}
	}

	var user models.User
	created := false
	err := db.Where("social_type = ? AND social_id = ?", input.SocialType, input.SocialID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			// link the provider to the existing account
			user.SocialType = input.SocialType
			user.SocialID = &input.SocialID
			user.IsEmailVerified = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			firstName := strings.TrimSpace(input.FirstName)
			if firstName == "" {
				firstName = strings.SplitN(email, "@", 2)[0]
			}
			user = models.User{
				Email:           email,
				FirstName:       firstName,
				LastName:        strings.TrimSpace(input.LastName),
				SocialType:      input.SocialType,
				SocialID:        &input.SocialID,
				ProfileImage:    input.ProfileImage,
				IsEmailVerified: true,
				Role:            models.RoleUser,
				IsActive:        true,
			}
			if err := db.Create(&user).Error; err != nil {
				utils.Fail(c, err)
				return
			}
			created = true
		default:
			utils.Fail(c, err)
			return
		}
	} else if err != nil {
		utils.Fail(c, err)
		return
	}

	if err := checkAccount(&user); err != nil {
		utils.Fail(c, err)
		return
	}
	tokens, err := startSession(c, db, &user, input.DeviceType, input.DeviceToken)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.Success(c, status, "Social login successful", gin.H{
		"user":      user,
		"tokens":    tokens,
		"isNewUser": created,
	})
}

func RequestOTP(c *gin.Context) {
	var input RequestOTPInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := findUserByEmail(db, input.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	switch {
	case input.OTPFor == models.OTPUpdateEmail && user.PendingEmail == nil:
		utils.Fail(c, utils.NewValidationError("No pending email change"))
		return
	case input.OTPFor == models.OTPUpdatePhoneNumber && user.PendingPhoneNumber == nil:
		utils.Fail(c, utils.NewValidationError("No pending phone number change"))
		return
	}

	if err := issueOTP(user, input.OTPFor); err != nil {
		utils.Fail(c, err)
		return
	}
	if err := db.Save(user).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	sendOTPEmail(middleware.GetServices(c), user)

	utils.Success(c, http.StatusOK, "OTP sent successfully", gin.H{
		"email":  user.Email,
		"otpFor": input.OTPFor,
		"otp":    otpInfo(user),
	})
}

// userForOTP loads the user for email and checks code against purpose.
// Nothing is written on failure.
func userForOTP(db *gorm.DB, email, code string, purpose models.OTPPurpose) (*models.User, error) {
	user, err := findUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	if err := utils.CheckOTP(user, code, purpose, timeNow()); err != nil {
		return nil, err
	}
	return user, nil
}

// consumeOTP marks the code verified and clears it.
func consumeOTP(db *gorm.DB, user *models.User) error {
	if user.OTPFor != nil && *user.OTPFor == models.OTPEmailVerification {
		user.IsEmailVerified = true
	}
	user.ClearOTP()
	user.IsOTPVerified = true
	return db.Save(user).Error
}

func VerifyOTP(c *gin.Context) {
	var input VerifyOTPInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := userForOTP(db, input.Email, input.OTP, input.OTPFor)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := consumeOTP(db, user); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "OTP verified successfully", gin.H{"user": user})
}

func VerifyAccount(c *gin.Context) {
	var input EmailOTPInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := userForOTP(db, input.Email, input.OTP, models.OTPEmailVerification)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := consumeOTP(db, user); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Account verified successfully", gin.H{"user": user})
}

func ForgotPassword(c *gin.Context) {
	var input EmailInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := findUserByEmail(db, input.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := issueOTP(user, models.OTPResetPassword); err != nil {
		utils.Fail(c, err)
		return
	}
	if err := db.Save(user).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	sendOTPEmail(middleware.GetServices(c), user)

	utils.Success(c, http.StatusOK, "Password reset OTP sent successfully", gin.H{
		"email": user.Email,
		"otp":   otpInfo(user),
	})
}

// VerifyPasswordReset confirms the reset code but keeps it for ResetPassword.
func VerifyPasswordReset(c *gin.Context) {
	var input EmailOTPInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := userForOTP(db, input.Email, input.OTP, models.OTPResetPassword)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := db.Model(user).Update("is_otp_verified", true).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "OTP verified successfully. You can now reset your password.", gin.H{
		"email": user.Email,
	})
}

func ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := findUserByEmail(db, input.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if !user.IsOTPVerified {
		utils.Fail(c, utils.NewUnauthorizedError("Invalid or unverified OTP"))
		return
	}
	if err := utils.CheckOTP(user, input.OTP, models.OTPResetPassword, timeNow()); err != nil {
		utils.Fail(c, err)
		return
	}
	if errs := utils.ValidatePasswordStrength(input.NewPassword); len(errs) > 0 {
		utils.Fail(c, passwordError(errs))
		return
	}

	hashed, err := hashPassword(input.NewPassword)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	now := timeNow()
	user.Password = hashed
	user.ClearOTP()
	user.IsOTPVerified = false
	user.TokensValidAfter = &now
	if err := db.Save(user).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Password reset successfully. Please login with your new password.", nil)
}

func VerifyEmailUpdate(c *gin.Context) {
	var input VerifyEmailUpdateInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := userForOTP(db, input.Email, input.OTP, models.OTPUpdateEmail)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	newEmail := utils.NormalizeEmail(input.NewEmail)
	if user.PendingEmail != nil {
		newEmail = *user.PendingEmail
	}
	if newEmail == "" {
		utils.Fail(c, utils.NewValidationError("No pending email change"))
		return
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", newEmail, user.ID).Count(&count).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	if count > 0 {
		utils.Fail(c, utils.NewConflictError("Email is already in use by another account"))
		return
	}

	user.Email = newEmail
	user.PendingEmail = nil
	user.IsEmailVerified = true
	user.IsOTPVerified = true
	user.ClearOTP()
	if err := db.Save(user).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Email updated successfully", gin.H{"user": user})
}

func VerifyPhoneUpdate(c *gin.Context) {
	var input VerifyPhoneUpdateInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	user, err := userForOTP(db, input.Email, input.OTP, models.OTPUpdatePhoneNumber)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	phone, code := input.NewPhoneNumber, input.NewCountryCode
	if user.PendingPhoneNumber != nil {
		phone = *user.PendingPhoneNumber
		if user.PendingCountryCode != nil {
			code = *user.PendingCountryCode
		}
	}
	digits, err := utils.ValidatePhone(phone, code)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	var count int64
	if err := db.Model(&models.User{}).Where("phone_number = ? AND id <> ?", digits, user.ID).Count(&count).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	if count > 0 {
		utils.Fail(c, utils.NewConflictError("Phone number is already in use by another account"))
		return
	}

	user.PhoneNumber = &digits
	user.CountryCode = code
	user.PendingPhoneNumber = nil
	user.PendingCountryCode = nil
	user.IsOTPVerified = true
	user.ClearOTP()
	if err := db.Save(user).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Phone number updated successfully", gin.H{"user": user})
}

// RefreshToken rotates a refresh token; the presented one is revoked.
func RefreshToken(c *gin.Context) {
	var input RefreshTokenInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)

	claims, err := svc.Tokens.ValidateRefresh(input.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrExpiredToken) {
			utils.Fail(c, utils.NewUnauthorizedError("Refresh token has expired"))
			return
		}
		utils.Fail(c, utils.NewUnauthorizedError("Invalid refresh token"))
		return
	}
	revoked, err := svc.Store.IsRevoked(c.Request.Context(), input.RefreshToken)
	if err != nil {
		svc.Logger.Warn("revocation lookup failed", zap.Error(err))
	} else if revoked {
		utils.Fail(c, utils.NewUnauthorizedError("Token has been revoked"))
		return
	}

	var user models.User
	if err := db.First(&user, "id = ?", claims.UserID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(c, utils.NewUnauthorizedError("User not found"))
			return
		}
		utils.Fail(c, err)
		return
	}
	if claims.IssuedBefore(user.TokensValidAfter) {
		utils.Fail(c, utils.NewUnauthorizedError("Token has been revoked"))
		return
	}
	if err := checkAccount(&user); err != nil {
		utils.Fail(c, err)
		return
	}

	tokens, err := svc.Tokens.GeneratePair(user.ID.String(), string(user.Role))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	revokeToken(c, input.RefreshToken, claims)

	utils.Success(c, http.StatusOK, "Tokens refreshed successfully", gin.H{"tokens": tokens})
}

func GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	utils.Success(c, http.StatusOK, "Profile retrieved successfully", gin.H{"user": user})
}

// UpdateProfile applies direct edits immediately. Email and phone changes
// are parked as pending values until confirmed with an OTP.
func UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := *middleware.CurrentUser(c)

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.ProfileImage != nil {
		user.ProfileImage = *input.ProfileImage
	}
	if input.Theme != nil {
		user.Theme = *input.Theme
	}
	if input.DeviceType != nil {
		user.DeviceType = *input.DeviceType
	}
	if input.DeviceToken != nil {
		user.DeviceToken = input.DeviceToken
	}
	if input.DOB != nil {
		dob, err := parseDate(*input.DOB)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if err := utils.ValidateDOB(dob, timeNow()); err != nil {
			utils.Fail(c, err)
			return
		}
		user.DOB = &dob
	}

	var pending []string
	if input.Email != nil {
		email := utils.NormalizeEmail(*input.Email)
		if email != user.Email {
			var count int64
			if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
				utils.Fail(c, err)
				return
			}
			if count > 0 {
				utils.Fail(c, utils.NewConflictError("Email is already in use by another account"))
				return
			}
			user.PendingEmail = &email
			pending = append(pending, "email")
		}
	}
	if input.PhoneNumber != nil || input.CountryCode != nil {
		phone, code := deref(input.PhoneNumber), deref(input.CountryCode)
		if phone == "" && user.PhoneNumber != nil {
			phone = *user.PhoneNumber
		}
		if code == "" {
			code = user.CountryCode
		}
		digits, err := utils.ValidatePhone(phone, code)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if user.PhoneNumber == nil || *user.PhoneNumber != digits || user.CountryCode != code {
			var count int64
			if err := db.Model(&models.User{}).Where("phone_number = ? AND id <> ?", digits, user.ID).Count(&count).Error; err != nil {
				utils.Fail(c, err)
				return
			}
			if count > 0 {
				utils.Fail(c, utils.NewConflictError("Phone number is already in use by another account"))
				return
			}
			user.PendingPhoneNumber = &digits
			user.PendingCountryCode = &code
			pending = append(pending, "phoneNumber")
		}
	}
	if len(pending) > 1 {
		utils.Fail(c, utils.NewValidationError("Update email and phone number separately"))
		return
	}

	if len(pending) == 1 {
		purpose := models.OTPUpdateEmail
		if pending[0] == "phoneNumber" {
			purpose = models.OTPUpdatePhoneNumber
		}
		if err := issueOTP(&user, purpose); err != nil {
			utils.Fail(c, err)
			return
		}
	}
	if err := db.Save(&user).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	body := gin.H{"user": user}
	message := "Profile updated successfully"
	if len(pending) == 1 {
		sendOTPEmail(svc, &user)
		body["pendingVerification"] = pending
		body["otp"] = otpInfo(&user)
		message = "Profile updated. Please verify the OTP sent to confirm your change."
	}
	utils.Success(c, http.StatusOK, message, body)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Logout(c *gin.Context) {
	var input LogoutInput
	_ = c.ShouldBindJSON(&input)
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	revokeToken(c, c.GetString(middleware.KeyToken), c.MustGet(middleware.KeyClaims).(*services.Claims))
	if input.RefreshToken != "" {
		if claims, err := svc.Tokens.ValidateRefresh(input.RefreshToken); err == nil && claims.UserID() == user.ID.String() {
			revokeToken(c, input.RefreshToken, claims)
		}
	}
	if err := db.Model(user).Update("device_token", nil).Error; err != nil {
		svc.Logger.Warn("clear device token", zap.Error(err))
	}
	utils.Success(c, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAll invalidates every token issued to the user so far.
func LogoutAll(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	now := timeNow()
	if err := db.Model(user).Updates(map[string]interface{}{
		"tokens_valid_after": now,
		"device_token":       nil,
	}).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	revokeToken(c, c.GetString(middleware.KeyToken), c.MustGet(middleware.KeyClaims).(*services.Claims))
	utils.Success(c, http.StatusOK, "Logged out from all devices successfully", nil)
}

// DeleteAccount removes the user with their enrollments, tutor requests
// and notifications. A supplied password must match.
func DeleteAccount(c *gin.Context) {
	var input DeleteAccountInput
	_ = c.ShouldBindJSON(&input)
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	if input.Password != "" && user.Password != "" && !checkPassword(user.Password, input.Password) {
		utils.Fail(c, utils.NewUnauthorizedError("Password is incorrect"))
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var courseIDs []string
		if err := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND is_active = ?", user.ID, true).
			Pluck("course_id", &courseIDs).Error; err != nil {
			return err
		}
		if len(courseIDs) > 0 {
			if err := tx.Model(&models.Course{}).
				Where("id IN ? AND enrollment_count > 0", courseIDs).
				UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - 1")).Error; err != nil {
				return err
			}
		}
		for _, m := range []interface{}{&models.Enrollment{}, &models.TutorRequest{}, &models.Notification{}} {
			if err := tx.Where("user_id = ?", user.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Musician{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	revokeToken(c, c.GetString(middleware.KeyToken), c.MustGet(middleware.KeyClaims).(*services.Claims))
	utils.Success(c, http.StatusOK, "Account deleted successfully", nil)
}
