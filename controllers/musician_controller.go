package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type ProfileInput struct {
	CoverPhoto   *string             `json:"coverPhoto"`
	ProfilePhoto *string             `json:"profilePhoto"`
	Name         *string             `json:"name" binding:"omitempty,min=2,max=100"`
	Description  *string             `json:"description" binding:"omitempty,max=1000"`
	Mail         *string             `json:"mail" binding:"omitempty,email"`
	Contact      *string             `json:"contact" binding:"omitempty,max=30"`
	Location     *string             `json:"location" binding:"omitempty,max=255"`
	SocialMedia  []models.SocialLink `json:"socialMedia" binding:"omitempty,dive"`
}

// Apply copies the supplied fields onto p.
func (in *ProfileInput) Apply(p *models.Profile) {
	if in.CoverPhoto != nil {
		p.CoverPhoto = *in.CoverPhoto
	}
	if in.ProfilePhoto != nil {
		p.ProfilePhoto = *in.ProfilePhoto
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Mail != nil {
		p.Mail = utils.NormalizeEmail(*in.Mail)
	}
	if in.Contact != nil {
		p.Contact = *in.Contact
	}
	if in.Location != nil {
		p.Location = *in.Location
	}
	if in.SocialMedia != nil {
		p.SocialMedia = in.SocialMedia
	}
}

type CreateMusicianInput struct {
	Name         string              `json:"name" binding:"required,min=2,max=100"`
	Email        string              `json:"email" binding:"required,email"`
	CountryCode  string              `json:"countryCode" binding:"required,countrycode"`
	PhoneNumber  string              `json:"phoneNumber" binding:"required"`
	Description  string              `json:"description" binding:"omitempty,max=1000"`
	Location     string              `json:"location" binding:"omitempty,max=255"`
	ProfilePhoto string              `json:"profilePhoto"`
	CoverPhoto   string              `json:"coverPhoto"`
	SocialMedia  []models.SocialLink `json:"socialMedia"`
}

// MusicianLogin is the password login restricted to musician accounts.
func MusicianLogin(c *gin.Context) {
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
	if user.Role != models.RoleMusician {
		utils.Fail(c, utils.NewForbiddenError("Access denied. Musician account required."))
		return
	}
	if err := checkAccount(user); err != nil {
		utils.Fail(c, err)
		return
	}

	var musician *models.Musician
	if user.MusicianID != nil {
		var m models.Musician
		if err := db.Where("musician_id = ?", *user.MusicianID).First(&m).Error; err == nil {
			musician = &m
		}
	}

	tokens, err := startSession(c, db, user, input.DeviceType, input.DeviceToken)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Login successful", gin.H{
		"user":     user,
		"musician": musician,
		"tokens":   tokens,
	})
}

func GetMusicianProfile(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	musician, err := currentMusician(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Musician profile retrieved successfully", gin.H{"musician": musician})
}

func UpdateMusicianProfile(c *gin.Context) {
	var input ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	musician, err := currentMusician(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	input.Apply(&musician.Profile)
	musician.RefreshCompletion()
	if err := db.Save(musician).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Musician profile updated successfully", gin.H{"musician": musician})
}

// CreateMusician provisions a musician together with its login account.
// The initial password is the phone number digits and is mailed after commit.
func CreateMusician(c *gin.Context) {
	var input CreateMusicianInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	email := utils.NormalizeEmail(input.Email)

	digits, err := utils.ValidatePhone(input.PhoneNumber, input.CountryCode)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	if count > 0 {
		utils.Fail(c, utils.NewConflictError("User with this email already exists"))
		return
	}
	hashed, err := hashPassword(digits)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	var musician models.Musician
	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		id, err := services.NextMusicianID(tx)
		if err != nil {
			return err
		}
		musician = models.Musician{
			MusicianID: id,
			Profile: models.Profile{
				Name:         strings.TrimSpace(input.Name),
				Description:  input.Description,
				Mail:         email,
				Contact:      input.CountryCode + digits,
				Location:     input.Location,
				ProfilePhoto: input.ProfilePhoto,
				CoverPhoto:   input.CoverPhoto,
				SocialMedia:  input.SocialMedia,
			},
			IsActive: true,
		}
		musician.RefreshCompletion()
		if err := tx.Create(&musician).Error; err != nil {
			return err
		}

		user = models.User{
			Email:           email,
			FirstName:       strings.TrimSpace(input.Name),
			Password:        hashed,
			CountryCode:     input.CountryCode,
			PhoneNumber:     &digits,
			SocialType:      models.SocialNormal,
			IsEmailVerified: true,
			IsOTPVerified:   true,
			MusicianID:      &id,
			Role:            models.RoleMusician,
			IsActive:        true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		musician.UserID = &user.ID
		return tx.Model(&musician).Update("user_id", user.ID).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	svc.SendEmail(email, services.TemplateMusicianCredentials, map[string]interface{}{
		"name":       musician.Name,
		"musicianId": musician.MusicianID,
		"email":      email,
		"password":   digits,
		"loginUrl":   svc.Config.AppURL,
	})

	utils.Success(c, http.StatusCreated, "Musician created successfully", gin.H{
		"musician": musician,
		"user":     user,
	})
}

func GetAllMusicians(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	q := db.Model(&models.Musician{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := likePattern(search)
		q = q.Where("LOWER(name) LIKE ?"+likeEscape+" OR LOWER(mail) LIKE ?"+likeEscape+" OR LOWER(location) LIKE ?"+likeEscape,
			pattern, pattern, pattern)
	}
	if v := c.Query("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.Fail(c, utils.NewValidationError("isActive must be a boolean"))
			return
		}
		q = q.Where("is_active = ?", active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var musicians []models.Musician
	if err := q.Order("musician_id ASC").Offset(p.Offset()).Limit(p.Limit).Find(&musicians).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Musicians retrieved successfully", gin.H{
		"musicians":  musicians,
		"pagination": p.Meta(total),
	})
}

// DeleteMusician removes the musician and its linked login in one transaction.
func DeleteMusician(c *gin.Context) {
	musicianID, ok := paramMusicianID(c, "musicianId")
	if !ok {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	err := db.Transaction(func(tx *gorm.DB) error {
		var m models.Musician
		if err := tx.Where("musician_id = ?", musicianID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Musician not found")
			}
			return err
		}
		q := tx.Where("musician_id = ?", musicianID)
		if m.UserID != nil {
			q = q.Or("id = ?", *m.UserID)
		}
		if err := q.Delete(&models.User{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Musician deleted successfully", gin.H{"musicianId": musicianID})
}
