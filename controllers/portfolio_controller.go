package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type SectionContentInput struct {
	Title       string                  `json:"title" binding:"required,min=1,max=200"`
	Description string                  `json:"description" binding:"omitempty,max=1000"`
	Content     []models.SectionContent `json:"content" binding:"required,min=1,dive"`
}

type ReplaceContentInput struct {
	Content []models.SectionContent `json:"content" binding:"required,dive"`
}

// sectionOwner selects sections of a musician or of the Prince profile.
type sectionOwner struct {
	column string
	id     uuid.UUID
}

func musicianSections(id uuid.UUID) sectionOwner { return sectionOwner{"musician_ref", id} }
func princeSections(id uuid.UUID) sectionOwner   { return sectionOwner{"prince_ref", id} }

func (o sectionOwner) scope(db *gorm.DB) *gorm.DB {
	return db.Where(o.column+" = ?", o.id)
}

func activeSections(db *gorm.DB, owner sectionOwner) ([]models.Section, error) {
	var sections []models.Section
	err := owner.scope(db).Where("is_active = ?", true).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&sections).Error
	return sections, err
}

// appendToSection finds the owner's section by title, creating or
// reactivating it, and appends items to its content.
func appendToSection(db *gorm.DB, owner sectionOwner, input SectionContentInput) (*models.Section, error) {
	title := strings.TrimSpace(input.Title)
	var section models.Section
	err := db.Transaction(func(tx *gorm.DB) error {
		err := owner.scope(tx).Where("title = ?", title).First(&section).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var count int64
			if err := owner.scope(tx.Model(&models.Section{})).Count(&count).Error; err != nil {
				return err
			}
			section = models.Section{Title: title, Description: input.Description, IsActive: true, Order: int(count)}
			if owner.column == "musician_ref" {
				section.MusicianRef = &owner.id
			} else {
				section.PrinceRef = &owner.id
			}
			section.Append(input.Content...)
			return tx.Create(&section).Error
		case err != nil:
			return err
		}
		section.IsActive = true
		if input.Description != "" {
			section.Description = input.Description
		}
		section.Append(input.Content...)
		return tx.Save(&section).Error
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func findMusician(db *gorm.DB, where string, arg interface{}) (*models.Musician, error) {
	var m models.Musician
	if err := db.Where(where, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Musician not found")
		}
		return nil, err
	}
	return &m, nil
}

func respondPortfolio(c *gin.Context, db *gorm.DB, m *models.Musician) {
	sections, err := activeSections(db, musicianSections(m.ID))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Portfolio retrieved successfully", gin.H{
		"musician": m,
		"sections": sections,
	})
}

func GetPortfolio(c *gin.Context) {
	musicianID, ok := paramMusicianID(c, "musicianId")
	if !ok {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	m, err := findMusician(db, "musician_id = ?", musicianID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	respondPortfolio(c, db, m)
}

func GetPortfolioByEmail(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	m, err := findMusician(db, "mail = ?", utils.NormalizeEmail(c.Param("email")))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	respondPortfolio(c, db, m)
}

func GetPortfolioSections(c *gin.Context) {
	musicianID, ok := paramMusicianID(c, "musicianId")
	if !ok {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	m, err := findMusician(db, "musician_id = ?", musicianID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	sections, err := activeSections(db, musicianSections(m.ID))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Sections retrieved successfully", gin.H{"sections": sections})
}

// AddUpdatePortfolio edits the caller's musician profile. A user without
// one gets a new musician id and the musician role.
func AddUpdatePortfolio(c *gin.Context) {
	var input ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	if user.MusicianID != nil {
		m, err := currentMusician(c, db)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		input.Apply(&m.Profile)
		m.RefreshCompletion()
		if err := db.Save(m).Error; err != nil {
			utils.Fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Portfolio updated successfully", gin.H{"musician": m})
		return
	}

	var m models.Musician
	err := db.Transaction(func(tx *gorm.DB) error {
		id, err := services.NextMusicianID(tx)
		if err != nil {
			return err
		}
		m = models.Musician{MusicianID: id, UserID: &user.ID, IsActive: true}
		m.Profile.Mail = user.Email
		m.Profile.Name = user.FullName()
		input.Apply(&m.Profile)
		m.RefreshCompletion()
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"musician_id": id}
		if user.Role == models.RoleUser {
			updates["role"] = models.RoleMusician
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Portfolio created successfully", gin.H{"musician": m})
}

func AddSectionContent(c *gin.Context) {
	var input SectionContentInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	m, err := currentMusician(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	section, err := appendToSection(db, musicianSections(m.ID), input)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Section content added successfully", gin.H{"section": section})
}

func sectionByTitle(c *gin.Context, db *gorm.DB) (*models.Section, error) {
	musicianID, ok := paramMusicianID(c, "musicianId")
	if !ok {
		return nil, nil
	}
	m, err := findMusician(db, "musician_id = ?", musicianID)
	if err != nil {
		return nil, err
	}
	var section models.Section
	err = musicianSections(m.ID).scope(db).
		Where("title = ? AND is_active = ?", c.Param("sectionTitle"), true).
		First(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Section not found")
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// ReplaceSectionContent overwrites the section's content list.
func ReplaceSectionContent(c *gin.Context) {
	var input ReplaceContentInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	section, err := sectionByTitle(c, db)
	if section == nil {
		if err != nil {
			utils.Fail(c, err)
		}
		return
	}

	section.Content = datatypes.JSONSlice[models.SectionContent]{}
	section.Append(input.Content...)
	if err := db.Model(section).Update("content", section.Content).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Section content updated successfully", gin.H{"section": section})
}

func DeleteSection(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	section, err := sectionByTitle(c, db)
	if section == nil {
		if err != nil {
			utils.Fail(c, err)
		}
		return
	}
	if err := db.Model(section).Update("is_active", false).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Section deleted successfully", nil)
}
