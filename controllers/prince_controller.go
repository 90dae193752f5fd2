package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

func loadPrince(db *gorm.DB) (*models.Prince, error) {
	var p models.Prince
	err := db.Order("created_at ASC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Prince profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func GetPrince(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	prince, err := loadPrince(db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	sections, err := activeSections(db, princeSections(prince.ID))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Prince profile retrieved successfully", gin.H{
		"prince":   prince,
		"sections": sections,
	})
}

// UpsertPrince creates the singleton profile on first use.
func UpsertPrince(c *gin.Context) {
	var input ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	prince, err := loadPrince(db)
	status := http.StatusOK
	if err != nil {
		var appErr *utils.AppError
		if !errors.As(err, &appErr) || appErr.Status != http.StatusNotFound {
			utils.Fail(c, err)
			return
		}
		prince = &models.Prince{IsActive: true}
		status = http.StatusCreated
	}

	input.Apply(&prince.Profile)
	if err := db.Save(prince).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, status, "Prince profile saved successfully", gin.H{"prince": prince})
}

func AddPrinceSectionContent(c *gin.Context) {
	var input SectionContentInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	prince, err := loadPrince(db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	section, err := appendToSection(db, princeSections(prince.ID), input)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Section content added successfully", gin.H{"section": section})
}
