package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type AdvertisementInput struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"required,min=3,max=5000"`
	PhotoURL    string `json:"photoUrl" binding:"omitempty,url"`
}

func CreateAdvertisement(c *gin.Context) {
	var input AdvertisementInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	ad := models.Advertisement{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		PhotoURL:    input.PhotoURL,
	}
	if err := db.Create(&ad).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Advertisement created successfully", gin.H{"advertisement": ad})
}

func GetAdvertisements(c *gin.Context) {
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	var total int64
	if err := db.Model(&models.Advertisement{}).Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var items []models.Advertisement
	if err := db.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Advertisements fetched successfully", gin.H{
		"items":      items,
		"pagination": p.Meta(total),
	})
}
