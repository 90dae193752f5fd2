package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type FeedbackInput struct {
	MusicianID  uint   `json:"musicianId" binding:"required,min=1"`
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"required,min=3,max=5000"`
	FirstName   string `json:"firstName" binding:"required,min=1,max=50"`
	LastName    string `json:"lastName" binding:"required,min=1,max=50"`
	Email       string `json:"email" binding:"required,email"`
}

// CreateFeedback is open to anonymous visitors.
func CreateFeedback(c *gin.Context) {
	var input FeedbackInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)

	if _, err := findMusician(db, "musician_id = ?", input.MusicianID); err != nil {
		utils.Fail(c, err)
		return
	}

	feedback := models.Feedback{
		MusicianID:  input.MusicianID,
		Title:       input.Title,
		Description: input.Description,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       utils.NormalizeEmail(input.Email),
	}
	if err := db.Create(&feedback).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.NotifyMusician(db, input.MusicianID, models.NotifyFeedback, "New feedback",
		fmt.Sprintf("%s %s left feedback: %s", input.FirstName, input.LastName, input.Title), "/feedback")

	utils.Success(c, http.StatusCreated, "Feedback submitted successfully", gin.H{"feedback": feedback})
}

func GetFeedback(c *gin.Context) {
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var query struct {
		MusicianID uint `form:"musicianId" binding:"omitempty,min=1"`
	}
	if !bindQuery(c, &query) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	q := db.Model(&models.Feedback{})
	if query.MusicianID != 0 {
		q = q.Where("musician_id = ?", query.MusicianID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var items []models.Feedback
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Feedback fetched successfully", gin.H{
		"items":      items,
		"pagination": p.Meta(total),
	})
}
