package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type NotationInput struct {
	MusicianID       uint   `json:"musicianId" binding:"required,min=1"`
	SongName         string `json:"songName" binding:"required,min=1,max=200"`
	SongReferenceURL string `json:"songReferenceUrl" binding:"omitempty,url"`
	VideoURL         string `json:"videoUrl" binding:"omitempty,url"`
	AudioURL         string `json:"audioUrl" binding:"omitempty,url"`
}

type NotationQuery struct {
	MusicianID  uint   `form:"musicianId" binding:"omitempty,min=1"`
	Status      string `form:"status" binding:"omitempty,oneof=pending in-progress completed rejected"`
	MyNotations string `form:"myNotations" binding:"omitempty,oneof=true false"`
}

type NotationStatusInput struct {
	Status models.NotationStatus `json:"status" binding:"required,oneof=pending in-progress completed rejected"`
}

func CreateNotation(c *gin.Context) {
	var input NotationInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	if _, err := activeMusician(db, input.MusicianID); err != nil {
		utils.Fail(c, err)
		return
	}

	notation := models.Notation{
		UserID:           user.ID,
		MusicianID:       input.MusicianID,
		SongName:         input.SongName,
		SongReferenceURL: input.SongReferenceURL,
		VideoURL:         input.VideoURL,
		AudioURL:         input.AudioURL,
		Status:           models.NotationPending,
	}
	if err := db.Create(&notation).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.NotifyMusician(db, input.MusicianID, models.NotifyNotation, "New notation request",
		fmt.Sprintf("%s asked for the notation of %q.", user.FullName(), input.SongName), "/notations")

	utils.Success(c, http.StatusCreated, "Notation request submitted successfully", gin.H{"notation": notation})
}

// GetNotations lists notation requests. Musicians see their inbox unless
// they ask for their own requests; plain users only ever see their own.
func GetNotations(c *gin.Context) {
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var query NotationQuery
	if !bindQuery(c, &query) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	q := db.Model(&models.Notation{})
	switch {
	case query.MyNotations == "true":
		q = q.Where("user_id = ?", user.ID)
		if query.MusicianID != 0 {
			q = q.Where("musician_id = ?", query.MusicianID)
		}
	case isAdmin(user):
		if query.MusicianID != 0 {
			q = q.Where("musician_id = ?", query.MusicianID)
		}
	case user.Role == models.RoleMusician && user.MusicianID != nil:
		q = q.Where("musician_id = ?", *user.MusicianID)
	default:
		q = q.Where("user_id = ?", user.ID)
		if query.MusicianID != 0 {
			q = q.Where("musician_id = ?", query.MusicianID)
		}
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var items []models.Notation
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Notation requests fetched successfully", gin.H{
		"items":      items,
		"pagination": p.Meta(total),
	})
}

func UpdateNotationStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id", "Notation")
	if !ok {
		return
	}
	var input NotationStatusInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	var notation models.Notation
	if err := db.First(&notation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(c, utils.NewNotFoundError("Notation not found"))
			return
		}
		utils.Fail(c, err)
		return
	}
	if !isAdmin(user) && !ownsMusicianID(user, notation.MusicianID) {
		utils.Fail(c, utils.NewForbiddenError("You can only update notations addressed to you"))
		return
	}

	notation.Status = input.Status
	if err := db.Model(&notation).Update("status", input.Status).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.Notify(db, notation.UserID, models.NotifyNotation, "Notation request updated",
		fmt.Sprintf("Your notation request for %q is now %s.", notation.SongName, notation.Status), "/notations")

	utils.Success(c, http.StatusOK, "Notation status updated successfully", gin.H{"notation": notation})
}
