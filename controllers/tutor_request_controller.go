package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type TutorRequestInput struct {
	MusicianID uint   `json:"musicianId" binding:"required,min=1"`
	Topic      string `json:"topic" binding:"required,min=3,max=200"`
	Message    string `json:"message" binding:"required,min=10,max=1000"`
}

type TutorStatusInput struct {
	Status models.TutorRequestStatus `json:"status" binding:"required,oneof=accepted rejected"`
}

func weekConflict(status models.TutorRequestStatus) error {
	return utils.NewConflictError(fmt.Sprintf(
		"You have already sent a request to this musician this week. Your request status is: %s", status))
}

// CreateTutorRequest files at most one request per musician per ISO week.
func CreateTutorRequest(c *gin.Context) {
	var input TutorRequestInput
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

	now := timeNow()
	year, week, weekID := utils.WeekIdentifier(now)

	var existing models.TutorRequest
	err := db.Where("user_id = ? AND musician_id = ? AND year = ? AND week = ?", user.ID, input.MusicianID, year, week).
		First(&existing).Error
	if err == nil {
		utils.Fail(c, weekConflict(existing.Status))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Fail(c, err)
		return
	}

	req := models.TutorRequest{
		UserID:         user.ID,
		MusicianID:     input.MusicianID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Topic:          input.Topic,
		Message:        input.Message,
		Status:         models.TutorPending,
		RequestedAt:    now,
		WeekIdentifier: weekID,
		Year:           year,
		Week:           week,
	}
	if err := db.Create(&req).Error; err != nil {
		if isDuplicate(err) {
			utils.Fail(c, weekConflict(models.TutorPending))
			return
		}
		utils.Fail(c, err)
		return
	}

	svc.NotifyMusician(db, input.MusicianID, models.NotifyTutorRequest, "New tutor request",
		fmt.Sprintf("%s requested tutoring on %q.", user.FullName(), input.Topic), "/tutor/received")

	utils.Success(c, http.StatusCreated, "Tutor request sent successfully", gin.H{"request": req})
}

// CheckTutorRequestStatus reports the caller's request to a musician for the current week.
func CheckTutorRequestStatus(c *gin.Context) {
	musicianID, err := strconv.ParseUint(c.Query("musicianId"), 10, 64)
	if err != nil || musicianID == 0 {
		utils.Fail(c, utils.NewValidationError("musicianId is required"))
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	year, week, weekID := utils.WeekIdentifier(timeNow())

	var req models.TutorRequest
	err = db.Where("user_id = ? AND musician_id = ? AND year = ? AND week = ?", user.ID, musicianID, year, week).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(c, http.StatusOK, "No request sent this week", gin.H{
			"hasRequested":   false,
			"weekIdentifier": weekID,
		})
		return
	}
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Request status retrieved successfully", gin.H{
		"hasRequested":      true,
		"weekIdentifier":    weekID,
		"isFromCurrentWeek": req.InWeek(year, week),
		"request":           req,
	})
}

func listTutorRequests(c *gin.Context, q *gorm.DB) {
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		switch models.TutorRequestStatus(status) {
		case models.TutorPending, models.TutorAccepted, models.TutorRejected:
			q = q.Where("status = ?", status)
		default:
			utils.Fail(c, utils.NewValidationError("status must be one of: pending, accepted, rejected"))
			return
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var requests []models.TutorRequest
	if err := q.Order("requested_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&requests).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tutor requests retrieved successfully", gin.H{
		"requests":   requests,
		"pagination": p.Meta(total),
	})
}

func GetMyTutorRequests(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	listTutorRequests(c, db.Model(&models.TutorRequest{}).Where("user_id = ?", user.ID))
}

// GetReceivedTutorRequests lists requests addressed to the signed-in musician.
func GetReceivedTutorRequests(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	if user.MusicianID == nil {
		utils.Fail(c, utils.NewNotFoundError("Musician profile not found"))
		return
	}
	listTutorRequests(c, db.Model(&models.TutorRequest{}).Where("musician_id = ?", *user.MusicianID))
}

// UpdateTutorRequestStatus lets the addressed musician answer a pending request.
func UpdateTutorRequestStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id", "Tutor request")
	if !ok {
		return
	}
	var input TutorStatusInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	var req models.TutorRequest
	if err := db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(c, utils.NewNotFoundError("Tutor request not found"))
			return
		}
		utils.Fail(c, err)
		return
	}
	if !ownsMusicianID(user, req.MusicianID) {
		utils.Fail(c, utils.NewForbiddenError("You can only respond to your own requests"))
		return
	}
	if req.Status != models.TutorPending {
		utils.Fail(c, utils.NewValidationError("Request has already been " + string(req.Status)))
		return
	}

	now := timeNow()
	req.Status = input.Status
	req.RespondedAt = &now
	if err := db.Model(&req).Updates(map[string]interface{}{
		"status":       req.Status,
		"responded_at": now,
	}).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.Notify(db, req.UserID, models.NotifyTutorResponse, "Tutor request "+string(req.Status),
		fmt.Sprintf("Your request about %q was %s.", req.Topic, req.Status), "/tutor/my-requests")

	utils.Success(c, http.StatusOK, "Tutor request updated successfully", gin.H{"request": req})
}
