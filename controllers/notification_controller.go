package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// GetNotifications lists the caller's notifications, newest first.
func GetNotifications(c *gin.Context) {
	p, err := utils.ParsePagination(c, 20, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	userID := middleware.CurrentUserID(c)

	q := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var list []models.Notification
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&list).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Notifications retrieved successfully", gin.H{
		"notifications": list,
		"pagination":    p.Meta(total),
	})
}

// GetUnreadCount backs the bell badge on first load; sockets get pushes after that.
func GetUnreadCount(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := middleware.CurrentUserID(c)

	var count int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Unread count retrieved successfully", gin.H{"unreadCount": count})
}

func ownNotification(c *gin.Context, db *gorm.DB) (*models.Notification, bool) {
	id, ok := paramUUID(c, "id", "Notification")
	if !ok {
		return nil, false
	}
	var notif models.Notification
	err := db.First(&notif, "id = ? AND user_id = ?", id, middleware.CurrentUserID(c)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = utils.NewNotFoundError("Notification not found")
		}
		utils.Fail(c, err)
		return nil, false
	}
	return &notif, true
}

func MarkNotificationAsRead(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	notif, ok := ownNotification(c, db)
	if !ok {
		return
	}

	now := timeNow()
	if err := db.Model(notif).Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	notif.IsRead = true
	notif.ReadAt = &now

	// badge realtime
	svc.PushBadge(db, notif.UserID)

	utils.Success(c, http.StatusOK, "Notification marked as read", gin.H{"notification": notif})
}

func MarkAllAsRead(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	userID := middleware.CurrentUserID(c)

	now := timeNow()
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		utils.Fail(c, res.Error)
		return
	}

	svc.PushBadge(db, userID)

	utils.Success(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": res.RowsAffected})
}

func DeleteNotification(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	notif, ok := ownNotification(c, db)
	if !ok {
		return
	}
	if err := db.Delete(notif).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.PushBadge(db, notif.UserID)

	utils.Success(c, http.StatusOK, "Notification deleted successfully", nil)
}
