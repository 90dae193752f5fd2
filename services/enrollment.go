package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
)

// ExpireEnrollments deactivates every active enrollment whose access window
// ended at or before now. Running it again without new expiries changes nothing.
func ExpireEnrollments(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}

// NotifyExpiringEnrollments warns users whose enrollment ends within days.
// A user gets at most one warning per course in that window.
func (c *Container) NotifyExpiringEnrollments(ctx context.Context, db *gorm.DB, now time.Time, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	var soon []models.Enrollment
	if err := db.WithContext(ctx).Preload("Course").
		Where("is_active = ? AND expires_at > ? AND expires_at <= ?", true, now, now.AddDate(0, 0, days)).
		Find(&soon).Error; err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range soon {
		url := "/courses/" + e.CourseID.String()
		var existing int64
		if err := db.WithContext(ctx).Model(&models.Notification{}).
			Where("user_id = ? AND type = ? AND related_url = ? AND created_at > ?",
				e.UserID, models.NotifyEnrollmentExpiry, url, now.AddDate(0, 0, -days)).
			Count(&existing).Error; err != nil {
			return sent, err
		}
		if existing > 0 {
			continue
		}

		title := "your course"
		if e.Course != nil {
			title = e.Course.Title
		}
		left := int(math.Ceil(e.ExpiresAt.Sub(now).Hours() / 24))
		c.Notify(db.WithContext(ctx), e.UserID, models.NotifyEnrollmentExpiry,
			"Enrollment expiring soon",
			fmt.Sprintf("Your access to %s expires in %d day(s).", title, left),
			url)
		sent++
	}
	return sent, nil
}

// RunCleanup performs one sweep plus expiry warnings.
func (c *Container) RunCleanup(ctx context.Context) (int64, error) {
	now := time.Now()
	removed, err := ExpireEnrollments(ctx, c.DB, now)
	if err != nil {
		return 0, fmt.Errorf("expire enrollments: %w", err)
	}
	notified, err := c.NotifyExpiringEnrollments(ctx, c.DB, now, c.Config.Cleanup.NotifyDays)
	if err != nil {
		c.Logger.Warn("expiry notifications", zap.Error(err))
	}
	if removed > 0 || notified > 0 {
		c.Logger.Info("enrollment cleanup",
			zap.Int64("expired", removed), zap.Int("notified", notified))
	}
	return removed, nil
}

// StartCleanupJob runs RunCleanup immediately and then every interval
// until ctx is cancelled. A non-positive interval disables it.
func (c *Container) StartCleanupJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if _, err := c.RunCleanup(ctx); err != nil {
		c.Logger.Error("cleanup job", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.RunCleanup(ctx); err != nil {
					c.Logger.Error("cleanup job", zap.Error(err))
				}
			}
		}
	}()
	c.Logger.Info("cleanup job started", zap.Duration("interval", interval))
}
