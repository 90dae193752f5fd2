package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// PaymentInput carries the client's payment reference. The amount is always
// the course price.
type PaymentInput struct {
	Currency      string  `json:"currency" binding:"omitempty,max=10"`
	PaymentMethod string  `json:"paymentMethod" binding:"omitempty,max=30"`
	TransactionID string  `json:"transactionId" binding:"omitempty,max=100"`
}

type EnrollInput struct {
	Payment *PaymentInput `json:"payment"`
}

type ProgressInput struct {
	CompletedLessonID    *string  `json:"completedLessonId"`
	CompletionPercentage *float64 `json:"completionPercentage"`
}

// checkout fills the payment snapshot of a paid enrollment, through the
// gateway when one is configured.
func checkout(c *gin.Context, e *models.Enrollment, course *models.Course, input *PaymentInput) error {
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)
	now := timeNow()

	if svc.Payment != nil {
		session, err := svc.Payment.CreateTransaction(c.Request.Context(), services.PaymentRequest{
			OrderID:  e.ID.String(),
			Amount:   course.Price,
			ItemID:   course.ID.String(),
			ItemName: course.Title,
			Category: course.Category,
			Customer: services.Customer{
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
				Phone:     deref(user.PhoneNumber),
			},
		})
		if err != nil {
			svc.Logger.Error("create payment", zap.String("orderId", e.ID.String()), zap.Error(err))
			return utils.NewAppError(http.StatusBadGateway, "Payment gateway is unavailable")
		}
		e.Payment = models.Payment{
			Amount:        course.Price,
			Currency:      "IDR",
			PaymentMethod: "midtrans",
			TransactionID: e.ID.String(),
			Status:        models.PaymentPending,
			SnapToken:     session.Token,
			RedirectURL:   session.RedirectURL,
		}
		return nil
	}

	e.Payment = models.Payment{
		Amount:      course.Price,
		Status:      models.PaymentCompleted,
		PaymentDate: &now,
	}
	if input != nil {
		e.Payment.Currency = input.Currency
		e.Payment.PaymentMethod = input.PaymentMethod
		e.Payment.TransactionID = input.TransactionID
	}
	return nil
}

// Enroll grants three months of access. An inactive earlier enrollment is
// reactivated; an active one is a conflict.
func Enroll(c *gin.Context) {
	courseID, ok := paramUUID(c, "courseId", "Course")
	if !ok {
		return
	}
	var input EnrollInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	var course models.Course
	if err := db.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(c, utils.NewNotFoundError("Course not found"))
			return
		}
		utils.Fail(c, err)
		return
	}
	if !course.IsActive {
		utils.Fail(c, utils.NewValidationError("Course is not available for enrollment"))
		return
	}

	var enrollment models.Enrollment
	isNew := false
	err := db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error
	switch {
	case err == nil && enrollment.IsActive:
		utils.Fail(c, utils.NewConflictError("You are already enrolled in this course"))
		return
	case err == nil:
		// reactivated below
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = models.Enrollment{ID: uuid.New(), UserID: user.ID, CourseID: course.ID}
		isNew = true
	default:
		utils.Fail(c, err)
		return
	}

	now := timeNow()
	enrollment.EnrolledAt = now
	enrollment.ExpiresAt = models.ExpiryFor(now)
	enrollment.IsActive = true
	enrollment.Progress = models.Progress{LastAccessedAt: &now}
	enrollment.EnrollmentType = models.EnrollmentFree
	enrollment.Payment = models.Payment{}
	if !course.IsFree() {
		enrollment.EnrollmentType = models.EnrollmentPaid
		if err := checkout(c, &enrollment, &course, input.Payment); err != nil {
			utils.Fail(c, err)
			return
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		write := tx.Save
		if isNew {
			write = tx.Create
		}
		if err := write(&enrollment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Course{}).Where("id = ?", course.ID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
	})
	if err != nil {
		if isDuplicate(err) {
			utils.Fail(c, utils.NewConflictError("You are already enrolled in this course"))
			return
		}
		utils.Fail(c, err)
		return
	}
	enrollment.Evaluate(now)
	enrollment.Course = &course

	var owner models.Musician
	if err := db.Select("musician_id").First(&owner, "id = ?", course.MusicianRef).Error; err == nil {
		svc.NotifyMusician(db, owner.MusicianID, models.NotifyEnrollment, "New enrollment",
			fmt.Sprintf("%s enrolled in %s.", user.FullName(), course.Title), "/courses/"+course.ID.String())
	}

	utils.Success(c, http.StatusCreated, "Successfully enrolled in course", gin.H{"enrollment": enrollment})
}

func isDuplicate(err error) bool {
	return middleware.Translate(err).Status == http.StatusConflict
}

func GetMyCourses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	now := timeNow()
	var enrollments []models.Enrollment
	if err := db.Preload("Course.Musician").
		Scopes(models.Accessible(now)).
		Where("user_id = ?", user.ID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	counts := gin.H{"total": len(enrollments), "free": 0, "paid": 0}
	free, paid := 0, 0
	for i, e := range enrollments {
		enrollments[i].Evaluate(now)
		if e.EnrollmentType == models.EnrollmentFree {
			free++
		} else {
			paid++
		}
	}
	counts["free"], counts["paid"] = free, paid

	utils.Success(c, http.StatusOK, "Enrolled courses retrieved successfully", gin.H{
		"enrollments": enrollments,
		"counts":      counts,
	})
}

// findEnrollment loads the caller's active enrollment for :courseId with its
// expiry fields evaluated against the handler clock.
func findEnrollment(c *gin.Context, db *gorm.DB) (*models.Enrollment, error) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		return nil, utils.NewNotFoundError("Enrollment not found")
	}
	user := middleware.CurrentUser(c)
	var e models.Enrollment
	if err := db.Preload("Course").
		Where("user_id = ? AND course_id = ? AND is_active = ?", user.ID, courseID, true).
		First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Enrollment not found")
		}
		return nil, err
	}
	e.Evaluate(timeNow())
	return &e, nil
}

func GetEnrollment(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	e, err := findEnrollment(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Enrollment retrieved successfully", gin.H{"enrollment": e})
}

// UpdateProgress records a completed lesson and/or an explicit percentage.
// Without a percentage it is derived from the course's lesson count.
func UpdateProgress(c *gin.Context) {
	var input ProgressInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	e, err := findEnrollment(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	now := timeNow()
	if e.AwaitingPayment() {
		utils.Fail(c, utils.NewForbiddenError("Payment for this enrollment is still pending"))
		return
	}
	if e.IsExpired {
		utils.Fail(c, utils.NewForbiddenError("Your enrollment has expired"))
		return
	}

	if input.CompletedLessonID != nil && *input.CompletedLessonID != "" {
		seen := false
		for _, id := range e.Progress.CompletedLessons {
			if id == *input.CompletedLessonID {
				seen = true
				break
			}
		}
		if !seen {
			e.Progress.CompletedLessons = append(e.Progress.CompletedLessons, *input.CompletedLessonID)
		}
	}
	switch {
	case input.CompletionPercentage != nil:
		e.Progress.CompletionPercentage = math.Max(0, math.Min(100, *input.CompletionPercentage))
	case e.Course != nil && len(e.Course.CourseContent) > 0:
		pct := float64(len(e.Progress.CompletedLessons)) / float64(len(e.Course.CourseContent)) * 100
		e.Progress.CompletionPercentage = math.Min(100, math.Round(pct*100)/100)
	}
	e.Progress.LastAccessedAt = &now

	if err := db.Model(&models.Enrollment{}).Where("id = ?", e.ID).Updates(map[string]interface{}{
		"progress_completed_lessons":     e.Progress.CompletedLessons,
		"progress_completion_percentage": e.Progress.CompletionPercentage,
		"progress_last_accessed_at":      now,
	}).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Progress updated successfully", gin.H{"progress": e.Progress})
}

// Unenroll deactivates the enrollment and releases its seat count.
func Unenroll(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	e, err := findEnrollment(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Enrollment{}).Where("id = ?", e.ID).
			UpdateColumn("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Course{}).
			Where("id = ? AND enrollment_count > 0", e.CourseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - 1")).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Successfully unenrolled from course", nil)
}

func GetEnrollmentStats(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	now := timeNow()

	count := func(where string, args ...interface{}) (int64, error) {
		var n int64
		err := db.Model(&models.Enrollment{}).
			Where("user_id = ?", user.ID).Where(where, args...).
			Count(&n).Error
		return n, err
	}

	stats := gin.H{}
	for _, s := range []struct {
		key   string
		where string
		args  []interface{}
	}{
		{"total", "1 = 1", nil},
		{"active", "is_active = ? AND expires_at > ? AND COALESCE(payment_status, '') <> ?",
			[]interface{}{true, now, models.PaymentPending}},
		{"pendingPayment", "is_active = ? AND payment_status = ?", []interface{}{true, models.PaymentPending}},
		{"expired", "expires_at <= ?", []interface{}{now}},
		{"free", "enrollment_type = ?", []interface{}{models.EnrollmentFree}},
		{"paid", "enrollment_type = ?", []interface{}{models.EnrollmentPaid}},
	} {
		n, err := count(s.where, s.args...)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		stats[s.key] = n
	}
	utils.Success(c, http.StatusOK, "Enrollment statistics retrieved successfully", gin.H{"stats": stats})
}

// CleanupExpiredEnrollments runs the expiry sweep on demand.
func CleanupExpiredEnrollments(c *gin.Context) {
	svc := middleware.GetServices(c)
	removed, err := svc.RunCleanup(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Expired enrollments cleaned up", gin.H{"removedCount": removed})
}
