package controllers

import (
	"errors"
	"fmt"
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

// MidtransNotificationInput is the HTTP notification Midtrans posts when a
// transaction changes state. OrderID is the enrollment id.
type MidtransNotificationInput struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// MidtransNotification settles or releases a paid enrollment. Only a pending
// payment can settle or fail, and only a completed one can be refunded;
// anything else is acknowledged without changes so the gateway stops retrying.
func MidtransNotification(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc.Payment == nil {
		utils.Fail(c, utils.NewNotFoundError("Payment gateway is not configured"))
		return
	}
	var input MidtransNotificationInput
	if !bindJSON(c, &input) {
		return
	}
	if !svc.Payment.VerifyNotification(input.OrderID, input.StatusCode, input.GrossAmount, input.SignatureKey) {
		utils.Fail(c, utils.NewUnauthorizedError("Invalid signature"))
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	logger := svc.Logger.With(zap.String("orderId", input.OrderID), zap.String("transactionStatus", input.TransactionStatus))

	ignored := func(reason string) {
		logger.Info("payment notification ignored", zap.String("reason", reason))
		utils.Success(c, http.StatusOK, "Notification ignored", gin.H{"reason": reason})
	}

	id, err := uuid.Parse(input.OrderID)
	if err != nil {
		ignored("unknown order")
		return
	}
	var e models.Enrollment
	if err := db.Preload("Course").First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ignored("unknown order")
			return
		}
		utils.Fail(c, err)
		return
	}

	status := services.MidtransStatus(input.TransactionStatus, input.FraudStatus)
	settles := e.Payment.Status == models.PaymentPending && status == models.PaymentCompleted
	releases := (e.Payment.Status == models.PaymentPending &&
		(status == models.PaymentFailed || status == models.PaymentCancelled || status == models.PaymentExpired)) ||
		(e.Payment.Status == models.PaymentCompleted && status == models.PaymentRefunded)
	if !settles && !releases {
		ignored("no state change")
		return
	}

	now := timeNow()
	updates := map[string]interface{}{"payment_status": status}
	if input.TransactionID != "" {
		updates["payment_transaction_id"] = input.TransactionID
	}
	if input.PaymentType != "" {
		updates["payment_payment_method"] = input.PaymentType
	}
	if settles {
		updates["payment_payment_date"] = now
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if releases && e.IsActive {
			updates["is_active"] = false
			if err := tx.Model(&models.Course{}).
				Where("id = ? AND enrollment_count > 0", e.CourseID).
				UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Enrollment{}).Where("id = ?", e.ID).Updates(updates).Error
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	title := "Payment confirmed"
	message := "Your payment was received. You now have access to the course."
	if releases {
		title = "Payment not completed"
		message = fmt.Sprintf("Your payment is %s and the enrollment was cancelled.", status)
	}
	if e.Course != nil {
		message = fmt.Sprintf("%s (%s)", message, e.Course.Title)
	}
	svc.Notify(db, e.UserID, models.NotifyPayment, title, message, "/courses/"+e.CourseID.String())

	logger.Info("payment status updated", zap.String("status", status))
	utils.Success(c, http.StatusOK, "Notification processed", gin.H{
		"enrollmentId":  e.ID,
		"paymentStatus": status,
	})
}
