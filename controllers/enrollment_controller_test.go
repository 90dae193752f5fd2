package controllers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/vnkhanh/prince-music-backend/controllers"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
)

func TestEnroll_FreeCourse(t *testing.T) {
	a := newApp(t)
	start := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	defer controllers.SetClock(fixedClock(start))()

	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Sight Reading", "Theory", models.CourseFree, 0)
	_, token := a.user(t, models.RoleUser, nil)

	res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	e := res.data()["enrollment"].(map[string]interface{})
	assert.Equal(t, "free", e["enrollmentType"])
	assert.Equal(t, false, e["isExpired"])
	assert.EqualValues(t, 90, e["daysRemaining"])

	var stored models.Enrollment
	require.NoError(t, a.db.First(&stored, "course_id = ?", course.ID).Error)
	assert.True(t, stored.ExpiresAt.Equal(time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)))

	res = a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "You are already enrolled in this course", res.Body["message"])

	var reloaded models.Course
	require.NoError(t, a.db.First(&reloaded, "id = ?", course.ID).Error)
	assert.Equal(t, 1, reloaded.EnrollmentCount)

	a.svc.Wait()
	var notes int64
	a.db.Model(&models.Notification{}).Where("type = ?", models.NotifyEnrollment).Count(&notes)
	assert.EqualValues(t, 1, notes)
}

func TestEnroll_Rejections(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Retired Course", "Theory", models.CourseFree, 0)
	require.NoError(t, a.db.Model(course).UpdateColumn("is_active", false).Error)
	_, token := a.user(t, models.RoleUser, nil)

	res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Course is not available for enrollment", res.Body["message"])

	res = a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/1b4e28ba-2fa1-41d2-883f-0016d3cca427", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestEnroll_PaidCourse(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Studio Mixing", "Production", models.CoursePaid, 150000)
	_, token := a.user(t, models.RoleUser, nil)

	t.Run("without gateway", func(t *testing.T) {
		res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, map[string]interface{}{
			"payment": map[string]interface{}{"amount": 1, "currency": "IDR", "paymentMethod": "card", "transactionId": "tx-1"},
		})
		require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
		p := res.data()["enrollment"].(map[string]interface{})["payment"].(map[string]interface{})
		assert.Equal(t, "completed", p["status"])
		assert.EqualValues(t, 150000, p["amount"])
		assert.Equal(t, "tx-1", p["transactionId"])
	})

	_, other := a.user(t, models.RoleUser, nil)

	t.Run("gateway failure", func(t *testing.T) {
		a.svc.Payment = &fakePayment{err: errors.New("connection refused")}
		res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), other, nil)
		assert.Equal(t, http.StatusBadGateway, res.Code)
		assert.Equal(t, "Payment gateway is unavailable", res.Body["message"])
	})

	t.Run("gateway session", func(t *testing.T) {
		a.svc.Payment = &fakePayment{}
		res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), other, nil)
		require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
		e := res.data()["enrollment"].(map[string]interface{})
		p := e["payment"].(map[string]interface{})
		assert.Equal(t, "pending", p["status"])
		assert.Equal(t, "snap-"+e["id"].(string), p["snapToken"])
		assert.Equal(t, "paid", e["enrollmentType"])
	})
}

func TestMyCoursesAndUnenroll(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	free := a.course(t, m, "Ear Training", "Theory", models.CourseFree, 0)
	paid := a.course(t, m, "Jazz Harmony", "Theory", models.CoursePaid, 99)
	_, token := a.user(t, models.RoleUser, nil)

	for _, id := range []string{free.ID.String(), paid.ID.String()} {
		require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+id, token, nil).Code)
	}

	res := a.do(t, http.MethodGet, "/api/v1/enrollments/my-courses", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	counts := res.data()["counts"].(map[string]interface{})
	assert.EqualValues(t, 2, counts["total"])
	assert.EqualValues(t, 1, counts["free"])
	assert.EqualValues(t, 1, counts["paid"])

	res = a.do(t, http.MethodDelete, "/api/v1/enrollments/unenroll/"+free.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())

	var reloaded models.Course
	require.NoError(t, a.db.First(&reloaded, "id = ?", free.ID).Error)
	assert.Zero(t, reloaded.EnrollmentCount)

	res = a.do(t, http.MethodDelete, "/api/v1/enrollments/unenroll/"+free.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = a.do(t, http.MethodGet, "/api/v1/enrollments/my-courses", token, nil)
	assert.EqualValues(t, 1, res.data()["counts"].(map[string]interface{})["total"])

	// an inactive enrollment is reactivated rather than duplicated
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+free.ID.String(), token, nil).Code)
	var rows int64
	a.db.Model(&models.Enrollment{}).Where("course_id = ?", free.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)

	res = a.do(t, http.MethodGet, "/api/v1/enrollments/stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	stats := res.data()["stats"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total"])
	assert.EqualValues(t, 2, stats["active"])
	assert.EqualValues(t, 0, stats["expired"])
}

func TestUpdateProgress(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Scales", "Theory", models.CourseFree, 0)
	require.NoError(t, a.db.Model(course).Update("course_content", datatypes.JSONSlice[models.Lesson]{
		{ID: "l1", Title: "Major"}, {ID: "l2", Title: "Minor"}, {ID: "l3", Title: "Modes"}, {ID: "l4", Title: "Blues"},
	}).Error)
	_, token := a.user(t, models.RoleUser, nil)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil).Code)

	path := "/api/v1/enrollments/course/" + course.ID.String() + "/progress"
	res := a.do(t, http.MethodPut, path, token, map[string]interface{}{"completedLessonId": "l1"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.EqualValues(t, 25, res.data()["progress"].(map[string]interface{})["completionPercentage"])

	// repeating a lesson does not count twice
	res = a.do(t, http.MethodPut, path, token, map[string]interface{}{"completedLessonId": "l1"})
	assert.EqualValues(t, 25, res.data()["progress"].(map[string]interface{})["completionPercentage"])

	res = a.do(t, http.MethodPut, path, token, map[string]interface{}{"completionPercentage": 140})
	assert.EqualValues(t, 100, res.data()["progress"].(map[string]interface{})["completionPercentage"])

	require.NoError(t, a.db.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)
	res = a.do(t, http.MethodPut, path, token, map[string]interface{}{"completedLessonId": "l2"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Your enrollment has expired", res.Body["message"])
}

func TestCleanupExpiredEnrollments(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	c1 := a.course(t, m, "Old Course One", "Theory", models.CourseFree, 0)
	c2 := a.course(t, m, "Old Course Two", "Theory", models.CourseFree, 0)
	c3 := a.course(t, m, "Fresh Course", "Theory", models.CourseFree, 0)
	_, token := a.user(t, models.RoleUser, nil)
	_, adminToken := a.user(t, models.RoleAdmin, nil)

	for _, c := range []*models.Course{c1, c2, c3} {
		require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+c.ID.String(), token, nil).Code)
	}
	require.NoError(t, a.db.Model(&models.Enrollment{}).Where("course_id IN ?", []string{c1.ID.String(), c2.ID.String()}).
		Update("expires_at", time.Now().AddDate(0, 0, -1)).Error)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/v1/enrollments/admin/cleanup-expired", token, nil).Code)

	res := a.do(t, http.MethodPost, "/api/v1/enrollments/admin/cleanup-expired", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.EqualValues(t, 2, res.data()["removedCount"])

	res = a.do(t, http.MethodPost, "/api/v1/enrollments/admin/cleanup-expired", adminToken, nil)
	assert.EqualValues(t, 0, res.data()["removedCount"])

	var active int64
	a.db.Model(&models.Enrollment{}).Where("is_active = ?", true).Count(&active)
	assert.EqualValues(t, 1, active)
}

func TestGetEnrollment_UsesHandlerClockAndHidesInactive(t *testing.T) {
	a := newApp(t)
	start := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	restore := controllers.SetClock(fixedClock(start))
	defer restore()

	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Chord Charts", "Theory", models.CourseFree, 0)
	_, token := a.user(t, models.RoleUser, nil)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil).Code)

	path := "/api/v1/enrollments/course/" + course.ID.String()
	controllers.SetClock(fixedClock(start.AddDate(0, 0, 30)))
	res := a.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	e := res.data()["enrollment"].(map[string]interface{})
	assert.Equal(t, false, e["isExpired"])
	assert.EqualValues(t, 59, e["daysRemaining"])

	controllers.SetClock(fixedClock(start.AddDate(0, 4, 0)))
	res = a.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	e = res.data()["enrollment"].(map[string]interface{})
	assert.Equal(t, true, e["isExpired"])
	assert.EqualValues(t, 0, e["daysRemaining"])
	res = a.do(t, http.MethodPut, path+"/progress", token, map[string]interface{}{"completionPercentage": 50})
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = a.do(t, http.MethodGet, "/api/v1/enrollments/my-courses", token, nil)
	assert.EqualValues(t, 0, res.data()["counts"].(map[string]interface{})["total"])

	controllers.SetClock(fixedClock(start))
	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/v1/enrollments/unenroll/"+course.ID.String(), token, nil).Code)
	res = a.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Enrollment not found", res.Body["message"])
}

func midtransCallback(orderID, transactionStatus string) map[string]interface{} {
	const statusCode, gross = "200", "150000.00"
	return map[string]interface{}{
		"order_id":           orderID,
		"status_code":        statusCode,
		"gross_amount":       gross,
		"signature_key":      services.NotificationSignature(orderID, statusCode, gross, testServerKey),
		"transaction_status": transactionStatus,
		"transaction_id":     "mt-" + transactionStatus,
		"payment_type":       "bank_transfer",
	}
}

func TestMidtransNotification(t *testing.T) {
	a := newApp(t)
	a.svc.Payment = &fakePayment{}
	m, _, _ := a.musician(t, 1)
	course := a.course(t, m, "Studio Mixing", "Production", models.CoursePaid, 150000)
	buyer, token := a.user(t, models.RoleUser, nil)
	_, quitterToken := a.user(t, models.RoleUser, nil)
	const hook = "/api/v1/payments/midtrans/notification"

	enroll := func(token string) string {
		t.Helper()
		res := a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+course.ID.String(), token, nil)
		require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
		return res.data()["enrollment"].(map[string]interface{})["id"].(string)
	}
	accessible := func(token string) interface{} {
		t.Helper()
		res := a.do(t, http.MethodGet, "/api/v1/enrollments/my-courses", token, nil)
		require.Equal(t, http.StatusOK, res.Code)
		return res.data()["counts"].(map[string]interface{})["total"]
	}

	orderID := enroll(token)
	assert.EqualValues(t, 0, accessible(token))
	res := a.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.String(), token, nil)
	assert.Equal(t, false, res.data()["isEnrolled"])
	res = a.do(t, http.MethodPut, "/api/v1/enrollments/course/"+course.ID.String()+"/progress", token,
		map[string]interface{}{"completionPercentage": 10})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Payment for this enrollment is still pending", res.Body["message"])
	res = a.do(t, http.MethodGet, "/api/v1/enrollments/stats", token, nil)
	assert.EqualValues(t, 1, res.data()["stats"].(map[string]interface{})["pendingPayment"])

	forged := midtransCallback(orderID, "settlement")
	forged["signature_key"] = services.NotificationSignature(orderID, "200", "150000.00", "wrong-key")
	res = a.do(t, http.MethodPost, hook, "", forged)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.EqualValues(t, 0, accessible(token))

	res = a.do(t, http.MethodPost, hook, "", midtransCallback(orderID, "settlement"))
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.Equal(t, models.PaymentCompleted, res.data()["paymentStatus"])
	assert.EqualValues(t, 1, accessible(token))

	var paid models.Enrollment
	require.NoError(t, a.db.First(&paid, "id = ?", orderID).Error)
	assert.Equal(t, "mt-settlement", paid.Payment.TransactionID)
	assert.Equal(t, "bank_transfer", paid.Payment.PaymentMethod)
	require.NotNil(t, paid.Payment.PaymentDate)

	var notes int64
	a.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", buyer.ID, models.NotifyPayment).Count(&notes)
	assert.EqualValues(t, 1, notes)

	// replays are acknowledged without changes
	res = a.do(t, http.MethodPost, hook, "", midtransCallback(orderID, "settlement"))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "no state change", res.data()["reason"])

	lapsed := enroll(quitterToken)
	res = a.do(t, http.MethodPost, hook, "", midtransCallback(lapsed, "expire"))
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	var released models.Enrollment
	require.NoError(t, a.db.First(&released, "id = ?", lapsed).Error)
	assert.False(t, released.IsActive)
	assert.Equal(t, models.PaymentExpired, released.Payment.Status)

	var reloaded models.Course
	require.NoError(t, a.db.First(&reloaded, "id = ?", course.ID).Error)
	assert.Equal(t, 1, reloaded.EnrollmentCount)

	res = a.do(t, http.MethodPost, hook, "", midtransCallback("1b4e28ba-2fa1-41d2-883f-0016d3cca427", "settlement"))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "unknown order", res.data()["reason"])
}
