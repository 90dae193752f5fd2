package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/prince-music-backend/models"
)

func bookingBody(musicianID uint) map[string]interface{} {
	return map[string]interface{}{
		"musicianId":     musicianID,
		"numberOfPeople": "250-500",
		"programType":    "outdoor",
		"location":       map[string]interface{}{"address": "Marine Drive, Mumbai", "lat": 18.94, "lng": 72.82},
		"contactNumber":  map[string]interface{}{"phone": "98765-43210"},
		"programDate":    "2026-12-20",
	}
}

func TestBookProgram_Lifecycle(t *testing.T) {
	a := newApp(t)
	_, _, owner := a.musician(t, 10)
	_, _, stranger := a.musician(t, 11)
	customer, token := a.user(t, models.RoleUser, nil)
	_, otherUser := a.user(t, models.RoleUser, nil)

	res := a.do(t, http.MethodPost, "/api/v1/book-programs", token, bookingBody(10))
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	booking := res.data()["booking"].(map[string]interface{})
	id := booking["id"].(string)
	assert.Equal(t, "pending", booking["bookingStatus"])
	contact := booking["contactNumber"].(map[string]interface{})
	assert.Equal(t, "+91", contact["countryCode"])
	assert.Equal(t, "9876543210", contact["phone"])

	path := "/api/v1/book-programs/" + id
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, token, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, path, otherUser, nil).Code)

	res = a.do(t, http.MethodPatch, path, stranger, map[string]string{"bookingStatus": "accepted"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Not authorized to update this booking", res.Body["message"])
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, token, map[string]string{"bookingStatus": "accepted"}).Code)

	res = a.do(t, http.MethodPatch, path, owner, map[string]string{"bookingStatus": "accepted", "programType": "indoor"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.Equal(t, "accepted", res.data()["booking"].(map[string]interface{})["bookingStatus"])

	var notes int64
	a.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", customer.ID, models.NotifyBookingStatus).Count(&notes)
	assert.EqualValues(t, 1, notes)

	res = a.do(t, http.MethodGet, "/api/v1/book-programs", owner, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["bookings"], 1)
	res = a.do(t, http.MethodGet, "/api/v1/book-programs", stranger, nil)
	assert.Empty(t, res.data()["bookings"])
	res = a.do(t, http.MethodGet, "/api/v1/book-programs", otherUser, nil)
	assert.Empty(t, res.data()["bookings"])

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, path, otherUser, nil).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path, token, nil).Code)
}

func TestBookProgram_Validation(t *testing.T) {
	a := newApp(t)
	a.musician(t, 10)
	_, token := a.user(t, models.RoleUser, nil)

	tests := []struct {
		name   string
		status int
		mutate func(map[string]interface{})
	}{
		{"bad audience size", http.StatusBadRequest, func(b map[string]interface{}) { b["numberOfPeople"] = "huge" }},
		{"missing latitude", http.StatusBadRequest, func(b map[string]interface{}) {
			b["location"] = map[string]interface{}{"address": "Somewhere", "lng": 72.82}
		}},
		{"latitude out of range", http.StatusBadRequest, func(b map[string]interface{}) {
			b["location"] = map[string]interface{}{"lat": 123.0, "lng": 72.82}
		}},
		{"short phone", http.StatusBadRequest, func(b map[string]interface{}) {
			b["contactNumber"] = map[string]interface{}{"phone": "123"}
		}},
		{"bad date", http.StatusBadRequest, func(b map[string]interface{}) { b["programDate"] = "next friday" }},
		{"unknown musician", http.StatusNotFound, func(b map[string]interface{}) { b["musicianId"] = 99 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bookingBody(10)
			tt.mutate(body)
			res := a.do(t, http.MethodPost, "/api/v1/book-programs", token, body)
			assert.Equal(t, tt.status, res.Code, res.Raw.Body.String())
		})
	}

	var count int64
	a.db.Model(&models.BookProgram{}).Count(&count)
	assert.Zero(t, count)
}
