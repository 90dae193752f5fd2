package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/prince-music-backend/models"
)

func TestNotations_Visibility(t *testing.T) {
	a := newApp(t)
	_, _, musicianToken := a.musician(t, 2)
	_, _, otherMusician := a.musician(t, 3)
	alice, aliceToken := a.user(t, models.RoleUser, nil)
	_, bobToken := a.user(t, models.RoleUser, nil)
	_, adminToken := a.user(t, models.RoleAdmin, nil)

	res := a.do(t, http.MethodPost, "/api/v1/notations", aliceToken, map[string]interface{}{
		"musicianId": 2, "songName": "Raindrops", "videoUrl": "https://videos.example.com/raindrops",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	id := res.data()["notation"].(map[string]interface{})["id"].(string)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/notations", bobToken, map[string]interface{}{
		"musicianId": 3, "songName": "Moonlight",
	}).Code)

	res = a.do(t, http.MethodPost, "/api/v1/notations", aliceToken, map[string]interface{}{
		"musicianId": 2, "songName": "Broken", "audioUrl": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	total := func(token, query string) interface{} {
		res := a.do(t, http.MethodGet, "/api/v1/notations"+query, token, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
		return res.data()["pagination"].(map[string]interface{})["total"]
	}
	assert.EqualValues(t, 1, total(aliceToken, ""))
	assert.EqualValues(t, 1, total(bobToken, ""))
	assert.EqualValues(t, 1, total(musicianToken, ""))
	assert.EqualValues(t, 0, total(musicianToken, "?myNotations=true"))
	assert.EqualValues(t, 2, total(adminToken, ""))
	assert.EqualValues(t, 1, total(adminToken, "?musicianId=3"))

	path := "/api/v1/notations/" + id + "/status"
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, otherMusician, map[string]string{"status": "completed"}).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, aliceToken, map[string]string{"status": "completed"}).Code)

	res = a.do(t, http.MethodPatch, path, musicianToken, map[string]string{"status": "in-progress"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.Equal(t, "in-progress", res.data()["notation"].(map[string]interface{})["status"])
	assert.EqualValues(t, 1, total(musicianToken, "?status=in-progress"))

	var notes int64
	a.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", alice.ID, models.NotifyNotation).Count(&notes)
	assert.EqualValues(t, 1, notes)
}

func TestFeedback(t *testing.T) {
	a := newApp(t)
	_, musicianUser, _ := a.musician(t, 9)

	body := map[string]interface{}{
		"musicianId":  9,
		"title":       "Great show",
		"description": "Loved the encore.",
		"firstName":   "Ravi",
		"lastName":    "Kumar",
		"email":       "Ravi@Example.com",
	}
	res := a.do(t, http.MethodPost, "/api/v1/feedback", "", body)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	assert.Equal(t, "ravi@example.com", res.data()["feedback"].(map[string]interface{})["email"])

	body["musicianId"] = 77
	res = a.do(t, http.MethodPost, "/api/v1/feedback", "", body)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Musician not found", res.Body["message"])

	res = a.do(t, http.MethodGet, "/api/v1/feedback?musicianId=9", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["items"], 1)

	var notes int64
	a.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", musicianUser.ID, models.NotifyFeedback).Count(&notes)
	assert.EqualValues(t, 1, notes)
}

func TestFAQs(t *testing.T) {
	a := newApp(t)
	_, adminToken := a.user(t, models.RoleAdmin, nil)
	_, userToken := a.user(t, models.RoleUser, nil)

	single := map[string]interface{}{"question": "Do you teach online?", "answer": "Yes, over video calls."}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/v1/faqs", userToken, single).Code)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/faqs", adminToken, single).Code)

	res := a.do(t, http.MethodPost, "/api/v1/faqs/bulk", adminToken, map[string]interface{}{
		"faqs": []map[string]interface{}{
			{"question": "How long is a lesson?", "answer": "Sixty minutes."},
			{"question": "Can I reschedule?", "answer": "Up to a day ahead.", "isActive": false},
		},
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	assert.EqualValues(t, 2, res.data()["count"])

	res = a.do(t, http.MethodPost, "/api/v1/faqs/bulk", adminToken, map[string]interface{}{
		"faqs": []map[string]interface{}{{"question": "Valid question?", "answer": "ok"}, {"question": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	count := func(query string) interface{} {
		res := a.do(t, http.MethodGet, "/api/v1/faqs"+query, "", nil)
		require.Equal(t, http.StatusOK, res.Code)
		return res.data()["pagination"].(map[string]interface{})["total"]
	}
	assert.EqualValues(t, 3, count(""))
	assert.EqualValues(t, 2, count("?isActive=true"))
	assert.EqualValues(t, 1, count("?isActive=false"))
}

func TestAdvertisements(t *testing.T) {
	a := newApp(t)
	_, adminToken := a.user(t, models.RoleAdmin, nil)

	res := a.do(t, http.MethodPost, "/api/v1/advertisements", adminToken, map[string]interface{}{
		"title": "Summer Camp", "description": "Two weeks of ensemble playing", "photoUrl": "https://images.example.com/camp.jpg",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())

	res = a.do(t, http.MethodPost, "/api/v1/advertisements", adminToken, map[string]interface{}{
		"title": "Bad Photo", "description": "Broken link", "photoUrl": "camp.jpg",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = a.do(t, http.MethodGet, "/api/v1/advertisements?limit=5", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["items"], 1)
	assert.EqualValues(t, 5, res.data()["pagination"].(map[string]interface{})["limit"])
}
