package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/prince-music-backend/models"
)

func sectionBody(title string, items ...string) map[string]interface{} {
	content := make([]map[string]string, 0, len(items))
	for _, it := range items {
		content = append(content, map[string]string{"title": it, "url": "https://videos.example.com/" + it})
	}
	return map[string]interface{}{"title": title, "content": content}
}

func TestSectionContent_Accumulates(t *testing.T) {
	a := newApp(t)
	_, _, token := a.musician(t, 4)

	res := a.do(t, http.MethodPost, "/api/v1/portfolio/section/content", token, sectionBody("Live Sets", "set-one"))
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())

	res = a.do(t, http.MethodPost, "/api/v1/portfolio/section/content", token, sectionBody("Live Sets", "set-two", "set-three"))
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	content := res.data()["section"].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 3)
	assert.Equal(t, "set-three", content[2].(map[string]interface{})["title"])
	assert.EqualValues(t, 2, content[2].(map[string]interface{})["order"])

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/portfolio/section/content", token, sectionBody("Covers", "cover-one")).Code)

	res = a.do(t, http.MethodGet, "/api/v1/portfolio/4/sections", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	sections := res.data()["sections"].([]interface{})
	require.Len(t, sections, 2)
	assert.Equal(t, "Live Sets", sections[0].(map[string]interface{})["title"])

	var count int64
	a.db.Model(&models.Section{}).Where("title = ?", "Live Sets").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSectionContent_OwnerOnly(t *testing.T) {
	a := newApp(t)
	_, _, owner := a.musician(t, 4)
	_, _, intruder := a.musician(t, 8)
	_, adminToken := a.user(t, models.RoleAdmin, nil)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/portfolio/section/content", owner, sectionBody("Originals", "song-a", "song-b")).Code)

	path := "/api/v1/portfolio/4/section/Originals/content"
	replace := map[string]interface{}{"content": []map[string]string{{"title": "song-c", "url": "https://videos.example.com/song-c"}}}

	res := a.do(t, http.MethodPut, path, intruder, replace)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Access denied. You can only access your own resources.", res.Body["message"])
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPut, path, "", replace).Code)

	res = a.do(t, http.MethodPut, path, owner, replace)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.Len(t, res.data()["section"].(map[string]interface{})["content"], 1)

	res = a.do(t, http.MethodPut, "/api/v1/portfolio/4/section/Missing/content", owner, replace)
	assert.Equal(t, http.StatusNotFound, res.Code)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/v1/portfolio/4/section/Originals", adminToken, nil).Code)
	res = a.do(t, http.MethodGet, "/api/v1/portfolio/4", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.data()["sections"])

	// appending to a deleted section brings it back
	res = a.do(t, http.MethodPost, "/api/v1/portfolio/section/content", owner, sectionBody("Originals", "song-d"))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["section"].(map[string]interface{})["content"], 2)
}

func TestPortfolioLookup(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 12)

	res := a.do(t, http.MethodGet, "/api/v1/portfolio/portfolio/email/"+m.Profile.Mail, "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.EqualValues(t, 12, res.data()["musician"].(map[string]interface{})["musicianId"])

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/portfolio/404", "", nil).Code)
	res = a.do(t, http.MethodGet, "/api/v1/portfolio/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid musician ID", res.Body["message"])
}

func TestAddUpdatePortfolio_PromotesUser(t *testing.T) {
	a := newApp(t)
	a.musician(t, 1)
	u, token := a.user(t, models.RoleUser, nil)

	res := a.do(t, http.MethodPost, "/api/v1/portfolio/add-update-portfolio", token, map[string]interface{}{
		"name":        "Kiran Das",
		"description": "Tabla player and composer",
		"location":    "Kolkata",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	musician := res.data()["musician"].(map[string]interface{})
	assert.Equal(t, u.Email, musician["mail"])

	var stored models.User
	require.NoError(t, a.db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.RoleMusician, stored.Role)
	require.NotNil(t, stored.MusicianID)
	assert.EqualValues(t, musician["musicianId"], *stored.MusicianID)

	// the same token now edits the existing profile
	res = a.do(t, http.MethodPost, "/api/v1/portfolio/add-update-portfolio", token, map[string]interface{}{"contact": "+91 98765"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	assert.Equal(t, "Kiran Das", res.data()["musician"].(map[string]interface{})["name"])

	var profiles int64
	a.db.Model(&models.Musician{}).Count(&profiles)
	assert.EqualValues(t, 2, profiles)
}

func TestPrince(t *testing.T) {
	a := newApp(t)
	_, adminToken := a.user(t, models.RoleAdmin, nil)
	_, userToken := a.user(t, models.RoleUser, nil)

	res := a.do(t, http.MethodGet, "/api/v1/prince", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Prince profile not found", res.Body["message"])

	body := map[string]interface{}{"name": "Prince", "description": "Singer and producer"}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, "/api/v1/prince", userToken, body).Code)

	res = a.do(t, http.MethodPut, "/api/v1/prince", adminToken, body)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())

	body["location"] = "Minneapolis"
	res = a.do(t, http.MethodPut, "/api/v1/prince", adminToken, body)
	require.Equal(t, http.StatusOK, res.Code)

	var count int64
	a.db.Model(&models.Prince{}).Count(&count)
	assert.EqualValues(t, 1, count)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/prince/section/content", adminToken, sectionBody("Albums", "purple-rain")).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/prince/section/content", adminToken, sectionBody("Albums", "sign-o-the-times")).Code)

	res = a.do(t, http.MethodGet, "/api/v1/prince", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	prince := res.data()["prince"].(map[string]interface{})
	assert.Equal(t, "Minneapolis", prince["location"])
	sections := res.data()["sections"].([]interface{})
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].(map[string]interface{})["content"], 2)
}
