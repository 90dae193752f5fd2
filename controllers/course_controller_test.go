package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/prince-music-backend/models"
)

func TestCreateCourse_PriceInvariant(t *testing.T) {
	a := newApp(t)
	_, _, token := a.musician(t, 1)

	res := a.do(t, http.MethodPost, "/api/v1/courses", token, map[string]interface{}{
		"title":       "Jazz Piano",
		"description": "Voicings and comping for beginners",
		"courseType":  1,
		"price":       0,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "paid courses must have a price greater than 0", res.Body["message"])

	res = a.do(t, http.MethodPost, "/api/v1/courses", token, map[string]interface{}{
		"title":       "Free Ukulele",
		"description": "Four chords and a strumming pattern",
		"courseType":  2,
		"price":       49.5,
		"category":    "Strings",
		"tags":        []string{" Ukulele ", "BEGINNER"},
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	course := res.data()["course"].(map[string]interface{})
	assert.EqualValues(t, 0, course["price"])
	assert.Equal(t, "free-ukulele", course["slug"])
	assert.Equal(t, []interface{}{"ukulele", "beginner"}, course["tags"])

	var stored models.Course
	require.NoError(t, a.db.First(&stored, "title = ?", "Free Ukulele").Error)
	assert.Zero(t, stored.Price)

	// switching a free course to paid without a price is rejected
	res = a.do(t, http.MethodPut, "/api/v1/courses/"+stored.ID.String(), token, map[string]interface{}{
		"courseType": 1,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = a.do(t, http.MethodPut, "/api/v1/courses/"+stored.ID.String(), token, map[string]interface{}{
		"courseType": 1,
		"price":      120,
	})
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
	require.NoError(t, a.db.First(&stored, "id = ?", stored.ID).Error)
	assert.Equal(t, models.CoursePaid, stored.CourseType)
	assert.EqualValues(t, 120, stored.Price)
}

func TestCreateCourse_Authorization(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	_, _, otherToken := a.musician(t, 2)
	_, userToken := a.user(t, models.RoleUser, nil)
	_, adminToken := a.user(t, models.RoleAdmin, nil)

	body := map[string]interface{}{
		"title":       "Drum Rudiments",
		"description": "Paradiddles, flams and drags",
		"courseType":  2,
	}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/v1/courses", userToken, body).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/v1/courses", "", body).Code)

	res := a.do(t, http.MethodPost, "/api/v1/courses", adminToken, body)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "musicianId is required", res.Body["message"])

	body["musicianId"] = 1
	res = a.do(t, http.MethodPost, "/api/v1/courses", adminToken, body)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw.Body.String())
	id := res.data()["course"].(map[string]interface{})["id"].(string)
	assert.Equal(t, m.ID.String(), res.data()["course"].(map[string]interface{})["musicianRef"])

	res = a.do(t, http.MethodDelete, "/api/v1/courses/"+id, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You can only manage your own courses", res.Body["message"])

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/v1/courses/"+id, adminToken, nil).Code)
	var stored models.Course
	require.NoError(t, a.db.First(&stored, "id = ?", id).Error)
	assert.False(t, stored.IsActive)
}

func TestGetCourses_SearchAndPagination(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	for i := 1; i <= 12; i++ {
		a.course(t, m, fmt.Sprintf("Guitar Lesson %02d", i), "Guitar", models.CoursePaid, float64(10*i))
	}
	a.course(t, m, "Violin Basics", "Strings", models.CourseFree, 0)
	a.course(t, m, "Singing", "Vocals", models.CourseFree, 0)

	res := a.do(t, http.MethodGet, "/api/v1/courses?search=guitar&page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())

	all := res.data()["allCourses"].(map[string]interface{})
	assert.Len(t, all["courses"], 5)
	p := all["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, p["currentPage"])
	assert.EqualValues(t, 3, p["totalPages"])
	assert.EqualValues(t, 12, p["totalCourses"])
	assert.Equal(t, true, p["hasNextPage"])
	assert.Equal(t, true, p["hasPrevPage"])

	// buckets ignore the search term
	assert.Len(t, res.data()["paidCourses"], 12)
	assert.Len(t, res.data()["freeCourses"], 2)
	assert.NotContains(t, res.data(), "enrolledCourses")

	res = a.do(t, http.MethodGet, "/api/v1/courses?sortBy=price&sortOrder=asc&courseType=1&limit=3", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	courses := res.data()["allCourses"].(map[string]interface{})["courses"].([]interface{})
	require.Len(t, courses, 3)
	assert.EqualValues(t, 10, courses[0].(map[string]interface{})["price"])

	res = a.do(t, http.MethodGet, "/api/v1/courses?limit=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	res = a.do(t, http.MethodGet, "/api/v1/courses?sortBy=secret", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetCourses_ExcludesEnrolledFromBuckets(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	free := a.course(t, m, "Free Theory", "Theory", models.CourseFree, 0)
	a.course(t, m, "Free Rhythm", "Theory", models.CourseFree, 0)
	_, token := a.user(t, models.RoleUser, nil)

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/enrollments/enroll/"+free.ID.String(), token, nil).Code)

	res := a.do(t, http.MethodGet, "/api/v1/courses", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["freeCourses"], 1)
	enrolled := res.data()["enrolledCourses"].([]interface{})
	require.Len(t, enrolled, 1)
	assert.Equal(t, free.ID.String(), enrolled[0].(map[string]interface{})["id"])
}

func TestGetCourse_SimilarAndCategories(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	main := a.course(t, m, "Blues Guitar", "Guitar", models.CourseFree, 0)
	for i := 0; i < 8; i++ {
		a.course(t, m, fmt.Sprintf("Guitar Extra %d", i), "Guitar", models.CourseFree, 0)
	}
	a.course(t, m, "Opera", "Vocals", models.CourseFree, 0)

	res := a.do(t, http.MethodGet, "/api/v1/courses/"+main.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["similarCourses"], 6)
	assert.NotContains(t, res.data(), "isEnrolled")

	_, token := a.user(t, models.RoleUser, nil)
	res = a.do(t, http.MethodGet, "/api/v1/courses/"+main.ID.String(), token, nil)
	assert.Equal(t, false, res.data()["isEnrolled"])

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/courses/not-a-uuid", "", nil).Code)

	res = a.do(t, http.MethodGet, "/api/v1/courses/categories", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []interface{}{"Guitar", "Vocals"}, res.data()["categories"])
}

func TestGetCourses_SearchIsLiteralContains(t *testing.T) {
	a := newApp(t)
	m, _, _ := a.musician(t, 1)
	rock := a.course(t, m, "Stage Skills", "Band", models.CoursePaid, 40)
	rock.Tags = []string{"Rock&Roll", "live"}
	require.NoError(t, a.db.Save(rock).Error)
	swing := a.course(t, m, "Piano Basics", "Keys", models.CourseFree, 0)
	swing.Tags = []string{"jazz", "swing"}
	swing.Description = "Comping patterns at 100% swing feel"
	require.NoError(t, a.db.Save(swing).Error)

	titles := func(query string) []string {
		t.Helper()
		res := a.do(t, http.MethodGet, "/api/v1/courses?"+query, "", nil)
		require.Equal(t, http.StatusOK, res.Code, res.Raw.Body.String())
		var out []string
		for _, c := range res.data()["allCourses"].(map[string]interface{})["courses"].([]interface{}) {
			out = append(out, c.(map[string]interface{})["title"].(string))
		}
		return out
	}

	assert.Equal(t, []string{"Stage Skills"}, titles("search=rock%26roll"))
	assert.Equal(t, []string{"Stage Skills"}, titles("search=LIVE"))
	assert.Equal(t, []string{"Piano Basics"}, titles("search=wing"))
	assert.Equal(t, []string{"Piano Basics"}, titles("search=comping"))
	assert.Equal(t, []string{"Piano Basics"}, titles("search=100%25"))
	assert.Empty(t, titles("search=%2C"))
	assert.Empty(t, titles("search=_"))
	assert.Empty(t, titles("search=zzswi"))

	assert.Equal(t, []string{"Piano Basics"}, titles("tags=jazz"))
	assert.Empty(t, titles("tags=jaz"))
	assert.Len(t, titles("tags=jazz,live"), 2)
}
