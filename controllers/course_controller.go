package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

const (
	bucketLimit  = 1000
	similarLimit = 6
)

var courseSortColumns = map[string]string{
	"createdAt":       "created_at",
	"title":           "title",
	"price":           "price",
	"enrollmentCount": "enrollment_count",
	"rating":          "rating_average",
}

type CourseQuery struct {
	Page       int      `form:"page,default=1" json:"page" binding:"min=1"`
	Limit      int      `form:"limit,default=10" json:"limit" binding:"min=1,max=100"`
	Search     string   `form:"search" json:"search"`
	CourseType int      `form:"courseType" json:"courseType" binding:"omitempty,oneof=1 2"`
	Category   string   `form:"category" json:"category"`
	Level      string   `form:"level" json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	SortBy     string   `form:"sortBy,default=createdAt" json:"sortBy" binding:"oneof=createdAt title price enrollmentCount rating"`
	SortOrder  string   `form:"sortOrder,default=desc" json:"sortOrder" binding:"oneof=asc desc"`
	MinPrice   *float64 `form:"minPrice" json:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice   *float64 `form:"maxPrice" json:"maxPrice" binding:"omitempty,gte=0"`
	Tags       string   `form:"tags" json:"tags"`
	IsActive   *bool    `form:"isActive" json:"isActive"`
}

// filter applies every criterion except search and courseType.
func (q *CourseQuery) filter(db *gorm.DB) *gorm.DB {
	active := true
	if q.IsActive != nil {
		active = *q.IsActive
	}
	db = db.Where("is_active = ?", active)
	if q.Category != "" {
		db = db.Where("LOWER(category) LIKE ?"+likeEscape, likePattern(q.Category))
	}
	if q.Level != "" {
		db = db.Where("level = ?", q.Level)
	}
	if q.MinPrice != nil {
		db = db.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("price <= ?", *q.MaxPrice)
	}
	if q.Tags != "" {
		var conds []string
		var args []interface{}
		for _, t := range strings.Split(q.Tags, ",") {
			t = strings.ReplaceAll(t, models.TagSeparator, "")
			if t = escapeLike(t); t != "" {
				conds = append(conds, "search_tags LIKE ?"+likeEscape)
				args = append(args, "%"+models.TagSeparator+t+models.TagSeparator+"%")
			}
		}
		if len(conds) > 0 {
			db = db.Where(strings.Join(conds, " OR "), args...)
		}
	}
	return db
}

func (q *CourseQuery) order() string {
	return courseSortColumns[q.SortBy] + " " + strings.ToUpper(q.SortOrder)
}

func searchCourses(db *gorm.DB, search string) *gorm.DB {
	if search = strings.TrimSpace(search); search == "" {
		return db
	}
	p := likePattern(search)
	tag := likePattern(strings.ReplaceAll(search, models.TagSeparator, ""))
	return db.Where("LOWER(title) LIKE ?"+likeEscape+
		" OR LOWER(description) LIKE ?"+likeEscape+
		" OR LOWER(category) LIKE ?"+likeEscape+
		" OR search_tags LIKE ?"+likeEscape,
		p, p, p, tag)
}

type CourseInput struct {
	Title            string          `json:"title" binding:"required,min=3,max=200"`
	Description      string          `json:"description" binding:"required,min=10,max=2000"`
	CourseType       int             `json:"courseType" binding:"required,oneof=1 2"`
	Price            float64         `json:"price" binding:"gte=0"`
	Benefits         []string        `json:"benefits"`
	Category         string          `json:"category" binding:"omitempty,max=100"`
	Thumbnail        string          `json:"thumbnail"`
	Duration         string          `json:"duration" binding:"omitempty,max=50"`
	Level            string          `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Tags             []string        `json:"tags"`
	CourseContent    []models.Lesson `json:"courseContent" binding:"omitempty,dive"`
	Prerequisites    []string        `json:"prerequisites"`
	LearningOutcomes []string        `json:"learningOutcomes"`
	MusicianID       *uint           `json:"musicianId"`
}

type UpdateCourseInput struct {
	Title            *string         `json:"title" binding:"omitempty,min=3,max=200"`
	Description      *string         `json:"description" binding:"omitempty,min=10,max=2000"`
	CourseType       *int            `json:"courseType" binding:"omitempty,oneof=1 2"`
	Price            *float64        `json:"price" binding:"omitempty,gte=0"`
	Benefits         []string        `json:"benefits"`
	Category         *string         `json:"category" binding:"omitempty,max=100"`
	Thumbnail        *string         `json:"thumbnail"`
	Duration         *string         `json:"duration" binding:"omitempty,max=50"`
	Level            *string         `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Tags             []string        `json:"tags"`
	CourseContent    []models.Lesson `json:"courseContent" binding:"omitempty,dive"`
	Prerequisites    []string        `json:"prerequisites"`
	LearningOutcomes []string        `json:"learningOutcomes"`
	IsActive         *bool           `json:"isActive"`
}

func lessonsWithIDs(lessons []models.Lesson) []models.Lesson {
	for i := range lessons {
		if lessons[i].ID == "" {
			lessons[i].ID = uuid.NewString()
		}
	}
	return lessons
}

// enrolledCourseIDs lists the courses the user can currently access.
func enrolledCourseIDs(db *gorm.DB, userID uuid.UUID) ([]string, error) {
	var ids []string
	err := db.Model(&models.Enrollment{}).
		Scopes(models.Accessible(timeNow())).
		Where("user_id = ?", userID).
		Pluck("course_id", &ids).Error
	return ids, err
}

// GetCourses returns the filtered page plus paid and free buckets; signed-in
// users also get their enrolled courses, which are left out of the buckets.
func GetCourses(c *gin.Context) {
	var query CourseQuery
	if !bindQuery(c, &query) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	base := query.filter(db.Model(&models.Course{}))
	page := searchCourses(base.Session(&gorm.Session{}), query.Search)
	if query.CourseType != 0 {
		page = page.Where("course_type = ?", query.CourseType)
	}

	var total int64
	if err := page.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var courses []models.Course
	offset := (query.Page - 1) * query.Limit
	if err := page.Session(&gorm.Session{}).Preload("Musician").
		Order(query.order()).Offset(offset).Limit(query.Limit).
		Find(&courses).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	var enrolledIDs []string
	if user != nil {
		ids, err := enrolledCourseIDs(db, user.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		enrolledIDs = ids
	}

	bucket := func(t models.CourseType) ([]models.Course, error) {
		q := base.Session(&gorm.Session{}).Where("course_type = ?", t)
		if len(enrolledIDs) > 0 {
			q = q.Where("id NOT IN ?", enrolledIDs)
		}
		var out []models.Course
		err := q.Preload("Musician").Order(query.order()).Limit(bucketLimit).Find(&out).Error
		return out, err
	}
	paid, err := bucket(models.CoursePaid)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	free, err := bucket(models.CourseFree)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	totalPages := utils.TotalPages(total, query.Limit)
	data := gin.H{
		"allCourses": gin.H{
			"courses": courses,
			"pagination": gin.H{
				"currentPage":  query.Page,
				"totalPages":   totalPages,
				"totalCourses": total,
				"hasNextPage":  query.Page < totalPages,
				"hasPrevPage":  query.Page > 1,
			},
		},
		"paidCourses": paid,
		"freeCourses": free,
	}

	if user != nil {
		enrolled := []models.Course{}
		if len(enrolledIDs) > 0 {
			if err := db.Preload("Musician").Where("id IN ?", enrolledIDs).
				Order("created_at DESC").Find(&enrolled).Error; err != nil {
				utils.Fail(c, err)
				return
			}
		}
		data["enrolledCourses"] = enrolled
	}
	utils.Success(c, http.StatusOK, "Courses retrieved successfully", data)
}

func GetCourseCategories(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	var categories []string
	if err := db.Model(&models.Course{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct().Pluck("category", &categories).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	sort.Strings(categories)
	utils.Success(c, http.StatusOK, "Categories retrieved successfully", gin.H{"categories": categories})
}

func GetCourse(c *gin.Context) {
	courseID, ok := paramUUID(c, "courseId", "Course")
	if !ok {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	var course models.Course
	if err := db.Preload("Musician").First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(c, utils.NewNotFoundError("Course not found"))
			return
		}
		utils.Fail(c, err)
		return
	}

	similar := []models.Course{}
	if course.Category != "" {
		if err := db.Preload("Musician").
			Where("category = ? AND is_active = ? AND id <> ?", course.Category, true, course.ID).
			Order("enrollment_count DESC").Limit(similarLimit).
			Find(&similar).Error; err != nil {
			utils.Fail(c, err)
			return
		}
	}

	data := gin.H{"course": course, "similarCourses": similar}
	if user := middleware.CurrentUser(c); user != nil {
		var count int64
		if err := db.Model(&models.Enrollment{}).
			Scopes(models.Accessible(timeNow())).
			Where("user_id = ? AND course_id = ?", user.ID, course.ID).
			Count(&count).Error; err != nil {
			utils.Fail(c, err)
			return
		}
		data["isEnrolled"] = count > 0
	}
	utils.Success(c, http.StatusOK, "Course retrieved successfully", data)
}

// courseOwner resolves the musician a new course belongs to: the caller's
// own profile, or the musicianId given by an admin.
func courseOwner(c *gin.Context, db *gorm.DB, requested *uint) (*models.Musician, error) {
	user := middleware.CurrentUser(c)
	if !isAdmin(user) {
		return currentMusician(c, db)
	}
	if requested == nil {
		return nil, utils.NewValidationError("musicianId is required")
	}
	var m models.Musician
	if err := db.Where("musician_id = ?", *requested).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Musician not found")
		}
		return nil, err
	}
	return &m, nil
}

// managedCourse loads a course the caller may modify.
func managedCourse(c *gin.Context, db *gorm.DB) (*models.Course, error) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		return nil, utils.NewNotFoundError("Course not found")
	}
	var course models.Course
	if err := db.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Course not found")
		}
		return nil, err
	}
	if isAdmin(middleware.CurrentUser(c)) {
		return &course, nil
	}
	m, err := currentMusician(c, db)
	if err != nil {
		return nil, err
	}
	if m.ID != course.MusicianRef {
		return nil, utils.NewForbiddenError("You can only manage your own courses")
	}
	return &course, nil
}

func CreateCourse(c *gin.Context) {
	var input CourseInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	owner, err := courseOwner(c, db, input.MusicianID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	course := models.Course{
		MusicianRef:      owner.ID,
		Slug:             slug.Make(input.Title),
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		CourseType:       models.CourseType(input.CourseType),
		Price:            input.Price,
		Benefits:         input.Benefits,
		Category:         strings.TrimSpace(input.Category),
		Thumbnail:        input.Thumbnail,
		Duration:         input.Duration,
		Level:            models.CourseLevel(input.Level),
		Tags:             input.Tags,
		IsActive:         true,
		CourseContent:    lessonsWithIDs(input.CourseContent),
		Prerequisites:    input.Prerequisites,
		LearningOutcomes: input.LearningOutcomes,
	}
	if err := db.Create(&course).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	course.Musician = owner
	utils.Success(c, http.StatusCreated, "Course created successfully", gin.H{"course": course})
}

func UpdateCourse(c *gin.Context) {
	var input UpdateCourseInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	course, err := managedCourse(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
		course.Slug = slug.Make(course.Title)
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.CourseType != nil {
		course.CourseType = models.CourseType(*input.CourseType)
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.Benefits != nil {
		course.Benefits = input.Benefits
	}
	if input.Category != nil {
		course.Category = strings.TrimSpace(*input.Category)
	}
	if input.Thumbnail != nil {
		course.Thumbnail = *input.Thumbnail
	}
	if input.Duration != nil {
		course.Duration = *input.Duration
	}
	if input.Level != nil {
		course.Level = models.CourseLevel(*input.Level)
	}
	if input.Tags != nil {
		course.Tags = input.Tags
	}
	if input.CourseContent != nil {
		course.CourseContent = lessonsWithIDs(input.CourseContent)
	}
	if input.Prerequisites != nil {
		course.Prerequisites = input.Prerequisites
	}
	if input.LearningOutcomes != nil {
		course.LearningOutcomes = input.LearningOutcomes
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}

	if err := db.Save(course).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Course updated successfully", gin.H{"course": course})
}

// DeleteCourse hides the course; enrollments keep working until they expire.
func DeleteCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	course, err := managedCourse(c, db)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if err := db.Model(&models.Course{}).Where("id = ?", course.ID).
		UpdateColumn("is_active", false).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Course deleted successfully", nil)
}
