package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseType int

const (
	CoursePaid CourseType = 1
	CourseFree CourseType = 2
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

var ErrPaidCourseWithoutPrice = errors.New("paid courses must have a price greater than 0")

type Rating struct {
	Average float64 `gorm:"default:0" json:"average"`
	Count   int     `gorm:"default:0" json:"count"`
}

type Lesson struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Order       int    `json:"order"`
	IsPreview   bool   `json:"isPreview"`
}

type Course struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	MusicianRef      uuid.UUID                   `gorm:"type:uuid;index;not null" json:"musicianRef"`
	Musician         *Musician                   `gorm:"foreignKey:MusicianRef" json:"musician,omitempty"`
	Slug             string                      `gorm:"size:255;index" json:"slug"`
	Title            string                      `gorm:"size:200;not null" json:"title"`
	Description      string                      `gorm:"size:2000;not null" json:"description"`
	CourseType       CourseType                  `gorm:"not null;index" json:"courseType"`
	Price            float64                     `gorm:"not null;default:0" json:"price"`
	Benefits         datatypes.JSONSlice[string] `json:"benefits"`
	Category         string                      `gorm:"size:100;index" json:"category"`
	Thumbnail        string                      `gorm:"type:text" json:"thumbnail,omitempty"`
	Duration         string                      `gorm:"size:50" json:"duration,omitempty"`
	Level            CourseLevel                 `gorm:"size:20;default:'beginner'" json:"level"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	SearchTags       string                      `gorm:"type:text" json:"-"`
	IsActive         bool                        `gorm:"default:true;index" json:"isActive"`
	EnrollmentCount  int                         `gorm:"default:0" json:"enrollmentCount"`
	Rating           Rating                      `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	CourseContent    datatypes.JSONSlice[Lesson] `json:"courseContent"`
	Prerequisites    datatypes.JSONSlice[string] `json:"prerequisites"`
	LearningOutcomes datatypes.JSONSlice[string] `json:"learningOutcomes"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Normalize enforces the price/type pairing and lowercases tags.
func (c *Course) Normalize() error {
	if c.CourseType == CourseFree {
		c.Price = 0
	} else if c.CourseType == CoursePaid && c.Price <= 0 {
		return ErrPaidCourseWithoutPrice
	}
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	tags := make(datatypes.JSONSlice[string], 0, len(c.Tags))
	for _, t := range c.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	c.Tags = tags
	c.SearchTags = JoinSearchTags(tags)
	return nil
}

// TagSeparator delimits tags in Course.SearchTags.
const TagSeparator = "\x1f"

// JoinSearchTags flattens tags into a delimited column so a single LIKE can
// match inside one tag or against a whole tag.
func JoinSearchTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return TagSeparator + strings.Join(tags, TagSeparator) + TagSeparator
}

func (c *Course) BeforeSave(tx *gorm.DB) error {
	return c.Normalize()
}

func (c *Course) IsFree() bool { return c.CourseType == CourseFree }
