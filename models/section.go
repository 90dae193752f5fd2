package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SectionContent struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Order       int    `json:"order"`
}

// Section is a titled block of portfolio content owned by a musician or
// by the Prince profile. Title is unique per owner.
type Section struct {
	ID          uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                              `gorm:"size:200;not null;index" json:"title"`
	Description string                              `gorm:"size:1000" json:"description,omitempty"`
	MusicianRef *uuid.UUID                          `gorm:"type:uuid;index" json:"musicianRef,omitempty"`
	PrinceRef   *uuid.UUID                          `gorm:"type:uuid;index" json:"princeRef,omitempty"`
	Content     datatypes.JSONSlice[SectionContent] `json:"content"`
	IsActive    bool                                `gorm:"default:true" json:"isActive"`
	Order       int                                 `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt   time.Time                           `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time                           `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Append adds items after the existing content, numbering their order.
func (s *Section) Append(items ...SectionContent) {
	for _, it := range items {
		it.Order = len(s.Content)
		s.Content = append(s.Content, it)
	}
}
