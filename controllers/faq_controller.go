package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type FAQInput struct {
	Question string `json:"question" binding:"required,min=3,max=500"`
	Answer   string `json:"answer" binding:"required,min=1,max=5000"`
	IsActive *bool  `json:"isActive"`
}

type BulkFAQInput struct {
	FAQs []FAQInput `json:"faqs" binding:"required,min=1,dive"`
}

func (in FAQInput) model() models.FAQ {
	return models.FAQ{
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
		IsActive: in.IsActive == nil || *in.IsActive,
	}
}

// createFAQs inserts rows and then flips the inactive ones, since a false
// IsActive would be replaced by the column default on insert.
func createFAQs(tx *gorm.DB, inputs []FAQInput) ([]models.FAQ, error) {
	faqs := make([]models.FAQ, len(inputs))
	for i, in := range inputs {
		faqs[i] = in.model()
	}
	if err := tx.Create(&faqs).Error; err != nil {
		return nil, err
	}
	for i := range faqs {
		if inputs[i].IsActive != nil && !*inputs[i].IsActive {
			if err := tx.Model(&faqs[i]).Update("is_active", false).Error; err != nil {
				return nil, err
			}
			faqs[i].IsActive = false
		}
	}
	return faqs, nil
}

func CreateFAQ(c *gin.Context) {
	var input FAQInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	var faqs []models.FAQ
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		faqs, err = createFAQs(tx, []FAQInput{input})
		return err
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "FAQ created successfully", gin.H{"faq": faqs[0]})
}

// BulkCreateFAQs inserts every item or none.
func BulkCreateFAQs(c *gin.Context) {
	var input BulkFAQInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	var faqs []models.FAQ
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		faqs, err = createFAQs(tx, input.FAQs)
		return err
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "FAQs created successfully", gin.H{
		"count": len(faqs),
		"faqs":  faqs,
	})
}

func GetFAQs(c *gin.Context) {
	p, err := utils.ParsePagination(c, 10, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var query struct {
		IsActive string `form:"isActive" binding:"omitempty,oneof=true false"`
	}
	if !bindQuery(c, &query) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)

	q := db.Model(&models.FAQ{})
	if query.IsActive != "" {
		q = q.Where("is_active = ?", query.IsActive == "true")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var items []models.FAQ
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "FAQs fetched successfully", gin.H{
		"items":      items,
		"pagination": p.Meta(total),
	})
}
