package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Pagination struct {
	Page  int
	Limit int
}

// ParsePagination reads page/limit query params, clamping limit to max.
func ParsePagination(c *gin.Context, defaultLimit, max int) (Pagination, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return Pagination{}, NewValidationError("page must be a positive integer")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		return Pagination{}, NewValidationError("limit must be a positive integer")
	}
	if limit > max {
		return Pagination{}, NewValidationError("limit must be less than or equal to " + strconv.Itoa(max))
	}
	return Pagination{Page: page, Limit: limit}, nil
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// Meta is the pagination block used by list endpoints.
func (p Pagination) Meta(total int64) gin.H {
	return gin.H{
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": TotalPages(total, p.Limit),
	}
}
