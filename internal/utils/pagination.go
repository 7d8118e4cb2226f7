// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationResult struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// GetPaginationParams returns a zero Limit, meaning every row, unless the
// query asks for a page or a limit.
func GetPaginationParams(c *gin.Context) PaginationParams {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return PaginationParams{}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}

	return PaginationParams{Page: page, Limit: limit}
}

// ApplyPagination leaves the query unbounded when no limit was requested.
func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	if params.Limit <= 0 {
		return db
	}
	if params.Page < 1 {
		params.Page = 1
	}
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

func CreatePaginationResult(total int64, params PaginationParams) PaginationResult {
	if params.Limit <= 0 {
		// Unpaged; limit 0 means no limit
		totalPages := 0
		if total > 0 {
			totalPages = 1
		}
		return PaginationResult{Page: 1, Total: total, TotalPages: totalPages}
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
