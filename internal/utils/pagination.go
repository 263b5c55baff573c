package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/constants"
)

// PaginationParams is a clamped page window; Offset is derived from Page and Limit.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// NewPaginationParams clamps page to at least 1 and resets an out-of-range
// limit to the default page size.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// GetPaginationParams reads ?page= and ?limit= from the request.
// Missing or malformed values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = constants.DefaultPageSize
	}
	return NewPaginationParams(page, limit)
}
