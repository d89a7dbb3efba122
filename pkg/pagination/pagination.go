package pagination

import (
	"strconv"

	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// New clamps page and limit into the accepted range
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	return New(page, limit)
}

// Meta renders p with the total row count for a response envelope
func (p Params) Meta(total int64) response.Meta {
	return response.Meta{Total: total, Page: p.Page, Limit: p.Limit}
}
