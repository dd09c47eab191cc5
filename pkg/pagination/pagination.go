package pagination

import (
	"strconv"

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

// Parse reads page/limit from the query string with the package default limit.
func Parse(c *gin.Context) Params {
	return ParseWithDefault(c, DefaultLimit)
}

// ParseWithDefault reads page/limit, using defaultLimit when limit is absent or invalid.
// Limits above MaxLimit are clamped.
func ParseWithDefault(c *gin.Context, defaultLimit int) Params {
	return New(c.Query("page"), c.Query("limit"), defaultLimit)
}

// New validates raw page and limit strings.
func New(rawPage, rawLimit string, defaultLimit int) Params {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit < MinLimit {
		limit = defaultLimit
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
