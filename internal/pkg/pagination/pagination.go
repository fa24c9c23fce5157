// Package pagination parses page/size query parameters and applies them to gorm queries.
package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
	// MaxPage keeps Offset within int.
	MaxPage = math.MaxInt / MaxSize
)

// Query is a 1-based page request.
type Query struct {
	Page int
	Size int
}

// FromContext reads ?page= and ?size=. Garbage falls back to the defaults.
func FromContext(c *gin.Context) Query {
	return New(atoiOr(c.Query("page"), DefaultPage), atoiOr(c.Query("size"), DefaultSize))
}

// New clamps page to [1, MaxPage] and size to [1, MaxSize].
func New(page, size int) Query {
	q := Query{Page: page, Size: size}
	switch {
	case q.Page < 1:
		q.Page = DefaultPage
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.Size < 1:
		q.Size = DefaultSize
	case q.Size > MaxSize:
		q.Size = MaxSize
	}
	return q
}

func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// Window returns the [start, end) bounds of the page within n items.
func (q Query) Window(n int) (start, end int) {
	start = max(q.Offset(), 0)
	if start > n {
		start = n
	}
	end = start + q.Size
	if end > n {
		end = n
	}
	return start, end
}

// Scope limits a gorm query to the page.
func (q Query) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(q.Offset()).Limit(q.Size)
}

// Paginate counts db, loads the requested page into dest and returns the metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Scopes(q.Scope).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	return Meta(q, total), nil
}

func Meta(q Query, total int64) response.Pagination {
	size := int64(q.Size)
	totalPage := int((total + size - 1) / size)
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
