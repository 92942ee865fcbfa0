package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Params holds the page request extracted from a request.
type Params struct {
	Page int
	Size int
	Sort []string
}

// FromContext extracts page, size and sort from the query string.
// Sort may be repeated (?sort=lastName.desc&sort=firstName) or comma separated.
// Bad numbers fall back to defaults rather than failing the request.
func FromContext(c echo.Context) Params {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 0 {
		page = 0
	}

	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	// page*size must stay representable.
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}

	var sort []string
	for _, v := range c.QueryParams()["sort"] {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				sort = append(sort, tok)
			}
		}
	}

	return Params{Page: page, Size: size, Sort: sort}
}

// Limit is the number of rows to fetch.
func (p Params) Limit() int { return p.Size }

// Offset is the number of rows to skip. It saturates rather than overflow.
func (p Params) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt / p.Size * p.Size
	}
	return p.Page * p.Size
}

// Page wraps a paginated API response.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	HasNext       bool  `json:"hasNext"`
}

func NewPage[T any](content []T, total int64, p Params) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return &Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Page:          p.Page,
		Size:          p.Size,
		HasNext:       p.Page < pages-1,
	}
}
