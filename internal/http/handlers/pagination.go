package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit inside int for every accepted limit.
	maxPage = math.MaxInt / maxPageLimit
)

type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the envelope of every list response.
type Page[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func newPage[T any](items []T, total int, p pageParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Count: len(items),
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}
}

// parsePage reads ?page and ?limit. On a bad value it writes a 400 and
// returns false.
func parsePage(ctx *gin.Context) (pageParams, bool) {
	p := pageParams{Page: 1, Limit: defaultPageLimit}

	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondFieldError(ctx, "page", "min", "page must be a positive integer")
			return p, false
		}
		if n > maxPage {
			RespondFieldError(ctx, "page", "max", "page is too large")
			return p, false
		}
		p.Page = n
	}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			RespondFieldError(ctx, "limit", "range", "limit must be between 1 and 100")
			return p, false
		}
		p.Limit = n
	}

	return p, true
}

// optionalQuery returns nil when the parameter is absent.
func optionalQuery(ctx *gin.Context, key string) *string {
	v, ok := ctx.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}

// pathID parses an integer path parameter. A non-numeric id cannot name a
// resource, so it is a 404.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		RespondNotFound(ctx, "Resource not found")
		return 0, false
	}
	return id, true
}
