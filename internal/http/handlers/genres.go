package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/genre"
)

type GenreStore interface {
	List(ctx context.Context, f genre.ListFilter) ([]genre.Genre, int, error)
	Create(ctx context.Context, req genre.CreateRequest) (genre.Genre, error)
	Delete(ctx context.Context, slug string) error
}

type GenresHandler struct {
	store GenreStore
}

func NewGenresHandler(store GenreStore) *GenresHandler {
	return &GenresHandler{store: store}
}

func (h *GenresHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.store.List(cctx, genre.ListFilter{
		Search: optionalQuery(ctx, "search"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not list genres")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

func (h *GenresHandler) Create(ctx *gin.Context) {
	var req genre.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate()) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	created, err := h.store.Create(cctx, req)
	if err != nil {
		RespondStoreError(ctx, err, "Could not create genre")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Delete removes the genre and its title links.
func (h *GenresHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.store.Delete(cctx, ctx.Param("slug")); err != nil {
		RespondStoreError(ctx, err, "Could not delete genre")
		return
	}

	ctx.Status(http.StatusNoContent)
}
