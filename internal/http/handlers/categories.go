package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/category"
)

type CategoryStore interface {
	List(ctx context.Context, f category.ListFilter) ([]category.Category, int, error)
	Create(ctx context.Context, req category.CreateRequest) (category.Category, error)
	Delete(ctx context.Context, slug string) error
}

type CategoriesHandler struct {
	store CategoryStore
}

func NewCategoriesHandler(store CategoryStore) *CategoriesHandler {
	return &CategoriesHandler{store: store}
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.store.List(cctx, category.ListFilter{
		Search: optionalQuery(ctx, "search"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not list categories")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.CreateRequest
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
		RespondStoreError(ctx, err, "Could not create category")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Delete removes the category; titles that referenced it keep existing
// without a category.
func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.store.Delete(cctx, ctx.Param("slug")); err != nil {
		RespondStoreError(ctx, err, "Could not delete category")
		return
	}

	ctx.Status(http.StatusNoContent)
}
