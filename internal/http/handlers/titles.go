package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/title"
)

type TitleStore interface {
	List(ctx context.Context, f title.ListFilter) ([]title.Title, int, error)
	GetByID(ctx context.Context, id int64) (title.Title, error)
	Create(ctx context.Context, w title.Write) (title.Title, error)
	Update(ctx context.Context, id int64, w title.Write) (title.Title, error)
	Delete(ctx context.Context, id int64) error
}

type TitlesHandler struct {
	store TitleStore
	now   func() time.Time
}

func NewTitlesHandler(store TitleStore) *TitlesHandler {
	return &TitlesHandler{store: store, now: time.Now}
}

// List serves GET /titles with the name, search, category, genre and year
// filters. Absent parameters do not constrain the result.
func (h *TitlesHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	f := title.ListFilter{
		Name:     optionalQuery(ctx, "name"),
		Search:   optionalQuery(ctx, "search"),
		Category: optionalQuery(ctx, "category"),
		Genre:    optionalQuery(ctx, "genre"),
		Limit:    page.Limit,
		Offset:   page.Offset(),
	}

	if raw := optionalQuery(ctx, "year"); raw != nil {
		year, err := strconv.Atoi(*raw)
		if err != nil {
			RespondFieldError(ctx, "year", "integer", "year must be an integer")
			return
		}
		f.Year = &year
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.store.List(cctx, f)
	if err != nil {
		RespondStoreError(ctx, err, "Could not list titles")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

func (h *TitlesHandler) Create(ctx *gin.Context) {
	var req title.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate(h.now())) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	created, err := h.store.Create(cctx, req.ToWrite())
	if err != nil {
		RespondStoreError(ctx, err, "Could not create title")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *TitlesHandler) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	t, err := h.store.GetByID(cctx, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load title")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TitlesHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}

	var req title.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate(h.now())) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.store.GetByID(cctx, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load title")
		return
	}

	updated, err := h.store.Update(cctx, id, req.Apply(current))
	if err != nil {
		RespondStoreError(ctx, err, "Could not update title")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TitlesHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.store.Delete(cctx, id); err != nil {
		RespondStoreError(ctx, err, "Could not delete title")
		return
	}

	ctx.Status(http.StatusNoContent)
}
