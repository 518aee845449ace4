package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/policy"
)

type ReviewStore interface {
	List(ctx context.Context, f review.ListFilter) ([]review.Review, int, error)
	Get(ctx context.Context, titleID, id int64) (review.Review, error)
	Create(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error)
	Update(ctx context.Context, rv review.Review) (review.Review, error)
	Delete(ctx context.Context, titleID, id int64) error
}

type ReviewsHandler struct {
	store  ReviewStore
	policy policy.Policy
}

func NewReviewsHandler(store ReviewStore) *ReviewsHandler {
	return &ReviewsHandler{store: store, policy: policy.SelfOrModeration}
}

func (h *ReviewsHandler) List(ctx *gin.Context) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.store.List(cctx, review.ListFilter{
		TitleID: titleID,
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not list reviews")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

// Create stores a review by the caller. A second review of the same title
// by the same author is rejected with already_reviewed.
func (h *ReviewsHandler) Create(ctx *gin.Context) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}

	var req review.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if !Validated(ctx, req.Validate()) {
		return
	}

	actor := middlewares.ActorFrom(ctx)

	cctx, cancel := requestContext(ctx)
	defer cancel()

	created, err := h.store.Create(cctx, titleID, actor.ID, req)
	if err != nil {
		RespondStoreError(ctx, err, "Could not create review")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ReviewsHandler) Get(ctx *gin.Context) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}
	id, ok := pathID(ctx, "review_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	rv, err := h.store.Get(cctx, titleID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load review")
		return
	}

	ctx.JSON(http.StatusOK, rv)
}

func (h *ReviewsHandler) Update(ctx *gin.Context) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}
	id, ok := pathID(ctx, "review_id")
	if !ok {
		return
	}

	var req review.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.store.Get(cctx, titleID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load review")
		return
	}

	if err := h.policy.Check(middlewares.ActorFrom(ctx), policy.ActionUpdate, &policy.Object{AuthorID: current.AuthorID}); err != nil {
		RespondStoreError(ctx, err, "Could not authorize request")
		return
	}

	if !Validated(ctx, req.Validate()) {
		return
	}

	updated, err := h.store.Update(cctx, req.Apply(current))
	if err != nil {
		RespondStoreError(ctx, err, "Could not update review")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *ReviewsHandler) Delete(ctx *gin.Context) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return
	}
	id, ok := pathID(ctx, "review_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.store.Get(cctx, titleID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load review")
		return
	}

	if err := h.policy.Check(middlewares.ActorFrom(ctx), policy.ActionDelete, &policy.Object{AuthorID: current.AuthorID}); err != nil {
		RespondStoreError(ctx, err, "Could not authorize request")
		return
	}

	if err := h.store.Delete(cctx, titleID, id); err != nil {
		RespondStoreError(ctx, err, "Could not delete review")
		return
	}

	ctx.Status(http.StatusNoContent)
}
