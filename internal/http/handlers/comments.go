package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/comment"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/policy"
)

type CommentStore interface {
	List(ctx context.Context, f comment.ListFilter) ([]comment.Comment, int, error)
	Get(ctx context.Context, titleID, reviewID, id int64) (comment.Comment, error)
	Create(ctx context.Context, titleID, reviewID, authorID int64, req comment.CreateRequest) (comment.Comment, error)
	Update(ctx context.Context, titleID int64, c comment.Comment) (comment.Comment, error)
	Delete(ctx context.Context, titleID, reviewID, id int64) error
}

type CommentsHandler struct {
	store  CommentStore
	policy policy.Policy
}

func NewCommentsHandler(store CommentStore) *CommentsHandler {
	return &CommentsHandler{store: store, policy: policy.SelfOrModeration}
}

// commentPath holds the ids of /titles/:title_id/reviews/:review_id/comments.
type commentPath struct {
	titleID  int64
	reviewID int64
}

func parseCommentPath(ctx *gin.Context) (commentPath, bool) {
	titleID, ok := pathID(ctx, "title_id")
	if !ok {
		return commentPath{}, false
	}
	reviewID, ok := pathID(ctx, "review_id")
	if !ok {
		return commentPath{}, false
	}
	return commentPath{titleID: titleID, reviewID: reviewID}, true
}

func (h *CommentsHandler) List(ctx *gin.Context) {
	path, ok := parseCommentPath(ctx)
	if !ok {
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.store.List(cctx, comment.ListFilter{
		TitleID:  path.titleID,
		ReviewID: path.reviewID,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not list comments")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

func (h *CommentsHandler) Create(ctx *gin.Context) {
	path, ok := parseCommentPath(ctx)
	if !ok {
		return
	}

	var req comment.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if !Validated(ctx, req.Validate()) {
		return
	}

	actor := middlewares.ActorFrom(ctx)

	cctx, cancel := requestContext(ctx)
	defer cancel()

	created, err := h.store.Create(cctx, path.titleID, path.reviewID, actor.ID, req)
	if err != nil {
		RespondStoreError(ctx, err, "Could not create comment")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *CommentsHandler) Get(ctx *gin.Context) {
	path, ok := parseCommentPath(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "comment_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.store.Get(cctx, path.titleID, path.reviewID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load comment")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CommentsHandler) Update(ctx *gin.Context) {
	path, ok := parseCommentPath(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "comment_id")
	if !ok {
		return
	}

	var req comment.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.store.Get(cctx, path.titleID, path.reviewID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load comment")
		return
	}

	if err := h.policy.Check(middlewares.ActorFrom(ctx), policy.ActionUpdate, &policy.Object{AuthorID: current.AuthorID}); err != nil {
		RespondStoreError(ctx, err, "Could not authorize request")
		return
	}

	if !Validated(ctx, req.Validate()) {
		return
	}

	if req.Text != nil {
		current.Text = *req.Text
	}

	updated, err := h.store.Update(cctx, path.titleID, current)
	if err != nil {
		RespondStoreError(ctx, err, "Could not update comment")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *CommentsHandler) Delete(ctx *gin.Context) {
	path, ok := parseCommentPath(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "comment_id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.store.Get(cctx, path.titleID, path.reviewID, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load comment")
		return
	}

	if err := h.policy.Check(middlewares.ActorFrom(ctx), policy.ActionDelete, &policy.Object{AuthorID: current.AuthorID}); err != nil {
		RespondStoreError(ctx, err, "Could not authorize request")
		return
	}

	if err := h.store.Delete(cctx, path.titleID, path.reviewID, id); err != nil {
		RespondStoreError(ctx, err, "Could not delete comment")
		return
	}

	ctx.Status(http.StatusNoContent)
}
