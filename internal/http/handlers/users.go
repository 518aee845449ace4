package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/policy"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, int, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, username string) error
}

type UsersHandler struct {
	users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) GetMe(ctx *gin.Context) {
	actor := middlewares.ActorFrom(ctx)

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, actor.ID)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// UpdateMe applies a partial update to the caller's own profile. Only an
// actor whose role is admin may change the role here.
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	actor := middlewares.ActorFrom(ctx)

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate()) {
		return
	}

	if err := policy.RoleChangeGuard(actor, req.Role); err != nil {
		respondRoleChange(ctx, err)
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.users.GetByID(cctx, actor.ID)
	if err != nil {
		RespondStoreError(ctx, err, "Could not load profile")
		return
	}

	updated, err := h.users.Update(cctx, req.Apply(current))
	if err != nil {
		RespondStoreError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, total, err := h.users.List(cctx, user.ListFilter{
		Search: optionalQuery(ctx, "search"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, newPage(items, total, page))
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate()) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	created, err := h.users.Create(cctx, user.User{
		Username:  req.Username,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.RoleOrDefault(),
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByUsername(cctx, ctx.Param("username"))
	if err != nil {
		RespondStoreError(ctx, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Update is the user-management variant of UpdateMe; the route policy has
// already required an admin-level actor, so the role is writable.
func (h *UsersHandler) Update(ctx *gin.Context) {
	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !Validated(ctx, req.Validate()) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	current, err := h.users.GetByUsername(cctx, ctx.Param("username"))
	if err != nil {
		RespondStoreError(ctx, err, "Could not load user")
		return
	}

	updated, err := h.users.Update(cctx, req.Apply(current))
	if err != nil {
		RespondStoreError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.users.Delete(cctx, ctx.Param("username")); err != nil {
		RespondStoreError(ctx, err, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
