package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/jobs"
	"github.com/geocoder89/reviewhub/internal/security"
)

// ConfirmationStore issues and consumes one-time confirmation codes.
type ConfirmationStore interface {
	IssueConfirmationCode(ctx context.Context, email, codeHash string, delivery func(u user.User) (job.CreateRequest, error)) (user.User, error)
	ConsumeConfirmationCode(ctx context.Context, email string, check func(hash string) error) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, username, role string) (string, error)
}

type AuthHandler struct {
	users  ConfirmationStore
	tokens TokenIssuer
	now    func() time.Time
}

func NewAuthHandler(users ConfirmationStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, now: time.Now}
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

type TokenRequest struct {
	Email            string `json:"email" binding:"required,email,max=254"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// RequestCode handles POST /auth/email. The user is created on first use
// with the email as username; every call rotates the code and queues its
// delivery.
func (h *AuthHandler) RequestCode(ctx *gin.Context) {
	var req EmailRequest
	if !BindJSON(ctx, &req) {
		return
	}

	code, hash, err := security.NewConfirmationCode()
	if err != nil {
		RespondInternal(ctx, "Could not issue confirmation code")
		return
	}

	requestedAt := h.now().UTC()
	requestID := requestIDFrom(ctx)

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.IssueConfirmationCode(cctx, req.Email, hash, func(u user.User) (job.CreateRequest, error) {
		return jobs.NewSendConfirmationCode(jobs.SendConfirmationCodePayload{
			UserID:      u.ID,
			Email:       u.Email,
			Username:    u.Username,
			Code:        code,
			RequestedAt: requestedAt,
			RequestID:   requestID,
		})
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not issue confirmation code")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email":    u.Email,
		"username": u.Username,
	})
}

// Token handles POST /auth/token, exchanging a confirmation code for an
// access token. The code is cleared on success.
func (h *AuthHandler) Token(ctx *gin.Context) {
	var req TokenRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.ConsumeConfirmationCode(cctx, req.Email, func(hash string) error {
		return security.CheckCode(hash, req.ConfirmationCode)
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not verify confirmation code")
		return
	}

	token, err := h.tokens.GenerateAccessToken(u.ID, u.Username, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}
