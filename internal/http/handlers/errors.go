package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/comment"
	"github.com/geocoder89/reviewhub/internal/domain/genre"
	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/policy"
)

type fieldConflict struct {
	err   error
	field string
	rule  string
}

// Store errors that point at one request field.
var fieldConflicts = []fieldConflict{
	{user.ErrUsernameTaken, "username", "unique"},
	{user.ErrEmailTaken, "email", "unique"},
	{category.ErrSlugTaken, "slug", "unique"},
	{genre.ErrSlugTaken, "slug", "unique"},
	{title.ErrUnknownCategory, "category", "exists"},
	{title.ErrUnknownGenre, "genre", "exists"},
}

var notFoundErrors = []error{
	user.ErrNotFound,
	category.ErrNotFound,
	genre.ErrNotFound,
	title.ErrNotFound,
	review.ErrNotFound,
	comment.ErrNotFound,
}

// RespondStoreError maps a domain or policy error to its response. Anything
// unrecognised is logged and reported as a 500 with fallback as the message.
func RespondStoreError(ctx *gin.Context, err error, fallback string) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			RespondNotFound(ctx, err.Error())
			return
		}
	}

	for _, fc := range fieldConflicts {
		if errors.Is(err, fc.err) {
			RespondFieldError(ctx, fc.field, fc.rule, fc.err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, review.ErrAlreadyReviewed):
		RespondError(ctx, http.StatusBadRequest, "already_reviewed", "You have already reviewed this title", nil)
	case errors.Is(err, user.ErrInvalidConfirmationCode):
		RespondUnauthorized(ctx, "invalid_confirmation_code", "Invalid confirmation code")
	default:
		if respondPolicyError(ctx, err) {
			return
		}
		slog.ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"err", err,
		)
		RespondInternal(ctx, fallback)
	}
}

// respondPolicyError writes 401 or 403 for a policy denial and reports
// whether err was one.
func respondPolicyError(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return true
	case errors.Is(err, policy.ErrForbidden):
		RespondForbidden(ctx, "You do not have permission to perform this action")
		return true
	}
	return false
}

// respondRoleChange renders a RoleChangeGuard rejection.
func respondRoleChange(ctx *gin.Context, err error) {
	var details interface{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		details = gin.H{"fields": fieldErrorsFromOzzo("", verrs)}
	}
	RespondError(ctx, http.StatusBadRequest, "role_change_forbidden", policy.ErrRoleChange.Error(), details)
}
