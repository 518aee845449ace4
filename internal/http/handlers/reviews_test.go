package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/policy"
)

const reviewAuthorID = 10

func reviewsRouter(store handlers.ReviewStore, actor policy.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewReviewsHandler(store)

	r := gin.New()
	r.Use(withActor(actor))
	r.POST("/titles/:title_id/reviews", h.Create)
	r.PATCH("/titles/:title_id/reviews/:review_id", h.Update)
	r.DELETE("/titles/:title_id/reviews/:review_id", h.Delete)
	return r
}

func existingReview() fakeReviews {
	return fakeReviews{
		getFn: func(ctx context.Context, titleID, id int64) (review.Review, error) {
			return review.Review{ID: id, TitleID: titleID, AuthorID: reviewAuthorID, Text: "fine", Score: 6}, nil
		},
		updateFn: func(ctx context.Context, rv review.Review) (review.Review, error) {
			return rv, nil
		},
		deleteFn: func(ctx context.Context, titleID, id int64) error {
			return nil
		},
	}
}

func patchJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReviews_CreateUsesActorAsAuthor(t *testing.T) {
	var gotAuthor, gotTitle int64
	store := fakeReviews{
		createFn: func(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
			gotTitle, gotAuthor = titleID, authorID
			return review.Review{ID: 1, TitleID: titleID, AuthorID: authorID, Text: req.Text, Score: req.Score}, nil
		},
	}
	r := reviewsRouter(store, policy.Actor{ID: 42, Username: "bob", Role: user.RoleUser})

	w := postJSON(r, "/titles/3/reviews", `{"text":"great","score":9}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}
	if gotAuthor != 42 || gotTitle != 3 {
		t.Fatalf("unexpected author=%d title=%d", gotAuthor, gotTitle)
	}
}

func TestReviews_DuplicateIsBadRequest(t *testing.T) {
	store := fakeReviews{
		createFn: func(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
			return review.Review{}, review.ErrAlreadyReviewed
		},
	}
	r := reviewsRouter(store, policy.Actor{ID: 42, Role: user.RoleUser})

	w := postJSON(r, "/titles/3/reviews", `{"text":"again","score":5}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
	if code := decodeError(t, w).Error.Code; code != "already_reviewed" {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestReviews_CreateOnMissingTitleIs404(t *testing.T) {
	store := fakeReviews{
		createFn: func(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
			return review.Review{}, title.ErrNotFound
		},
	}
	r := reviewsRouter(store, policy.Actor{ID: 42, Role: user.RoleUser})

	w := postJSON(r, "/titles/999/reviews", `{"text":"ghost","score":5}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestReviews_ScoreOutOfRangeRejected(t *testing.T) {
	r := reviewsRouter(fakeReviews{}, policy.Actor{ID: 42, Role: user.RoleUser})

	for _, body := range []string{`{"text":"x","score":0}`, `{"text":"x","score":11}`} {
		w := postJSON(r, "/titles/3/reviews", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400", body, w.Code)
		}
	}
}

func TestReviews_UpdateObjectLevelPolicy(t *testing.T) {
	cases := []struct {
		name  string
		actor policy.Actor
		want  int
	}{
		{"author", policy.Actor{ID: reviewAuthorID, Role: user.RoleUser}, http.StatusOK},
		{"other user", policy.Actor{ID: 11, Role: user.RoleUser}, http.StatusForbidden},
		{"moderator", policy.Actor{ID: 12, Role: user.RoleModerator}, http.StatusOK},
		{"admin role", policy.Actor{ID: 13, Role: user.RoleAdmin}, http.StatusOK},
		{"staff flag", policy.Actor{ID: 14, Role: user.RoleUser, IsStaff: true}, http.StatusOK},
		{"superuser flag", policy.Actor{ID: 15, Role: user.RoleUser, IsSuperuser: true}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := reviewsRouter(existingReview(), tc.actor)

			w := patchJSON(r, "/titles/1/reviews/2", `{"score":8}`)

			if w.Code != tc.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestReviews_DeleteByOtherUserDoesNotReachStore(t *testing.T) {
	store := existingReview()
	deleted := false
	store.deleteFn = func(ctx context.Context, titleID, id int64) error {
		deleted = true
		return nil
	}

	r := reviewsRouter(store, policy.Actor{ID: 99, Role: user.RoleUser})

	req := httptest.NewRequest(http.MethodDelete, "/titles/1/reviews/2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}
	if deleted {
		t.Fatalf("store delete must not run when the policy denies")
	}
}

func TestReviews_InvalidUpdateFromNonAuthorIsForbidden(t *testing.T) {
	updated := false
	store := existingReview()
	store.updateFn = func(ctx context.Context, rv review.Review) (review.Review, error) {
		updated = true
		return rv, nil
	}

	r := reviewsRouter(store, policy.Actor{ID: 11, Role: user.RoleUser})
	w := patchJSON(r, "/titles/1/reviews/2", `{"score":11}`)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403, body=%s", w.Code, w.Body.String())
	}
	if updated {
		t.Fatalf("store update must not run when the policy denies")
	}
}

func TestReviews_InvalidUpdateFromAuthorIsBadRequest(t *testing.T) {
	r := reviewsRouter(existingReview(), policy.Actor{ID: reviewAuthorID, Role: user.RoleUser})

	w := patchJSON(r, "/titles/1/reviews/2", `{"score":11}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Field != "score" {
		t.Fatalf("expected a score field error, got %+v", resp.Error.Details.Fields)
	}
}
