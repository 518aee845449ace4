package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/reviewhub/internal/auth"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	httpx "github.com/geocoder89/reviewhub/internal/http"
	"github.com/geocoder89/reviewhub/internal/jobs"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/repo/memory"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	tokens *auth.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	tokens := auth.NewManager("integration-secret", time.Hour)
	reg := prometheus.NewRegistry()

	router := httpx.NewRouter(httpx.Deps{
		Config: config.Config{
			Env:                   "test",
			MaxBodyBytes:          1 << 20,
			AuthRateLimit:         1000,
			AuthRateWindowSeconds: 60,
		},
		Prom:     observability.NewProm(reg),
		Gatherer: reg,
		Stores: httpx.Stores{
			Users:      store.Users(),
			Categories: store.Categories(),
			Genres:     store.Genres(),
			Titles:     store.Titles(),
			Reviews:    store.Reviews(),
			Comments:   store.Comments(),
		},
		Tokens: tokens,
		Issuer: tokens,
	})

	return &testAPI{t: t, router: router, store: store, tokens: tokens}
}

// userToken creates a user directly in the store and signs a token for it.
func (a *testAPI) userToken(username string, role user.Role, staff bool) string {
	a.t.Helper()

	u, err := a.store.Users().Create(context.Background(), user.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsStaff:  staff,
	})
	require.NoError(a.t, err)

	token, err := a.tokens.GenerateAccessToken(u.ID, u.Username, string(u.Role))
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	body := decode[map[string]map[string]any](t, w)
	code, _ := body["error"]["code"].(string)
	return code
}

type titleBody struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Rating *float64 `json:"rating"`
	Genre  []struct {
		Slug string `json:"slug"`
	} `json:"genre"`
	Category *struct {
		Slug string `json:"slug"`
	} `json:"category"`
}

type idBody struct {
	ID int64 `json:"id"`
}

func TestAPI_ConfirmationCodeFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/email", "", map[string]string{"email": "Reader@Example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	issued := decode[map[string]string](t, w)
	assert.Equal(t, "reader@example.com", issued["email"])
	assert.Equal(t, "reader@example.com", issued["username"])

	pending := api.store.Jobs().Pending()
	require.Len(t, pending, 1)

	decoded, err := jobs.DecodePayload(pending[0])
	require.NoError(t, err)
	payload := decoded.(jobs.SendConfirmationCodePayload)

	w = api.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"email":             "reader@example.com",
		"confirmation_code": "not-the-code",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"email":             "reader@example.com",
		"confirmation_code": payload.Code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, token)

	// the code is single use
	w = api.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"email":             "reader@example.com",
		"confirmation_code": payload.Code,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "user", decode[map[string]any](t, w)["role"])

	w = api.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"email":             "nobody@example.com",
		"confirmation_code": "x",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_RouteLevelPolicies(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.userToken("bob", user.RoleUser, false)
	staffToken := api.userToken("staff", user.RoleUser, true)

	category := map[string]string{"name": "Books", "slug": "books"}

	w := api.do(http.MethodPost, "/api/v1/categories", "", category)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/categories", userToken, category)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = api.do(http.MethodPost, "/api/v1/categories", staffToken, category)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users", staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/titles", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/titles", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_ReviewsRatingAndModeration(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken("admin", user.RoleAdmin, false)
	alice := api.userToken("alice", user.RoleUser, false)
	bob := api.userToken("bob", user.RoleUser, false)
	mod := api.userToken("mod", user.RoleModerator, false)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/categories", admin,
		map[string]string{"name": "Books", "slug": "books"}).Code)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/genres", admin,
		map[string]string{"name": "Science fiction", "slug": "sf"}).Code)

	w := api.do(http.MethodPost, "/api/v1/titles", admin, map[string]any{
		"name": "Dune", "year": 1965, "category": "books", "genre": []string{"sf"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dune := decode[titleBody](t, w)
	assert.Nil(t, dune.Rating)

	w = api.do(http.MethodPost, "/api/v1/titles", admin, map[string]any{"name": "Ghost", "year": 2000, "genre": []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	reviews := fmt.Sprintf("/api/v1/titles/%d/reviews", dune.ID)

	w = api.do(http.MethodPost, reviews, alice, map[string]any{"text": "classic", "score": 9})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	aliceReview := decode[idBody](t, w)

	w = api.do(http.MethodPost, reviews, alice, map[string]any{"text": "again", "score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_reviewed", errorCode(t, w))

	w = api.do(http.MethodPost, reviews, bob, map[string]any{"text": "slow", "score": 6})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", dune.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[titleBody](t, w)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.5, *got.Rating, 0.001)

	aliceReviewPath := fmt.Sprintf("%s/%d", reviews, aliceReview.ID)

	w = api.do(http.MethodPatch, aliceReviewPath, bob, map[string]any{"score": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, aliceReviewPath, bob, map[string]any{"score": 11})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, aliceReviewPath, "", map[string]any{"score": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPatch, aliceReviewPath, mod, map[string]any{"text": "moderated"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	comments := aliceReviewPath + "/comments"
	w = api.do(http.MethodPost, comments, bob, map[string]any{"text": "disagree"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[idBody](t, w)

	w = api.do(http.MethodDelete, fmt.Sprintf("%s/%d", comments, comment.ID), alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, fmt.Sprintf("%s/%d", comments, comment.ID), mod, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments", dune.ID+100, aliceReview.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/titles/%d", dune.ID), admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, aliceReviewPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_HugePageIsRejected(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken("admin", user.RoleAdmin, false)

	w := api.do(http.MethodPost, "/api/v1/titles", admin, map[string]any{"name": "Dune", "year": 1965})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cases := []struct {
		path  string
		token string
	}{
		{"/api/v1/titles?page=9223372036854775807", ""},
		{"/api/v1/titles?page=922337203685477581&limit=100", ""},
		{"/api/v1/users?page=9223372036854775807", admin},
	}
	for _, tc := range cases {
		w = api.do(http.MethodGet, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.Equal(t, "validation_failed", errorCode(t, w), tc.path)
	}

	w = api.do(http.MethodGet, "/api/v1/titles?page=2", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_TitleFilters(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken("admin", user.RoleAdmin, false)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/genres", admin,
		map[string]string{"name": "Drama", "slug": "drama"}).Code)

	for _, body := range []map[string]any{
		{"name": "Hamlet", "year": 1603, "genre": []string{"drama"}},
		{"name": "hamlet retold", "year": 2001},
		{"name": "Macbeth", "year": 1623, "genre": []string{"drama"}},
	} {
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/titles", admin, body).Code)
	}

	names := func(path string) []string {
		w := api.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		page := decode[struct {
			Items []titleBody `json:"items"`
			Total int         `json:"total"`
		}](t, w)

		out := make([]string, 0, len(page.Items))
		for _, it := range page.Items {
			out = append(out, it.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Hamlet"}, names("/api/v1/titles?name=Ham"))
	assert.Equal(t, []string{"Hamlet", "hamlet retold"}, names("/api/v1/titles?search=HAMLET"))
	assert.Equal(t, []string{"Hamlet", "Macbeth"}, names("/api/v1/titles?genre=drama"))
	assert.Equal(t, []string{"Macbeth"}, names("/api/v1/titles?genre=drama&year=1623"))
	assert.Equal(t, []string{}, names("/api/v1/titles?category=none"))
	assert.Equal(t, []string{"hamlet retold"}, names("/api/v1/titles?page=2&limit=1"))
}

func TestAPI_OperationalEndpoints(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/metrics", "", nil).Code)
}
