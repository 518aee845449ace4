package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
)

func titlesRouter(store handlers.TitleStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewTitlesHandler(store)

	r := gin.New()
	r.GET("/titles", h.List)
	r.POST("/titles", h.Create)
	r.GET("/titles/:title_id", h.Get)
	r.DELETE("/titles/:title_id", h.Delete)
	return r
}

func TestTitles_CreateRejectsFutureYear(t *testing.T) {
	called := false
	r := titlesRouter(fakeTitles{
		createFn: func(ctx context.Context, w title.Write) (title.Title, error) {
			called = true
			return title.Title{}, nil
		},
	})

	w := postJSON(r, "/titles", `{"name":"Later","year":3000}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
	if called {
		t.Fatalf("store must not be called for an invalid year")
	}

	resp := decodeError(t, w)
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "year" {
		t.Fatalf("expected a single year field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestTitles_CreateRejectsYearBeforeMinimum(t *testing.T) {
	r := titlesRouter(fakeTitles{})

	w := postJSON(r, "/titles", `{"name":"Too old","year":1307}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestTitles_CreateUnknownCategoryIsFieldError(t *testing.T) {
	r := titlesRouter(fakeTitles{
		createFn: func(ctx context.Context, w title.Write) (title.Title, error) {
			return title.Title{}, title.ErrUnknownCategory
		},
	})

	w := postJSON(r, "/titles", `{"name":"Dune","year":1965,"category":"nope"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "validation_failed" {
		t.Fatalf("unexpected code %q", resp.Error.Code)
	}
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "category" {
		t.Fatalf("expected category field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestTitles_CreatePassesSlugsToStore(t *testing.T) {
	var got title.Write
	r := titlesRouter(fakeTitles{
		createFn: func(ctx context.Context, w title.Write) (title.Title, error) {
			got = w
			return title.Title{ID: 1, Name: w.Name, Year: w.Year}, nil
		},
	})

	w := postJSON(r, "/titles", `{"name":"Dune","year":1965,"category":"book","genre":["sf","classic"]}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}
	if got.CategorySlug == nil || *got.CategorySlug != "book" {
		t.Fatalf("unexpected category slug %v", got.CategorySlug)
	}
	if len(got.GenreSlugs) != 2 || got.GenreSlugs[0] != "sf" {
		t.Fatalf("unexpected genre slugs %v", got.GenreSlugs)
	}
}

func TestTitles_ListParsesFiltersAndPage(t *testing.T) {
	var got title.ListFilter
	r := titlesRouter(fakeTitles{
		listFn: func(ctx context.Context, f title.ListFilter) ([]title.Title, int, error) {
			got = f
			return []title.Title{{ID: 6, Name: "Dune", Year: 1965}}, 6, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/titles?name=Du&genre=sf&year=1965&page=2&limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if got.Name == nil || *got.Name != "Du" {
		t.Fatalf("name filter not passed: %v", got.Name)
	}
	if got.Genre == nil || *got.Genre != "sf" {
		t.Fatalf("genre filter not passed: %v", got.Genre)
	}
	if got.Year == nil || *got.Year != 1965 {
		t.Fatalf("year filter not passed: %v", got.Year)
	}
	if got.Category != nil || got.Search != nil {
		t.Fatalf("absent parameters must stay nil: %+v", got)
	}
	if got.Limit != 5 || got.Offset != 5 {
		t.Fatalf("unexpected paging limit=%d offset=%d", got.Limit, got.Offset)
	}

	var page handlers.Page[title.Title]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Count != 1 || page.Total != 6 || page.Page != 2 || page.Limit != 5 {
		t.Fatalf("unexpected page envelope: %+v", page)
	}
}

func TestTitles_ListRejectsBadYearAndLimit(t *testing.T) {
	r := titlesRouter(fakeTitles{})

	for _, path := range []string{"/titles?year=abc", "/titles?limit=0", "/titles?limit=101", "/titles?page=0"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400", path, w.Code)
		}
	}
}

func TestTitles_ListRejectsOverflowingPage(t *testing.T) {
	r := titlesRouter(fakeTitles{
		listFn: func(ctx context.Context, f title.ListFilter) ([]title.Title, int, error) {
			t.Fatalf("store must not be called, got offset %d", f.Offset)
			return nil, 0, nil
		},
	})

	for _, path := range []string{
		"/titles?page=9223372036854775807",
		"/titles?page=922337203685477581&limit=100",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400 body=%s", path, w.Code, w.Body.String())
		}
		resp := decodeError(t, w)
		if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "page" {
			t.Fatalf("%s: expected a page field error, got %+v", path, resp.Error.Details.Fields)
		}
	}
}

func TestTitles_GetSupportsETag(t *testing.T) {
	rating := 7.67
	r := titlesRouter(fakeTitles{
		getFn: func(ctx context.Context, id int64) (title.Title, error) {
			return title.Title{
				ID:       id,
				Name:     "Dune",
				Year:     1965,
				Category: &category.Category{Name: "Book", Slug: "book"},
				Rating:   &rating,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/titles/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	req = httptest.NewRequest(http.MethodGet, "/titles/1", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestTitles_GetMissingIs404(t *testing.T) {
	r := titlesRouter(fakeTitles{
		getFn: func(ctx context.Context, id int64) (title.Title, error) {
			return title.Title{}, title.ErrNotFound
		},
	})

	for _, path := range []string{"/titles/99", "/titles/abc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: got status %d, want 404", path, w.Code)
		}
	}
}

func TestTitles_DeleteReturnsNoContent(t *testing.T) {
	var deleted int64
	r := titlesRouter(fakeTitles{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/titles/4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", w.Code)
	}
	if deleted != 4 {
		t.Fatalf("expected title 4 to be deleted, got %d", deleted)
	}
}
