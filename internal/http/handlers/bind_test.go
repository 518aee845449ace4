package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
)

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
		Details   struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/titles", func(ctx *gin.Context) {
		var req title.CreateRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := postJSON(r, "/titles", `{"description":"no name, no year"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"name": "required",
		"year": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/titles", func(ctx *gin.Context) {
		var req title.CreateRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := postJSON(r, "/titles", `{"name":"Dune","year":"nineteen sixty-five"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "year" {
		t.Fatalf("expected detail field to be year, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}
	if got := resp.Error.Details.Fields[0].Rule; got != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", got)
	}
}

func TestValidated_RendersOzzoErrorsAsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/reviews", func(ctx *gin.Context) {
		var req review.CreateRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		if !handlers.Validated(ctx, req.Validate()) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := postJSON(r, "/reviews", `{"text":"too generous","score":11}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "validation_failed" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}
	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}

	fe := resp.Error.Details.Fields[0]
	if fe.Field != "score" || fe.Rule != "score_range" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
	if fe.Message != "must be between 1 and 10" {
		t.Fatalf("unexpected message: %q", fe.Message)
	}
}
