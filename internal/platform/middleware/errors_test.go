package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func runErrorHandler(t *testing.T, method string, err error) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(method, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	ErrorHandler(zerolog.New(&buf))(err, c)
	return rec, buf.String()
}

func TestErrorHandler_StringMessage(t *testing.T) {
	rec, _ := runErrorHandler(t, http.MethodGet, echo.NewHTTPError(http.StatusForbidden, "nope"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["error"] != "nope" {
		t.Errorf("expected error=nope, got %q", body["error"])
	}
}

func TestErrorHandler_StructuredMessage(t *testing.T) {
	type payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	msg := payload{Error: "validation failed", Fields: map[string]string{"title": "is required"}}
	rec, _ := runErrorHandler(t, http.MethodPost, echo.NewHTTPError(http.StatusUnprocessableEntity, msg))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body payload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Fields["title"] != "is required" {
		t.Errorf("expected field error, got %+v", body)
	}
}

func TestErrorHandler_PlainErrorIsOpaque(t *testing.T) {
	rec, logged := runErrorHandler(t, http.MethodGet, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
	if !strings.Contains(logged, "connection refused") || !strings.Contains(logged, "rid-1") {
		t.Errorf("expected logged error with request id, got %s", logged)
	}
}

func TestErrorHandler_Head(t *testing.T) {
	rec, _ := runErrorHandler(t, http.MethodHead, echo.ErrNotFound)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestErrorHandler_Committed(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.String(http.StatusOK, "partial")

	ErrorHandler(zerolog.New(&buf))(errors.New("late"), c)
	if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
		t.Errorf("committed response was modified: %d %q", rec.Code, rec.Body.String())
	}
}
