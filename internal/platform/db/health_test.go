package db

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func statsFn(total int32) func() PoolStats {
	return func() PoolStats {
		return PoolStats{Total: total, Idle: total, Max: 10}
	}
}

func serveHealth(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec := serveHealth(t, healthHandler(fakePinger{}, statsFn(3), zerolog.Nop()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body Health
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "up" {
		t.Errorf("expected status up, got %q", body.Status)
	}
	if body.Pool.Total != 3 || body.Pool.Max != 10 {
		t.Errorf("unexpected pool stats %+v", body.Pool)
	}
}

func TestHealthHandler_PingFailure(t *testing.T) {
	ping := fakePinger{err: errors.New("dial tcp 10.0.0.5:5432: password authentication failed")}
	var logged strings.Builder
	logger := zerolog.New(io.Writer(&logged))

	rec := serveHealth(t, healthHandler(ping, statsFn(2), logger))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("driver error leaked into response: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"down"`) {
		t.Errorf("expected database to be reported down: %s", rec.Body.String())
	}
	if !strings.Contains(logged.String(), "password authentication failed") {
		t.Error("expected driver error to be logged")
	}
}
