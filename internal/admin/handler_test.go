package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mstoyanov/booker/internal/config"
)

type fakeStatus struct{ text string }

func (f fakeStatus) Status() string { return f.text }

func newTestHandler(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	cfg := config.Config{
		JWTSecret:         "test-secret",
		AdminPasswordHash: string(hash),
		AccessTTLMin:      5,
	}
	h := NewHandler(cfg, fakeStatus{text: "Movie: GodFather\n"}, nil)
	e := echo.New()
	h.Register(e)
	return e, h
}

func TestHealthz(t *testing.T) {
	e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginAndAccessProtectedRoute(t *testing.T) {
	e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"s3cret!"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatalf("expected access_token in response: %s", rec.Body.String())
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	statusReq.Header.Set("Authorization", "Bearer "+body.AccessToken)
	statusRec := httptest.NewRecorder()
	e.ServeHTTP(statusRec, statusReq)

	if statusRec.Code != http.StatusOK || statusRec.Body.String() != "Movie: GodFather\n" {
		t.Fatalf("got %d %q", statusRec.Code, statusRec.Body.String())
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", rec.Code)
	}
}
