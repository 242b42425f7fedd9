// Package admin exposes a small echo-based HTTP surface for
// operational control over the booking daemon: health checks, a
// single-account JWT login, a cached status snapshot, and a graceful
// shutdown trigger. There is no customer-facing HTTP surface — bookers
// only ever speak the Telnet-style protocol.
package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mstoyanov/booker/internal/config"
	"github.com/mstoyanov/booker/internal/utils"
)

// StatusProvider supplies the cached (or live) status dump text for
// GET /admin/status.
type StatusProvider interface {
	Status() string
}

// Handler groups the dependencies the admin routes need. All fields
// must be non-nil except shutdown, which is optional in tests.
type Handler struct {
	cfg      config.Config
	status   StatusProvider
	shutdown func()
}

// NewHandler builds a Handler. shutdown is invoked, in its own
// goroutine, on every POST /admin/shutdown; it is expected to trigger
// the same shutdown coordinator a SIGTERM would.
func NewHandler(cfg config.Config, status StatusProvider, shutdown func()) *Handler {
	return &Handler{cfg: cfg, status: status, shutdown: shutdown}
}

// Register attaches every admin route to e, including the JWT
// middleware group for the protected endpoints.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.POST("/admin/login", h.login)

	protected := e.Group("/admin")
	protected.Use(JWTAuth(h.cfg.JWTSecret))
	protected.GET("/status", h.adminStatus)
	protected.POST("/shutdown", h.adminShutdown)
}

func (h *Handler) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing password"})
	}

	if !utils.VerifyPassword(h.cfg.AdminPasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewAccessToken(h.cfg.JWTSecret, "admin", "admin", h.cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: tok.Token,
		ExpiresAt:   tok.Exp.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *Handler) adminStatus(c echo.Context) error {
	return c.String(http.StatusOK, h.status.Status())
}

func (h *Handler) adminShutdown(c echo.Context) error {
	if h.shutdown != nil {
		go h.shutdown()
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "shutting down"})
}
