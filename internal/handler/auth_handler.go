package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest, meta service.RequestMeta) (*models.RegisterResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, claims *models.SessionClaims, meta service.RequestMeta) error
	Me(ctx context.Context, userID string) (*models.UserSummary, error)
}

// CookieConfig describes the session cookie written at login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "tg_session"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Register godoc
// @Summary Register an account
// @Description Create a teacher or student account. Students naming a teacher start with a pending link.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Verify credentials and set the HTTP-only session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	maxAge := int(time.Until(res.Session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.Token, maxAge, "/", "", h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, res.User)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the session and clear the cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), claims, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
