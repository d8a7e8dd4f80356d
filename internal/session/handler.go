package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/token"
	apperrors "github.com/rentpro/portal/pkg/errors"
	"github.com/rentpro/portal/pkg/response"
)

// Context keys set by the auth middleware
const (
	ContextIDKey     = "session_id"
	ContextTokenKey  = "session_token"
	ContextClaimsKey = "claims"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handler handles session HTTP requests
type Handler struct {
	service      *Service
	client       *backend.Client
	cookieName   string
	secureCookie bool
	healthChecks map[string]HealthCheck
}

// NewHandler creates a new session handler
func NewHandler(service *Service, client *backend.Client, cookieName string, secureCookie bool) *Handler {
	return &Handler{
		service:      service,
		client:       client,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		healthChecks: make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency reported by /health
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.healthChecks[name] = check
}

// IDFromRequest reads the session ID from the cookie or, failing that,
// from a "Bearer <session id>" Authorization header
func IDFromRequest(c *gin.Context, cookieName string) string {
	if id, err := c.Cookie(cookieName); err == nil && id != "" {
		return id
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// ClaimsFromContext returns the claims stored by the auth middleware
func ClaimsFromContext(c *gin.Context) (*token.Claims, bool) {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*token.Claims)
	return claims, ok
}

// Login handles email/password login
// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	req.IPAddress = c.ClientIP()

	sess, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, backend.ErrUnauthorized):
			response.Abort(c, apperrors.ErrInvalidCredentials)
		case errors.Is(err, ErrInvalidToken):
			response.Abort(c, apperrors.ErrInvalidToken)
		case errors.Is(err, ErrLockedOut):
			response.Abort(c, apperrors.ErrTooManyAttempts)
		default:
			response.ErrorWithCause(c, err, backend.ToAppError(err))
		}
		return
	}

	// Remembered sessions outlive the browser; others are session cookies
	maxAge := 0
	if req.RememberMe {
		maxAge = int(sess.ExpiresIn)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, sess.ID, maxAge, "/", "", h.secureCookie, true)

	response.Success(c, http.StatusOK, gin.H{
		"session": sess.ID,
		"user":    sess.Claims,
	})
}

// Logout removes the caller's session
// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	id := IDFromRequest(c, h.cookieName)
	if id == "" {
		response.ValidationError(c, "no session to log out")
		return
	}

	if err := h.service.Logout(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	response.Success(c, http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Session describes the caller's token
// GET /auth/session (requires authentication)
func (h *Handler) Session(c *gin.Context) {
	status, err := h.service.StatusOf(c.GetString(ContextTokenKey))
	if err != nil {
		response.Abort(c, apperrors.ErrTokenExpired)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// Me returns the signed-in user's backend profile
// GET /auth/me (requires authentication)
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.client.WithToken(c.GetString(ContextTokenKey)).UserProfile(c.Request.Context())
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// Health returns health status
// GET /health
func (h *Handler) Health(c *gin.Context) {
	if len(h.healthChecks) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	checks := make(map[string]string, len(h.healthChecks))
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = "down"
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}
