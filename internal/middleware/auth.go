package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentpro/portal/internal/session"
	"github.com/rentpro/portal/internal/token"
	apperrors "github.com/rentpro/portal/pkg/errors"
	"github.com/rentpro/portal/pkg/response"
)

// Session validation results
const (
	SessionValid     = "valid"
	SessionExpired   = "expired"
	SessionMalformed = "malformed"
	SessionMissing   = "missing"
)

// Auth creates an authentication middleware. The session ID comes from the
// session cookie or an "Authorization: Bearer" header.
//
// If the request ends with 401 the backend no longer accepts the token, so
// the session is dropped.
func Auth(sessions *session.Service, cookieName string) gin.HandlerFunc {
	inspector := sessions.Inspector()

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id := session.IDFromRequest(c, cookieName)
		if id == "" {
			RecordSessionValidation(SessionMissing)
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		tok, err := sessions.Token(ctx, id)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				_ = c.Error(err)
			}
			RecordSessionValidation(SessionMissing)
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		claims, ok := inspector.Parse(tok)
		if !ok || !claims.WellFormed() {
			RecordSessionValidation(SessionMalformed)
			dropSession(c, sessions, id)
			response.Abort(c, apperrors.ErrInvalidToken)
			return
		}
		if inspector.IsExpired(tok) {
			RecordSessionValidation(SessionExpired)
			dropSession(c, sessions, id)
			response.Abort(c, apperrors.ErrTokenExpired)
			return
		}

		RecordSessionValidation(SessionValid)
		c.Set(session.ContextIDKey, id)
		c.Set(session.ContextTokenKey, tok)
		c.Set(session.ContextClaimsKey, claims)
		c.Set("user_id", claims.UserID)

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			dropSession(c, sessions, id)
		}
	}
}

func dropSession(c *gin.Context, sessions *session.Service, id string) {
	if err := sessions.Logout(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
	}
}

// RequireRole rejects callers whose role is not one of roles. It must run
// after Auth.
func RequireRole(roles ...token.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := session.ClaimsFromContext(c)
		if !ok {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.Abort(c, apperrors.ErrForbidden)
	}
}
