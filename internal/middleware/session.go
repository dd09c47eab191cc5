package middleware

import (
	"net/http"
	"strings"
	"time"

	"workflow/internal/service"
	"workflow/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set once a request carries a valid session.
const (
	ContextSession  = "session"
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SetSessionCookie stores token as an HttpOnly cookie
func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, "", -1, "/", "", cfg.Secure, true)
}

// TokenFromRequest reads the session cookie, falling back to an Authorization: Bearer header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func setSession(c *gin.Context, claims *session.Claims) {
	c.Set(ContextSession, claims)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
}

// SessionFrom returns the claims stored by Guard.
func SessionFrom(c *gin.Context) (*session.Claims, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*session.Claims)
	return claims, ok && claims != nil
}

// ActorFrom converts the request session into the acting user.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	claims, ok := SessionFrom(c)
	if !ok {
		return service.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Email: claims.Email, Name: claims.Name, Role: claims.Role}, true
}
