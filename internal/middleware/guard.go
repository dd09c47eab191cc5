package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"workflow/internal/model"
	"workflow/internal/session"

	"github.com/gin-gonic/gin"
)

const loginPath = "/login"

// Decision is the outcome of Decide. An empty Redirect means the request passes.
type Decision struct {
	Redirect string
}

func (d Decision) Pass() bool {
	return d.Redirect == ""
}

var publicPrefixes = []string{"/api/internal/", "/swagger/"}

var publicPaths = map[string]bool{
	loginPath:       true,
	"/api/internal": true,
	"/health":       true,
	"/favicon.ico":  true,
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide routes a request by path and session alone. claims is nil for anonymous requests.
//
//   - anonymous on a protected path: redirect to /login?callbackUrl=<path[?query]>
//   - signed in on /login: redirect to /
//   - /admin* without the ADMIN role: redirect to /
func Decide(path, rawQuery string, claims *session.Claims) Decision {
	if claims == nil {
		if isPublic(path) {
			return Decision{}
		}
		callback := path
		if rawQuery != "" {
			callback += "?" + rawQuery
		}
		return Decision{Redirect: loginPath + "?callbackUrl=" + url.QueryEscape(callback)}
	}

	if path == loginPath {
		return Decision{Redirect: "/"}
	}
	if strings.HasPrefix(path, "/admin") && claims.Role != model.RoleAdmin {
		return Decision{Redirect: "/"}
	}
	return Decision{}
}

// Guard parses the session token and applies Decide. Invalid or expired tokens
// count as no session.
func Guard(sessions *session.Manager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims *session.Claims
		if token := TokenFromRequest(c, cookieName); token != "" {
			if parsed, err := sessions.Parse(token); err == nil {
				claims = parsed
			}
		}

		d := Decide(c.Request.URL.Path, c.Request.URL.RawQuery, claims)
		if !d.Pass() {
			c.Redirect(http.StatusFound, d.Redirect)
			c.Abort()
			return
		}

		if claims != nil {
			setSession(c, claims)
		}
		c.Next()
	}
}
