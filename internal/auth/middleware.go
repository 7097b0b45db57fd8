package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionCtxKey = "auth.session"

// RequireAdmin resolves the staff session before any handler runs. A missing
// session answers 401 (or redirects browsers to /login); a non-admin answers
// 403 (or redirects browsers to /).
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := m.Resolve(c.Request)
		if !ok {
			deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required", "/login")
			return
		}
		if !IsAdmin(sess) {
			deny(c, http.StatusForbidden, "FORBIDDEN", "admin role required", "/")
			return
		}
		c.Set(sessionCtxKey, *sess)
		c.Next()
	}
}

// FromContext returns the session stored by RequireAdmin.
func FromContext(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionCtxKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

func deny(c *gin.Context, status int, code, msg, redirect string) {
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusSeeOther, redirect)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
}

// wantsHTML reports whether the client is a browser navigating to a page.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
