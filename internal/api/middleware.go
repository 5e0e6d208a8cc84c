package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-avesta/Eventure-sub001/internal/annotate"
)

// RoleHeader carries the caller's role, set by whatever sits in front of the
// service and authenticates users.
const RoleHeader = "X-User-Role"

const roleKey = "role"

// ResolveRole stores the caller's role on the context. Anything other than
// "admin" is treated as a read-only user.
func ResolveRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := annotate.RoleUser
		if strings.EqualFold(strings.TrimSpace(c.GetHeader(RoleHeader)), string(annotate.RoleAdmin)) {
			role = annotate.RoleAdmin
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

func roleOf(c *gin.Context) annotate.Role {
	if v, ok := c.Get(roleKey); ok {
		if r, ok := v.(annotate.Role); ok {
			return r
		}
	}
	return annotate.RoleUser
}

// RequireAdmin rejects callers that may not mutate the document.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if roleOf(c) != annotate.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// RequestLogger writes one zerolog line per request.
func RequestLogger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Str("role", string(roleOf(c))).
			Msg("request")
	}
}
