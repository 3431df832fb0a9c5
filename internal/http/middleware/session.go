package middleware

import (
	"net/http"

	"tableadmin/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "console_session"

// Sessions attaches the caller's console session. Only GET / opens one,
// issuing a fresh tableadmin_sid cookie when the old one is missing or
// expired; every other route needs a live session and answers 400 without.
func Sessions(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := c.Cookie(session.CookieName)
		if c.Request.Method != http.MethodGet || c.Request.URL.Path != "/" {
			s, ok := reg.Lookup(sid)
			if !ok {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":      "no console session, open / first",
					"code":       "no_session",
					"message":    "no console session, open / first",
					"request_id": GetRequestID(c),
				})
				return
			}
			c.Set(sessionKey, s)
			c.Next()
			return
		}

		s, created := reg.Resolve(sid)
		if created {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     session.CookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// CurrentSession returns the session attached by Sessions.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
