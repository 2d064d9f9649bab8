package api

import (
	"net/http"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// basicAuth resolves the caller from HTTP Basic credentials
func (h *Handler) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="bookstore"`)
			abortWith(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := h.users.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindUnauthorized {
				c.Header("WWW-Authenticate", `Basic realm="bookstore"`)
			}
			respondError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// requireAdmin rejects callers without the admin role. It must run after basicAuth.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			respondError(c, apperr.Forbidden("Administrator role required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
