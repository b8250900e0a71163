package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"streamify/api/internal/config"
	"streamify/api/internal/models"
	"streamify/api/internal/repository"
	"streamify/api/internal/security"
)

// CurrentUserKey is where Auth stores the resolved user in the gin context.
const CurrentUserKey = "current_user"

// UserLoader resolves the user a verified token belongs to.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth gates protected routes on a valid session cookie. Every authentication
// failure (missing cookie, bad signature, expired token, vanished user) gets
// the same generic 401 so callers cannot probe which check failed; store
// faults other than not-found surface as 500 so clients know to retry rather
// than re-authenticate.
func Auth(cfg *config.AppConfig, users UserLoader, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(cfg.Security.CookieName)
		if err != nil || tokenStr == "" {
			unauthorized(c)
			return
		}

		userID, err := security.ParseSessionToken(tokenStr, cfg.Security.SessionSecret)
		if err != nil {
			log.Debug().Err(err).Msg("session token rejected")
			unauthorized(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				unauthorized(c)
				return
			}
			log.Error().Err(err).Msg("resolve session user failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		user.PasswordHash = nil
		c.Set(CurrentUserKey, user)

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
