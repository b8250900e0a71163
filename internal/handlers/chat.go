package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatToken hands the authenticated user a credential for the external chat
// transport. The token is minted locally from the chat API secret.
func (h HandlerSet) ChatToken(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, err := h.authService.ChatToken(user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("issue chat token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
