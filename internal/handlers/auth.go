package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"streamify/api/internal/middleware"
	"streamify/api/internal/models"
	"streamify/api/internal/repository"
	"streamify/api/internal/service"
)

// userResponse is the outward shape of a user. The password hash has no field
// here, so it cannot leak through any handler.
type userResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"fullName"`
	AvatarURL        string `json:"avatarURL"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	IsOnboarded      bool   `json:"isOnboarded"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:               user.ID,
		Email:            user.Email,
		FullName:         user.FullName,
		AvatarURL:        user.AvatarURL,
		Bio:              user.Bio,
		NativeLanguage:   user.NativeLanguage,
		LearningLanguage: user.LearningLanguage,
		Location:         user.Location,
		IsOnboarded:      user.IsOnboarded,
	}
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(result.User)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(result.User)})
}

func (h HandlerSet) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type onboardRequest struct {
	FullName         string `json:"fullName"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	Bio              string `json:"bio"`
}

func (h HandlerSet) Onboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.authService.Onboard(c.Request.Context(), user.ID, service.OnboardInput{
		FullName:         req.FullName,
		NativeLanguage:   req.NativeLanguage,
		LearningLanguage: req.LearningLanguage,
		Location:         req.Location,
		Bio:              req.Bio,
	})
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(updated)})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.CurrentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

// writeAuthError maps service errors onto the HTTP taxonomy. Anything
// unclassified is a generic 500 with detail only in the log.
func (h HandlerSet) writeAuthError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		body := gin.H{"error": vErr.Message}
		if len(vErr.MissingFields) > 0 {
			body["missingFields"] = vErr.MissingFields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("auth flow failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

// setSessionCookie and clearSessionCookie share the same attribute set: a
// clear whose path, SameSite, Secure or HttpOnly differ from the set-time
// values leaves the cookie intact in some clients.
func (h HandlerSet) setSessionCookie(c *gin.Context, token string) {
	h.writeSessionCookie(c, token, int(h.cfg.Security.SessionTTL.Seconds()))
}

func (h HandlerSet) clearSessionCookie(c *gin.Context) {
	h.writeSessionCookie(c, "", -1)
}

func (h HandlerSet) writeSessionCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.cfg.Security.CookieCrossSite {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(h.cfg.Security.CookieName, value, maxAge, "/", "", h.cfg.Security.CookieSecure, true)
}
