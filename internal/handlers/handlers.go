package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"streamify/api/internal/chat"
	"streamify/api/internal/config"
	"streamify/api/internal/middleware"
	"streamify/api/internal/repository"
	"streamify/api/internal/service"
	syncpkg "streamify/api/internal/sync"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	users       middleware.UserLoader
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, chatClient *chat.Client, outbox *syncpkg.Outbox, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	auth := service.NewAuthService(userRepo, outbox, chatClient, cfg, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		users:       userRepo,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	gate := middleware.Auth(h.cfg, h.users, h.log)

	protected := router.Group("/auth")
	protected.Use(gate)
	protected.POST("/onboarding", h.Onboard)
	protected.GET("/me", h.Me)

	chatGroup := router.Group("/chat")
	chatGroup.Use(gate)
	chatGroup.GET("/token", h.ChatToken)
}
