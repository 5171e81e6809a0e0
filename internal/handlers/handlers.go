package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crcsite/internal/config"
	"crcsite/internal/middleware"
	"crcsite/internal/models"
	"crcsite/internal/queue"
	"crcsite/internal/repository"
	"crcsite/internal/service"
	"crcsite/internal/session"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	sessions    *session.Store
	producer    *queue.Producer
	roles       *repository.RoleRepository
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	producer := queue.NewProducer(cache, cfg.Redis.Stream)
	auth := service.NewAuthService(userRepo, producer, cfg, log)
	sessions := session.NewStore(cache, cfg.Security.SessionTTL)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		sessions:    sessions,
		producer:    producer,
		roles:       repository.NewRoleRepository(db),
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.SessionAuth(h.sessions))
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/recover", h.Recover)
		auth.POST("/reset", h.Reset)

		v1.POST("/token", h.Token)
		v1.POST("/contact", h.Contact)

		api := v1.Group("")
		api.Use(middleware.BearerAuth(h.cfg.Security.SecretKey))
		api.PUT("/account", middleware.RequireRoles(models.RoleUser), h.ChangePassword)
		api.DELETE("/account", middleware.RequireRoles(models.RoleUser), h.DeleteAccount)
		api.POST("/message", middleware.RequireRoles(models.RoleUser), h.Message)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/roles", h.AdminListRoles)
	}
}

// The response envelope every endpoint shares.
type baseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func success(message string) baseResponse {
	return baseResponse{Status: "success", Message: message}
}

func failure(message string) baseResponse {
	return baseResponse{Status: "failure", Message: message}
}
