package server

import (
  "strings"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/codemate-vn/codemate-backend/internal/handlers"
  "github.com/codemate-vn/codemate-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler           *handlers.AuthHandler
  ConversationHandler   *handlers.ConversationHandler
  ChatHandler           *handlers.ChatHandler
  AuthMiddleware        *middleware.AuthMiddleware
  RateLimitMiddleware   *middleware.RateLimitMiddleware
  AllowOrigins          []string
  MediaDir              string
  ServiceName           string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware(cfg.ServiceName))

  allowOrigins := cfg.AllowOrigins
  if len(allowOrigins) == 0 {
    allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  if strings.TrimSpace(cfg.MediaDir) != "" {
    router.Static("/media", cfg.MediaDir)
  }

  api := router.Group("/api")
  api.POST("/auth/register", cfg.AuthHandler.Register)
  api.POST("/auth/login", cfg.AuthHandler.Login)
  api.POST("/auth/google", cfg.AuthHandler.GoogleLogin)

// ===============
// || Protected ||
// ===============
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/auth/logout", cfg.AuthHandler.Logout)
  protected.GET("/auth/me", cfg.AuthHandler.GetMe)
  // Conversations
  protected.GET("/conversations", cfg.ConversationHandler.List)
  protected.POST("/conversations", cfg.ConversationHandler.Create)
  protected.GET("/conversations/:id", cfg.ConversationHandler.GetMessages)
  protected.DELETE("/conversations/:id", cfg.ConversationHandler.Delete)
  protected.PUT("/conversations/:id/title", cfg.ConversationHandler.Rename)
  // Chat
  chat := protected.Group("/")
  if cfg.RateLimitMiddleware != nil {
    chat.Use(cfg.RateLimitMiddleware.LimitChat())
  }
  chat.POST("/chat", cfg.ChatHandler.Process)

  return router
}
