package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/codemate-vn/codemate-backend/internal/db"
  "github.com/codemate-vn/codemate-backend/internal/handlers"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/middleware"
  "github.com/codemate-vn/codemate-backend/internal/observability"
  "github.com/codemate-vn/codemate-backend/internal/repos"
  "github.com/codemate-vn/codemate-backend/internal/server"
  "github.com/codemate-vn/codemate-backend/internal/services"
  "github.com/codemate-vn/codemate-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Tracing
  shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "codemate-backend",
    Environment: logMode,
  })
  if shutdownOtel != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownOtel(ctx)
    }()
  }

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)
  googleClientID := utils.GetEnv("GOOGLE_CLIENT_ID", "", log)
  uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads", log)
  mediaDir := utils.GetEnv("MEDIA_DIR", "media", log)
  publicBaseURL := utils.GetEnv("PUBLIC_BASE_URL", "http://localhost:8080", log)
  cookieSecure := strings.EqualFold(utils.GetEnv("SESSION_COOKIE_SECURE", "false", log), "true")
  chatRateLimit := utils.GetEnvAsInt("CHAT_RATE_LIMIT", 0, log)
  chatRateWindow := utils.GetEnvAsInt("CHAT_RATE_WINDOW_SECONDS", 60, log)
  allowOrigins := splitOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log))

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  sessionRepo := repos.NewSessionRepo(thePG, log)
  conversationRepo := repos.NewConversationRepo(thePG, log)
  messageRepo := repos.NewMessageRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  avatarService, err := services.NewAvatarService(log, mediaDir, publicBaseURL)
  if err != nil {
    log.Warn("Could not init AvatarService (avatars disabled)", "error", err)
    avatarService = nil
  }
  authService := services.NewAuthService(thePG, log, userRepo, sessionRepo, avatarService, jwtSecretKey, googleClientID, time.Duration(accessTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  conversationService := services.NewConversationService(thePG, log, conversationRepo, messageRepo)
  transcriber := services.NewTranscriber(log)
  defer transcriber.Close()
  responder := services.NewResponder(log)
  chatService := services.NewChatService(thePG, log, conversationService, transcriber, responder, uploadDir)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService, userService, middleware.SessionCookieName, cookieSecure)
  conversationHandler := handlers.NewConversationHandler(conversationService)
  chatHandler := handlers.NewChatHandler(log, chatService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  var rdb *redis.Client
  if addr := utils.GetEnv("REDIS_ADDR", "", log); addr != "" {
    rdb = redis.NewClient(&redis.Options{
      Addr:     addr,
      Password: os.Getenv("REDIS_PASSWORD"),
    })
  }
  rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, rdb, chatRateLimit, time.Duration(chatRateWindow)*time.Second)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:         authHandler,
    ConversationHandler: conversationHandler,
    ChatHandler:         chatHandler,
    AuthMiddleware:      authMiddleware,
    RateLimitMiddleware: rateLimitMiddleware,
    AllowOrigins:        allowOrigins,
    MediaDir:            mediaDir,
    ServiceName:         "codemate-backend",
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

func splitOrigins(raw string) []string {
  if strings.TrimSpace(raw) == "" {
    return nil
  }
  parts := strings.Split(raw, ",")
  origins := make([]string, 0, len(parts))
  for _, p := range parts {
    if p = strings.TrimSpace(p); p != "" {
      origins = append(origins, p)
    }
  }
  return origins
}
