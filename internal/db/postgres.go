package db

import (
  "fmt"
  "time"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/codemate-vn/codemate-backend/internal/types"
  "github.com/codemate-vn/codemate-backend/internal/utils"
  "github.com/codemate-vn/codemate-backend/internal/logger"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "codemate", log)
  poolSize := utils.GetEnvAsInt("POSTGRES_POOL_SIZE", 5, log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  // Bounded pool: a request waits for a slot instead of opening new
  // connections without limit.
  sqlDB, err := gdb.DB()
  if err != nil {
    return nil, fmt.Errorf("Failed to access underlying sql.DB: %w", err)
  }
  sqlDB.SetMaxOpenConns(poolSize)
  sqlDB.SetMaxIdleConns(poolSize)
  sqlDB.SetConnMaxLifetime(30 * time.Minute)

  if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.Session{},
    &types.Conversation{},
    &types.Message{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  s.log.Info("Configuring foreign key relationships for postgres tables...")
  if err := s.db.Exec(`
    ALTER TABLE "session"
    DROP CONSTRAINT IF EXISTS "fk_session_user_id";
    ALTER TABLE "session"
    ADD CONSTRAINT "fk_session_user_id"
    FOREIGN KEY ("user_id")
    REFERENCES "user"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("Failed to add fk_session_user_id: %w", err)
  }
  if err := s.db.Exec(`
    ALTER TABLE "message"
    DROP CONSTRAINT IF EXISTS "fk_message_conversation_id";
    ALTER TABLE "message"
    ADD CONSTRAINT "fk_message_conversation_id"
    FOREIGN KEY ("conversation_id")
    REFERENCES "conversation"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("Failed to add fk_message_conversation_id: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
