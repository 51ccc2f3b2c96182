package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

type SessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
  GetByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) (*types.Session, error)
  DeleteByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) error
  DeleteExpiredForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type sessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
  repoLog := baseLog.With("repo", "SessionRepo")
  return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) conn(tx *gorm.DB) *gorm.DB {
  if tx != nil {
    return tx
  }
  return sr.db
}

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
  if err := sr.conn(tx).WithContext(ctx).Create(session).Error; err != nil {
    sr.log.Error("Failed to create session", "error", err)
    return nil, mapStoreError(err)
  }
  return session, nil
}

func (sr *sessionRepo) GetByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) (*types.Session, error) {
  var session types.Session
  if err := sr.conn(tx).WithContext(ctx).
    Where("access_token = ?", accessToken).
    First(&session).Error; err != nil {
    return nil, mapStoreError(err)
  }
  return &session, nil
}

func (sr *sessionRepo) DeleteByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) error {
  result := sr.conn(tx).WithContext(ctx).
    Where("access_token = ?", accessToken).
    Delete(&types.Session{})
  if result.Error != nil {
    sr.log.Error("Failed to delete session", "error", result.Error)
    return mapStoreError(result.Error)
  }
  if result.RowsAffected == 0 {
    return ErrNotFound
  }
  return nil
}

func (sr *sessionRepo) DeleteExpiredForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  if err := sr.conn(tx).WithContext(ctx).
    Where("user_id = ? AND expires_at < ?", userID, time.Now()).
    Delete(&types.Session{}).Error; err != nil {
    return mapStoreError(err)
  }
  return nil
}
