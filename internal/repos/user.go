package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
  GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
  GetByEmailAndProvider(ctx context.Context, tx *gorm.DB, email, provider string) (*types.User, error)
  GetByGoogleID(ctx context.Context, tx *gorm.DB, googleID string) (*types.User, error)
  EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
  UpdateProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fullName, avatarURL string) error
  TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  repoLog := baseLog.With("repo", "UserRepo")
  return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
  if tx != nil {
    return tx
  }
  return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
  if err := ur.conn(tx).WithContext(ctx).Create(user).Error; err != nil {
    ur.log.Error("Failed to create user", "error", err)
    return nil, mapStoreError(err)
  }
  return user, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
  var user types.User
  if err := ur.conn(tx).WithContext(ctx).
    Where("id = ?", userID).
    First(&user).Error; err != nil {
    return nil, mapStoreError(err)
  }
  return &user, nil
}

func (ur *userRepo) GetByEmailAndProvider(ctx context.Context, tx *gorm.DB, email, provider string) (*types.User, error) {
  var user types.User
  if err := ur.conn(tx).WithContext(ctx).
    Where("email = ? AND auth_provider = ?", email, provider).
    First(&user).Error; err != nil {
    return nil, mapStoreError(err)
  }
  return &user, nil
}

func (ur *userRepo) GetByGoogleID(ctx context.Context, tx *gorm.DB, googleID string) (*types.User, error) {
  var user types.User
  if err := ur.conn(tx).WithContext(ctx).
    Where("google_id = ?", googleID).
    First(&user).Error; err != nil {
    return nil, mapStoreError(err)
  }
  return &user, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  var count int64
  if err := ur.conn(tx).WithContext(ctx).
    Model(&types.User{}).
    Where("email = ?", email).
    Count(&count).Error; err != nil {
    return false, mapStoreError(err)
  }
  return count > 0, nil
}

func (ur *userRepo) UpdateProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fullName, avatarURL string) error {
  updates := map[string]interface{}{
    "full_name":  fullName,
    "avatar_url": avatarURL,
    "updated_at": time.Now(),
  }
  if err := ur.conn(tx).WithContext(ctx).
    Model(&types.User{}).
    Where("id = ?", userID).
    Updates(updates).Error; err != nil {
    ur.log.Error("Failed to update user profile", "user_id", userID, "error", err)
    return mapStoreError(err)
  }
  return nil
}

func (ur *userRepo) TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  if err := ur.conn(tx).WithContext(ctx).
    Model(&types.User{}).
    Where("id = ?", userID).
    Update("last_login", time.Now()).Error; err != nil {
    return mapStoreError(err)
  }
  return nil
}
