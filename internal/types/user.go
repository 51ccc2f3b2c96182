package types

import (
  "time"
  "github.com/google/uuid"
)

const (
  AuthProviderLocal  = "local"
  AuthProviderGoogle = "google"
)

// User carries exactly one credential depending on AuthProvider: a bcrypt
// PasswordHash for local accounts, a GoogleID for federated ones.
type User struct {
  ID             uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Email          string      `gorm:"uniqueIndex;not null;column:email" json:"email"`
  PasswordHash   string      `gorm:"column:password_hash" json:"-"`
  FullName       string      `gorm:"column:full_name" json:"full_name"`
  AvatarURL      string      `gorm:"column:avatar_url" json:"avatar_url"`
  AuthProvider   string      `gorm:"not null;default:local;column:auth_provider" json:"auth_provider"`
  GoogleID       string      `gorm:"uniqueIndex:idx_user_google_id,where:google_id <> '';column:google_id" json:"-"`
  LastLogin      *time.Time  `gorm:"column:last_login" json:"last_login,omitempty"`
  CreatedAt      time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt      time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
  return "user"
}
