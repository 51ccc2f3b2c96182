package types

import (
  "time"
  "github.com/google/uuid"
)

// DefaultConversationTitle is the localized placeholder used when a client
// creates a thread without naming it.
const DefaultConversationTitle = "Cuộc hội thoại mới"

type Conversation struct {
  ID            uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID        uuid.UUID   `gorm:"index;not null" json:"user_id"`
  Title         string      `gorm:"not null;column:title" json:"title"`
  CreatedAt     time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string {
  return "conversation"
}

// ConversationSummary is the list-view projection: most recently active first,
// with the earliest user turn as a preview.
type ConversationSummary struct {
  ID            uuid.UUID   `json:"id"`
  Title         string      `json:"title"`
  CreatedAt     time.Time   `json:"created_at"`
  UpdatedAt     time.Time   `json:"updated_at"`
  FirstMessage  string      `json:"first_message"`
}
