package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  MessageRoleUser      = "user"
  MessageRoleAssistant = "assistant"
)

// Message rows are append-only; created_at defines turn order within a
// conversation.
type Message struct {
  ID              uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ConversationID  uuid.UUID       `gorm:"index;not null" json:"conversation_id"`
  Conversation    *Conversation   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`
  Role            string          `gorm:"not null;column:role" json:"role"`
  Content         string          `gorm:"not null;column:content" json:"content"`
  Metadata        datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
  CreatedAt       time.Time       `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string {
  return "message"
}
