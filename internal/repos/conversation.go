package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error)
  GetByID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, error)
  ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ConversationSummary, error)
  UpdateTitle(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, title string) error
  Touch(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, at time.Time) error
  DeleteOwned(ctx context.Context, tx *gorm.DB, conversationID, userID uuid.UUID) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  repoLog := baseLog.With("repo", "ConversationRepo")
  return &conversationRepo{db: db, log: repoLog}
}

func (cr *conversationRepo) conn(tx *gorm.DB) *gorm.DB {
  if tx != nil {
    return tx
  }
  return cr.db
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
  if conversation.Title == "" {
    conversation.Title = types.DefaultConversationTitle
  }
  if err := cr.conn(tx).WithContext(ctx).Create(conversation).Error; err != nil {
    cr.log.Error("Failed to create conversation", "error", err)
    return nil, mapStoreError(err)
  }
  return conversation, nil
}

func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, error) {
  var conversation types.Conversation
  if err := cr.conn(tx).WithContext(ctx).
    Where("id = ?", conversationID).
    First(&conversation).Error; err != nil {
    return nil, mapStoreError(err)
  }
  return &conversation, nil
}

func (cr *conversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ConversationSummary, error) {
  var summaries []*types.ConversationSummary
  err := cr.conn(tx).WithContext(ctx).
    Model(&types.Conversation{}).
    Select(`conversation.id, conversation.title, conversation.created_at, conversation.updated_at,
      COALESCE((SELECT content FROM message
        WHERE message.conversation_id = conversation.id AND message.role = 'user'
        ORDER BY message.created_at ASC LIMIT 1), '') AS first_message`).
    Where("conversation.user_id = ?", userID).
    Order("conversation.updated_at DESC").
    Scan(&summaries).Error
  if err != nil {
    cr.log.Error("Failed to list conversations", "user_id", userID, "error", err)
    return nil, mapStoreError(err)
  }
  return summaries, nil
}

// UpdateTitle deliberately skips the auto-managed updated_at: renaming a
// thread is not activity, only appended messages bump recency.
func (cr *conversationRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, title string) error {
  result := cr.conn(tx).WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", conversationID).
    UpdateColumn("title", title)
  if result.Error != nil {
    cr.log.Error("Failed to update conversation title", "conversation_id", conversationID, "error", result.Error)
    return mapStoreError(result.Error)
  }
  if result.RowsAffected == 0 {
    return ErrNotFound
  }
  return nil
}

func (cr *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, at time.Time) error {
  if err := cr.conn(tx).WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", conversationID).
    UpdateColumn("updated_at", at).Error; err != nil {
    return mapStoreError(err)
  }
  return nil
}

// DeleteOwned enforces ownership in the delete predicate itself, not with a
// prior read, so a non-owner cannot race the check.
func (cr *conversationRepo) DeleteOwned(ctx context.Context, tx *gorm.DB, conversationID, userID uuid.UUID) error {
  result := cr.conn(tx).WithContext(ctx).
    Where("id = ? AND user_id = ?", conversationID, userID).
    Delete(&types.Conversation{})
  if result.Error != nil {
    cr.log.Error("Failed to delete conversation", "conversation_id", conversationID, "error", result.Error)
    return mapStoreError(result.Error)
  }
  if result.RowsAffected == 0 {
    return ErrNotFound
  }
  return nil
}
