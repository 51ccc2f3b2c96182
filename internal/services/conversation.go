package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/repos"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

// ErrNotOwner covers both "no such conversation" and "not yours"; the two are
// indistinguishable to the caller on purpose.
var ErrNotOwner = errors.New("conversation not found or not owned by user")

type ConversationService interface {
  Create(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
  List(ctx context.Context, userID uuid.UUID) ([]*types.ConversationSummary, error)
  GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error)
  Rename(ctx context.Context, userID, conversationID uuid.UUID, title string) error
  Delete(ctx context.Context, userID, conversationID uuid.UUID) error
  AppendExchange(ctx context.Context, conversationID uuid.UUID, userMsg, assistantMsg *types.Message) error
  OwnedBy(ctx context.Context, userID, conversationID uuid.UUID) (bool, error)
}

type conversationService struct {
  db               *gorm.DB
  log              *logger.Logger
  conversationRepo repos.ConversationRepo
  messageRepo      repos.MessageRepo
}

func NewConversationService(db *gorm.DB, log *logger.Logger, conversationRepo repos.ConversationRepo, messageRepo repos.MessageRepo) ConversationService {
  serviceLog := log.With("service", "ConversationService")
  return &conversationService{
    db:               db,
    log:              serviceLog,
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
  }
}

func (cs *conversationService) Create(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
  conversation := &types.Conversation{
    ID:     uuid.New(),
    UserID: userID,
    Title:  title,
  }
  created, err := cs.conversationRepo.Create(ctx, nil, conversation)
  if err != nil {
    return nil, fmt.Errorf("Failed to create conversation: %w", err)
  }
  cs.log.Info("Conversation created", "conversation_id", created.ID, "user_id", userID)
  return created, nil
}

func (cs *conversationService) List(ctx context.Context, userID uuid.UUID) ([]*types.ConversationSummary, error) {
  summaries, err := cs.conversationRepo.ListByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list conversations: %w", err)
  }
  if summaries == nil {
    summaries = []*types.ConversationSummary{}
  }
  return summaries, nil
}

func (cs *conversationService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error) {
  owned, err := cs.OwnedBy(ctx, userID, conversationID)
  if err != nil {
    return nil, err
  }
  if !owned {
    return nil, ErrNotOwner
  }
  messages, err := cs.messageRepo.ListByConversation(ctx, nil, conversationID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list messages: %w", err)
  }
  if messages == nil {
    messages = []*types.Message{}
  }
  return messages, nil
}

func (cs *conversationService) Rename(ctx context.Context, userID, conversationID uuid.UUID, title string) error {
  owned, err := cs.OwnedBy(ctx, userID, conversationID)
  if err != nil {
    return err
  }
  if !owned {
    return ErrNotOwner
  }
  if err := cs.conversationRepo.UpdateTitle(ctx, nil, conversationID, title); err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return ErrNotOwner
    }
    return fmt.Errorf("Failed to update conversation title: %w", err)
  }
  return nil
}

func (cs *conversationService) Delete(ctx context.Context, userID, conversationID uuid.UUID) error {
  if err := cs.conversationRepo.DeleteOwned(ctx, nil, conversationID, userID); err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return ErrNotOwner
    }
    return fmt.Errorf("Failed to delete conversation: %w", err)
  }
  cs.log.Info("Conversation deleted", "conversation_id", conversationID, "user_id", userID)
  return nil
}

// AppendExchange writes both turns and bumps the conversation's updated_at in
// one transaction: either the whole exchange lands or none of it does.
func (cs *conversationService) AppendExchange(ctx context.Context, conversationID uuid.UUID, userMsg, assistantMsg *types.Message) error {
  now := time.Now()
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    userMsg.ID = uuid.New()
    userMsg.ConversationID = conversationID
    userMsg.Role = types.MessageRoleUser
    userMsg.CreatedAt = now
    if _, err := cs.messageRepo.Create(ctx, tx, userMsg); err != nil {
      return fmt.Errorf("Failed to save user message: %w", err)
    }
    assistantMsg.ID = uuid.New()
    assistantMsg.ConversationID = conversationID
    assistantMsg.Role = types.MessageRoleAssistant
    // strictly after the user turn, so created_at ordering matches turn order
    assistantMsg.CreatedAt = now.Add(time.Millisecond)
    if _, err := cs.messageRepo.Create(ctx, tx, assistantMsg); err != nil {
      return fmt.Errorf("Failed to save assistant message: %w", err)
    }
    if err := cs.conversationRepo.Touch(ctx, tx, conversationID, assistantMsg.CreatedAt); err != nil {
      return fmt.Errorf("Failed to bump conversation updated_at: %w", err)
    }
    return nil
  })
}

func (cs *conversationService) OwnedBy(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
  conversation, err := cs.conversationRepo.GetByID(ctx, nil, conversationID)
  if err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return false, nil
    }
    return false, fmt.Errorf("Failed to load conversation: %w", err)
  }
  return conversation.UserID == userID, nil
}
