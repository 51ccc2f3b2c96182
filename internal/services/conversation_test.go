package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/codemate-vn/codemate-backend/internal/types"
)

func TestConversationService_AppendExchange_WritesPairAndBumpsConversation(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	service := newTestConversationService(t, db)
	ctx := context.Background()

	user := seedUser(t, db, "exchange@example.com")
	first, err := service.Create(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := service.Create(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = service.AppendExchange(ctx, first.ID,
		&types.Message{Content: "xin chào"},
		&types.Message{Content: "Xin chào! Rất vui được trò chuyện với bạn."},
	)
	if err != nil {
		t.Fatalf("append exchange: %v", err)
	}

	messages, err := service.GetMessages(ctx, user.ID, first.ID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != types.MessageRoleUser || messages[1].Role != types.MessageRoleAssistant {
		t.Fatalf("unexpected roles: %s / %s", messages[0].Role, messages[1].Role)
	}
	if !messages[0].CreatedAt.Before(messages[1].CreatedAt) {
		t.Fatalf("user turn must precede assistant turn")
	}

	// the touched conversation moves to the head of the list
	summaries, err := service.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != first.ID {
		t.Fatalf("expected %s first, got %+v", first.ID, summaries)
	}
	_ = second
}

func TestConversationService_GetMessages_RejectsNonOwner(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	service := newTestConversationService(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "own@example.com")
	intruder := seedUser(t, db, "peek@example.com")
	conv, err := service.Create(ctx, owner.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.GetMessages(ctx, intruder.ID, conv.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	// unknown conversation is indistinguishable from a foreign one
	if _, err := service.GetMessages(ctx, owner.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestConversationService_RenameAndDelete_OwnershipChecked(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	service := newTestConversationService(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "rn@example.com")
	intruder := seedUser(t, db, "rn2@example.com")
	conv, err := service.Create(ctx, owner.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Rename(ctx, intruder.ID, conv.ID, "stolen"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := service.Rename(ctx, owner.ID, conv.ID, "chủ đề mới"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if err := service.Delete(ctx, intruder.ID, conv.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := service.Delete(ctx, owner.ID, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	summaries, err := service.List(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(summaries))
	}
}

func TestConversationService_List_EmptyIsNotNil(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	service := newTestConversationService(t, db)

	user := seedUser(t, db, "empty@example.com")
	summaries, err := service.List(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if summaries == nil {
		t.Fatalf("expected non-nil empty slice")
	}
}
