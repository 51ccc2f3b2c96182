package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "os"
  "path/filepath"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

var (
  ErrMissingConversationID = errors.New("conversation_id is required")
  ErrNoInput               = errors.New("provide either an audio file or a text field")
  ErrConflictingInput      = errors.New("provide either an audio file or a text field, not both")
  ErrEmptyFilename         = errors.New("audio attachment has no filename")
)

const (
  // TranscriptNotRecognized is what the caller sees as their turn when the
  // model produced no text for the audio.
  TranscriptNotRecognized = "[Không nhận diện được]"
  // ReplyNotUnderstood short-circuits empty transcripts without a generator call.
  ReplyNotUnderstood = "Xin lỗi, tôi không thể nhận diện được âm thanh."
)

// ChatAudio is one uploaded recording, already pulled off the wire.
type ChatAudio struct {
  Filename string
  MimeType string
  Reader   io.Reader
}

type ChatResult struct {
  UserInput  string `json:"user_input"`
  AIResponse string `json:"ai_response"`
}

type ChatService interface {
  Process(ctx context.Context, userID, conversationID uuid.UUID, text string, audio *ChatAudio) (*ChatResult, error)
}

type chatService struct {
  db                  *gorm.DB
  log                 *logger.Logger
  conversationService ConversationService
  transcriber         Transcriber
  responder           Responder
  uploadDir           string
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  conversationService ConversationService,
  transcriber Transcriber,
  responder Responder,
  uploadDir string,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{
    db:                  db,
    log:                 serviceLog,
    conversationService: conversationService,
    transcriber:         transcriber,
    responder:           responder,
    uploadDir:           uploadDir,
  }
}

func (chs *chatService) Process(ctx context.Context, userID, conversationID uuid.UUID, text string, audio *ChatAudio) (*ChatResult, error) {
  if conversationID == uuid.Nil {
    return nil, ErrMissingConversationID
  }
  owned, err := chs.conversationService.OwnedBy(ctx, userID, conversationID)
  if err != nil {
    return nil, err
  }
  if !owned {
    return nil, ErrNotOwner
  }

  hasAudio := audio != nil
  hasText := text != ""
  if !hasAudio && !hasText {
    return nil, ErrNoInput
  }
  if hasAudio && hasText {
    return nil, ErrConflictingInput
  }

  userInput := text
  var meta map[string]any

  if hasAudio {
    if audio.Filename == "" {
      return nil, ErrEmptyFilename
    }
    if !chs.transcriber.Ready() {
      return nil, ErrTranscriberUnavailable
    }

    transcription, tErr := chs.transcribeScoped(ctx, audio)
    if tErr != nil {
      return nil, tErr
    }

    if transcription.Text == "" {
      // Nothing recognized: answer immediately, no generator call, no rows.
      chs.log.Info("Empty transcript, short-circuiting",
        "conversation_id", conversationID,
        "user_id", userID,
      )
      return &ChatResult{UserInput: TranscriptNotRecognized, AIResponse: ReplyNotUnderstood}, nil
    }
    userInput = transcription.Text
    meta = map[string]any{
      "source":     "audio",
      "provider":   transcription.Provider,
      "elapsed_ms": transcription.Elapsed.Milliseconds(),
    }
  }

  if !chs.responder.Ready() {
    return nil, ErrResponderUnavailable
  }
  reply, gErr := chs.responder.Generate(ctx, userInput)
  if gErr != nil {
    // Generate only errors when the backing client never initialized.
    return nil, gErr
  }

  userMsg := &types.Message{Content: userInput, Metadata: marshalMeta(meta)}
  assistantMsg := &types.Message{Content: reply}
  if pErr := chs.conversationService.AppendExchange(ctx, conversationID, userMsg, assistantMsg); pErr != nil {
    // The reply is already computed; losing durability beats losing the answer.
    chs.log.Error("Failed to persist exchange",
      "conversation_id", conversationID,
      "user_id", userID,
      "stage", "persist",
      "error", pErr,
    )
  }

  return &ChatResult{UserInput: userInput, AIResponse: reply}, nil
}

// transcribeScoped spools the upload into a scoped temp file and guarantees
// its removal on every exit path before transcription results propagate.
func (chs *chatService) transcribeScoped(ctx context.Context, audio *ChatAudio) (*TranscriptionResult, error) {
  if err := os.MkdirAll(chs.uploadDir, 0o755); err != nil {
    return nil, fmt.Errorf("Failed to create upload dir: %w", err)
  }
  tmp, err := os.CreateTemp(chs.uploadDir, "upload-*"+filepath.Ext(audio.Filename))
  if err != nil {
    return nil, fmt.Errorf("Failed to create temp audio file: %w", err)
  }
  tmpPath := tmp.Name()
  defer func() {
    if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
      chs.log.Warn("Could not remove temp audio file", "path", tmpPath, "error", rmErr)
    }
  }()

  _, copyErr := io.Copy(tmp, audio.Reader)
  closeErr := tmp.Close()
  if copyErr != nil {
    return nil, fmt.Errorf("Failed to spool audio upload: %w", copyErr)
  }
  if closeErr != nil {
    return nil, fmt.Errorf("Failed to close temp audio file: %w", closeErr)
  }

  raw, err := os.ReadFile(tmpPath)
  if err != nil {
    return nil, fmt.Errorf("Failed to read temp audio file: %w", err)
  }

  return chs.transcriber.Transcribe(ctx, raw, audio.MimeType)
}

func marshalMeta(meta map[string]any) datatypes.JSON {
  if len(meta) == 0 {
    return nil
  }
  raw, err := json.Marshal(meta)
  if err != nil {
    return nil
  }
  return datatypes.JSON(raw)
}
