package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/requestdata"
  "github.com/codemate-vn/codemate-backend/internal/services"
)

type ChatHandler struct {
  log         *logger.Logger
  chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
  return &ChatHandler{log: log.With("handler", "ChatHandler"), chatService: chatService}
}

// Process accepts multipart form data: conversation_id plus exactly one of
// audioFile or text.
func (ch *ChatHandler) Process(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())

  rawID := c.PostForm("conversation_id")
  if rawID == "" {
    RespondError(c, http.StatusBadRequest, CodeValidation, services.ErrMissingConversationID)
    return
  }
  conversationID, err := uuid.Parse(rawID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid conversation_id"))
    return
  }

  text := c.PostForm("text")

  var audio *services.ChatAudio
  fileHeader, fErr := c.FormFile("audioFile")
  if fErr == nil && fileHeader != nil {
    f, openErr := fileHeader.Open()
    if openErr != nil {
      RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("could not read audio attachment"))
      return
    }
    defer f.Close()
    audio = &services.ChatAudio{
      Filename: fileHeader.Filename,
      MimeType: fileHeader.Header.Get("Content-Type"),
      Reader:   f,
    }
  }

  result, err := ch.chatService.Process(c.Request.Context(), rd.UserID, conversationID, text, audio)
  if err != nil {
    ch.respondChatError(c, err)
    return
  }
  RespondOK(c, result)
}

func (ch *ChatHandler) respondChatError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrMissingConversationID),
    errors.Is(err, services.ErrNoInput),
    errors.Is(err, services.ErrConflictingInput),
    errors.Is(err, services.ErrEmptyFilename),
    errors.Is(err, services.ErrNotOwner):
    RespondError(c, http.StatusBadRequest, CodeValidation, err)
  case errors.Is(err, services.ErrTranscriberUnavailable):
    RespondError(c, http.StatusInternalServerError, CodeServiceUnavailable, errors.New("speech recognition is unavailable"))
  case errors.Is(err, services.ErrResponderUnavailable):
    RespondError(c, http.StatusInternalServerError, CodeServiceUnavailable, errors.New("reply generation is unavailable"))
  case errors.Is(err, services.ErrAudioDecode):
    RespondError(c, http.StatusInternalServerError, CodeTranscription, errors.New("could not process the audio recording"))
  default:
    ch.log.Error("Chat request failed", "error", err)
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("an internal server error occurred"))
  }
}
