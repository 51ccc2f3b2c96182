package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/codemate-vn/codemate-backend/internal/requestdata"
  "github.com/codemate-vn/codemate-backend/internal/services"
)

type ConversationHandler struct {
  conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
  return &ConversationHandler{conversationService: conversationService}
}

func (ch *ConversationHandler) List(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  summaries, err := ch.conversationService.List(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("could not list conversations"))
    return
  }
  RespondOK(c, gin.H{"conversations": summaries})
}

func (ch *ConversationHandler) Create(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Title string `json:"title"`
  }
  // Body is optional: an empty one creates an untitled thread.
  _ = c.ShouldBindJSON(&req)
  conversation, err := ch.conversationService.Create(c.Request.Context(), rd.UserID, req.Title)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("could not create conversation"))
    return
  }
  c.JSON(http.StatusCreated, gin.H{
    "conversation_id": conversation.ID.String(),
    "title":           conversation.Title,
  })
}

func (ch *ConversationHandler) GetMessages(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  conversationID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid conversation id"))
    return
  }
  messages, err := ch.conversationService.GetMessages(c.Request.Context(), rd.UserID, conversationID)
  if err != nil {
    if errors.Is(err, services.ErrNotOwner) {
      RespondError(c, http.StatusBadRequest, CodeValidation, services.ErrNotOwner)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("could not load messages"))
    return
  }
  RespondOK(c, gin.H{"messages": messages})
}

func (ch *ConversationHandler) Rename(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  conversationID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid conversation id"))
    return
  }
  var req struct {
    Title string `json:"title"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("title is required"))
    return
  }
  if err := ch.conversationService.Rename(c.Request.Context(), rd.UserID, conversationID, req.Title); err != nil {
    if errors.Is(err, services.ErrNotOwner) {
      RespondError(c, http.StatusBadRequest, CodeValidation, services.ErrNotOwner)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("could not rename conversation"))
    return
  }
  RespondOK(c, gin.H{"message": "title updated"})
}

func (ch *ConversationHandler) Delete(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  conversationID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid conversation id"))
    return
  }
  if err := ch.conversationService.Delete(c.Request.Context(), rd.UserID, conversationID); err != nil {
    if errors.Is(err, services.ErrNotOwner) {
      RespondError(c, http.StatusBadRequest, CodeValidation, services.ErrNotOwner)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("could not delete conversation"))
    return
  }
  RespondOK(c, gin.H{"message": "conversation deleted"})
}
