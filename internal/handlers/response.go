package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
)

// Stable client-facing error codes. Messages stay generic; details live in
// server logs only.
const (
  CodeValidation         = "VALIDATION_ERROR"
  CodeAuth               = "AUTH_ERROR"
  CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
  CodeTranscription      = "TRANSCRIPTION_FAILED"
  CodeInternal           = "INTERNAL_ERROR"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// UnauthorizedBody is the single body every session-gated route returns to
// unauthenticated callers.
func UnauthorizedBody() ErrorEnvelope {
  return ErrorEnvelope{Error: APIError{Message: "authentication required", Code: CodeAuth}}
}
