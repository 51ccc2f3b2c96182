package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/codemate-vn/codemate-backend/internal/services"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

type AuthHandler struct {
  authService   services.AuthService
  userService   services.UserService
  cookieName    string
  cookieSecure  bool
}

func NewAuthHandler(authService services.AuthService, userService services.UserService, cookieName string, cookieSecure bool) *AuthHandler {
  return &AuthHandler{
    authService:  authService,
    userService:  userService,
    cookieName:   cookieName,
    cookieSecure: cookieSecure,
  }
}

type userView struct {
  ID        string `json:"id"`
  Email     string `json:"email"`
  FullName  string `json:"full_name"`
  AvatarURL string `json:"avatar_url"`
}

func viewOf(user *types.User) userView {
  return userView{
    ID:        user.ID.String(),
    Email:     user.Email,
    FullName:  user.FullName,
    AvatarURL: user.AvatarURL,
  }
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    FullName string `json:"full_name"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid request body"))
    return
  }
  user, err := ah.authService.RegisterUser(c.Request.Context(), req.Email, req.Password, req.FullName)
  if err != nil {
    if errors.Is(err, services.ErrValidation) {
      RespondError(c, http.StatusBadRequest, CodeValidation, err)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("registration failed"))
    return
  }
  c.JSON(http.StatusCreated, gin.H{"message": "registered successfully", "user_id": user.ID.String()})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid request body"))
    return
  }
  user, token, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    if errors.Is(err, services.ErrValidation) {
      RespondError(c, http.StatusBadRequest, CodeValidation, err)
      return
    }
    RespondError(c, http.StatusUnauthorized, CodeAuth, services.ErrInvalidCredentials)
    return
  }
  ah.setSessionCookie(c, token)
  RespondOK(c, gin.H{"message": "logged in successfully", "user": viewOf(user)})
}

func (ah *AuthHandler) GoogleLogin(c *gin.Context) {
  var req struct {
    Credential string `json:"credential"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("invalid request body"))
    return
  }
  user, token, err := ah.authService.GoogleLogin(c.Request.Context(), req.Credential)
  if err != nil {
    if errors.Is(err, services.ErrValidation) {
      RespondError(c, http.StatusBadRequest, CodeValidation, err)
      return
    }
    if errors.Is(err, services.ErrInvalidGoogleToken) {
      RespondError(c, http.StatusUnauthorized, CodeAuth, err)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("google sign-in failed"))
    return
  }
  ah.setSessionCookie(c, token)
  RespondOK(c, gin.H{"message": "logged in successfully", "user": viewOf(user)})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
    RespondError(c, http.StatusBadRequest, CodeValidation, errors.New("logout failed"))
    return
  }
  c.SetCookie(ah.cookieName, "", -1, "/", "", ah.cookieSecure, true)
  RespondOK(c, gin.H{"message": "logged out successfully"})
}

func (ah *AuthHandler) GetMe(c *gin.Context) {
  user, err := ah.userService.GetMe(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusUnauthorized, UnauthorizedBody())
    return
  }
  RespondOK(c, viewOf(user))
}

func (ah *AuthHandler) setSessionCookie(c *gin.Context, token string) {
  maxAge := int(ah.authService.GetAccessTTL().Seconds())
  c.SetCookie(ah.cookieName, token, maxAge, "/", "", ah.cookieSecure, true)
}
