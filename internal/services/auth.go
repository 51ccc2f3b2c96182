package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "google.golang.org/api/idtoken"
  "gorm.io/gorm"

  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/normalization"
  "github.com/codemate-vn/codemate-backend/internal/repos"
  "github.com/codemate-vn/codemate-backend/internal/requestdata"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

var (
  ErrValidation         = errors.New("validation failed")
  // ErrInvalidCredentials is deliberately the same for wrong email, wrong
  // password and federated accounts, so login cannot probe account existence.
  ErrInvalidCredentials = errors.New("invalid email or password")
  ErrInvalidGoogleToken = errors.New("invalid google credential")
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, email, password, fullName string) (*types.User, error)
  LoginUser(ctx context.Context, email, password string) (*types.User, string, error)
  GoogleLogin(ctx context.Context, credential string) (*types.User, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db              *gorm.DB
  log             *logger.Logger
  userRepo        repos.UserRepo
  sessionRepo     repos.SessionRepo
  avatarService   AvatarService
  jwtSecretKey    string
  googleClientID  string
  accessTTL       time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  sessionRepo repos.SessionRepo,
  avatarService AvatarService,
  jwtSecretKey string,
  googleClientID string,
  accessTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:             db,
    log:            serviceLog,
    userRepo:       userRepo,
    sessionRepo:    sessionRepo,
    avatarService:  avatarService,
    jwtSecretKey:   jwtSecretKey,
    googleClientID: googleClientID,
    accessTTL:      accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, email, password, fullName string) (*types.User, error) {
  email = normalization.ParseInputString(email)
  fullName = normalization.ParseFreeText(fullName)

  if email == "" {
    return nil, fmt.Errorf("%w: an email is required to register", ErrValidation)
  }
  if password == "" {
    return nil, fmt.Errorf("%w: a password is required to register", ErrValidation)
  }
  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, fmt.Errorf("Failed to check user email: %w", err)
  }
  if exists {
    return nil, fmt.Errorf("%w: email is already in use", ErrValidation)
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("Failed to hash password: %w", err)
  }

  user := &types.User{
    ID:           uuid.New(),
    Email:        email,
    PasswordHash: string(hashed),
    FullName:     fullName,
    AuthProvider: types.AuthProviderLocal,
  }

  if as.avatarService != nil {
    avatarURL, aErr := as.avatarService.GenerateInitialsAvatar(ctx, user)
    if aErr != nil {
      as.log.Warn("Could not generate initials avatar", "user_id", user.ID, "error", aErr)
    } else {
      user.AvatarURL = avatarURL
    }
  }

  created, err := as.userRepo.Create(ctx, nil, user)
  if err != nil {
    if errors.Is(err, repos.ErrDuplicate) {
      return nil, fmt.Errorf("%w: email is already in use", ErrValidation)
    }
    return nil, fmt.Errorf("Failed to create user: %w", err)
  }
  as.log.Info("User registered", "user_id", created.ID)
  return created, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, error) {
  email = normalization.ParseInputString(email)
  if email == "" || password == "" {
    return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
  }

  user, err := as.userRepo.GetByEmailAndProvider(ctx, nil, email, types.AuthProviderLocal)
  if err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return nil, "", ErrInvalidCredentials
    }
    return nil, "", fmt.Errorf("Error retrieving user by email: %w", err)
  }
  if user.PasswordHash == "" {
    return nil, "", ErrInvalidCredentials
  }
  if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
    return nil, "", ErrInvalidCredentials
  }

  token, err := as.establishSession(ctx, user)
  if err != nil {
    return nil, "", err
  }
  as.log.Info("User logged in", "user_id", user.ID)
  return user, token, nil
}

func (as *authService) GoogleLogin(ctx context.Context, credential string) (*types.User, string, error) {
  if credential == "" {
    return nil, "", fmt.Errorf("%w: missing credential", ErrValidation)
  }
  payload, err := idtoken.Validate(ctx, credential, as.googleClientID)
  if err != nil {
    as.log.Warn("Google credential rejected", "error", err)
    return nil, "", ErrInvalidGoogleToken
  }

  googleID := payload.Subject
  email := normalization.ParseInputString(claimString(payload, "email"))
  fullName := normalization.ParseFreeText(claimString(payload, "name"))
  avatarURL := claimString(payload, "picture")

  user, err := as.getOrCreateGoogleUser(ctx, googleID, email, fullName, avatarURL)
  if err != nil {
    return nil, "", err
  }

  token, err := as.establishSession(ctx, user)
  if err != nil {
    return nil, "", err
  }
  as.log.Info("Google user logged in", "user_id", user.ID)
  return user, token, nil
}

// getOrCreateGoogleUser upserts on google_id: profile fields and last-login
// refresh on every federated login, one row no matter how often it runs.
func (as *authService) getOrCreateGoogleUser(ctx context.Context, googleID, email, fullName, avatarURL string) (*types.User, error) {
  var out *types.User
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existing, gErr := as.userRepo.GetByGoogleID(ctx, tx, googleID)
    if gErr != nil && !errors.Is(gErr, repos.ErrNotFound) {
      return fmt.Errorf("Failed to look up google user: %w", gErr)
    }
    if existing != nil {
      if uErr := as.userRepo.UpdateProfile(ctx, tx, existing.ID, fullName, avatarURL); uErr != nil {
        return fmt.Errorf("Failed to update google user profile: %w", uErr)
      }
      if tErr := as.userRepo.TouchLastLogin(ctx, tx, existing.ID); tErr != nil {
        return fmt.Errorf("Failed to touch last login: %w", tErr)
      }
      refreshed, rErr := as.userRepo.GetByID(ctx, tx, existing.ID)
      if rErr != nil {
        return fmt.Errorf("Failed to reload google user: %w", rErr)
      }
      out = refreshed
      return nil
    }
    now := time.Now()
    created, cErr := as.userRepo.Create(ctx, tx, &types.User{
      ID:           uuid.New(),
      Email:        email,
      FullName:     fullName,
      AvatarURL:    avatarURL,
      AuthProvider: types.AuthProviderGoogle,
      GoogleID:     googleID,
      LastLogin:    &now,
    })
    if cErr != nil {
      return fmt.Errorf("Failed to create google user: %w", cErr)
    }
    out = created
    return nil
  })
  if err != nil {
    return nil, err
  }
  return out, nil
}

func (as *authService) establishSession(ctx context.Context, user *types.User) (string, error) {
  var accessToken string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dErr := as.sessionRepo.DeleteExpiredForUser(ctx, tx, user.ID); dErr != nil && !errors.Is(dErr, repos.ErrNotFound) {
      as.log.Warn("Could not prune expired sessions", "user_id", user.ID, "error", dErr)
    }
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Generate access token error: %w", genErr)
    }
    accessToken = tok
    session := &types.Session{
      ID:          uuid.New(),
      UserID:      user.ID,
      AccessToken: tok,
      ExpiresAt:   time.Now().Add(as.accessTTL),
    }
    if _, cErr := as.sessionRepo.Create(ctx, tx, session); cErr != nil {
      return fmt.Errorf("Create session error: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return "", err
  }
  return accessToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.TokenString == "" {
    return fmt.Errorf("No request data found in context")
  }
  if err := as.sessionRepo.DeleteByAccessToken(ctx, nil, rd.TokenString); err != nil && !errors.Is(err, repos.ErrNotFound) {
    return fmt.Errorf("Error deleting session: %w", err)
  }
  return nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, fmt.Errorf("missing token")
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("Failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("Invalid or expired token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("Invalid user id in token: %w", err)
  }
  // Logout revokes the session row, so a parseable token alone is not enough.
  if _, sErr := as.sessionRepo.GetByAccessToken(ctx, nil, tokenString); sErr != nil {
    return ctx, fmt.Errorf("Session revoked or expired")
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}

func claimString(payload *idtoken.Payload, key string) string {
  if payload == nil || payload.Claims == nil {
    return ""
  }
  if v, ok := payload.Claims[key].(string); ok {
    return v
  }
  return ""
}
