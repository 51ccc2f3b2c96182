package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/repos"
  "github.com/codemate-vn/codemate-backend/internal/requestdata"
  "github.com/codemate-vn/codemate-backend/internal/types"
)

type UserService interface {
  GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, fmt.Errorf("No request data found in context")
  }
  user, err := us.userRepo.GetByID(ctx, nil, rd.UserID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load user: %w", err)
  }
  return user, nil
}
