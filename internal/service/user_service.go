package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService() *UserService {
	return &UserService{}
}

func (u *UserService) Register(ctx context.Context, username, email, password string) (*model.User, *Error) {
	l := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, NewError(ErrorCodeInvalidBody, "username, email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register user")
	}

	user := &repository.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	err = u.users.Create(ctx, user)
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("email already registered", zap.String("email", email))
		return nil, NewError(ErrorCodeEmailTaken, "email already registered")
	}
	if err != nil {
		l.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register user")
	}

	return &model.User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (u *UserService) Login(ctx context.Context, email, password string) (*model.User, *Error) {
	l := logger.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := u.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeBadCredentials, "invalid email or password")
	}
	if err != nil {
		l.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	if err = auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, NewError(ErrorCodeBadCredentials, "invalid email or password")
	}

	projectIDs, err := u.users.GetProjectIDs(ctx, user.ID)
	if err != nil {
		l.Error("failed to load user projects", zap.String("user_id", user.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	return &model.User{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ProjectIDs: projectIDs,
	}, nil
}

func (u *UserService) WithUserRepo(r repository.UserRepository) *UserService {
	u.users = r
	return u
}
