package service

import (
	"context"
	"testing"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		email         string
		password      string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:     "success",
			username: "alice",
			email:    "Alice@Example.com",
			password: "s3cret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.MatchedBy(func(u *repository.User) bool {
					return u.Username == "alice" && u.Email == "alice@example.com" && u.PasswordHash != "s3cret"
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:     "email already registered",
			username: "alice",
			email:    "alice@example.com",
			password: "s3cret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeEmailTaken,
		},
		{
			name:          "missing fields",
			username:      "  ",
			email:         "alice@example.com",
			password:      "s3cret",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockUserRepo)

			service := NewUserService().WithUserRepo(mockUserRepo)

			got, err := service.Register(context.Background(), tt.username, tt.email, tt.password)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, "alice@example.com", got.Email)
				assert.NotEmpty(t, got.ID)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	hash, hashErr := auth.HashPassword("s3cret")
	assert.NoError(t, hashErr)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:     "success loads project ids",
			email:    "alice@example.com",
			password: "s3cret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "alice@example.com").Return(&repository.User{
					ID:           "u1",
					Username:     "alice",
					Email:        "alice@example.com",
					PasswordHash: hash,
				}, nil)
				ur.On("GetProjectIDs", mock.Anything, "u1").Return([]string{"p1", "p2"}, nil)
			},
			expectedError: false,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrong",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "alice@example.com").Return(&repository.User{
					ID:           "u1",
					Email:        "alice@example.com",
					PasswordHash: hash,
				}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeBadCredentials,
		},
		{
			name:     "unknown email gets the same error as wrong password",
			email:    "ghost@example.com",
			password: "s3cret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeBadCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockUserRepo)

			service := NewUserService().WithUserRepo(mockUserRepo)

			got, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, []string{"p1", "p2"}, got.ProjectIDs)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}
