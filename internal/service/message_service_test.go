package service

import (
	"context"
	"testing"

	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMessageService_SendMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockMessageRepo := new(MockMessageRepository)
		mockUserRepo := new(MockUserRepository)

		mockMessageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *repository.Message) bool {
			return m.ProjectID == "p1" && m.SenderID == "u1" && m.Content == "hello team"
		})).Return(nil)
		mockUserRepo.On("Get", mock.Anything, "u1").Return(&repository.User{ID: "u1", Username: "alice"}, nil)

		service := NewMessageService(authz.NewResolver()).
			WithMessageRepo(mockMessageRepo).
			WithUserRepo(mockUserRepo)

		got, err := service.SendMessage(context.Background(), "p1", "u1", "  hello team  ")

		assert.Nil(t, err)
		assert.Equal(t, "hello team", got.Content)
		assert.Equal(t, "alice", got.Sender.Username)
		mockMessageRepo.AssertExpectations(t)
	})

	t.Run("empty content is rejected before any write", func(t *testing.T) {
		mockMessageRepo := new(MockMessageRepository)

		service := NewMessageService(authz.NewResolver()).WithMessageRepo(mockMessageRepo)

		got, err := service.SendMessage(context.Background(), "p1", "u1", "   ")

		assert.Error(t, err)
		assert.Equal(t, ErrorCodeInvalidBody, err.Code)
		assert.Nil(t, got)
		mockMessageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestMessageService_AuthorizeDelete(t *testing.T) {
	tests := []struct {
		name          string
		callerID      string
		setupMocks    func(*MockMessageRepository, *MockProjectRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:     "sender can delete own message",
			callerID: "sender",
			setupMocks: func(mr *MockMessageRepository, pr *MockProjectRepository) {
				mr.On("Get", mock.Anything, "m1").Return(&repository.Message{ID: "m1", ProjectID: "p1", SenderID: "sender"}, nil)
				pr.On("Get", mock.Anything, "p1").Return(&repository.Project{ID: "p1", OwnerID: "owner"}, nil)
			},
			expectedError: false,
		},
		{
			name:     "project owner can delete any message",
			callerID: "owner",
			setupMocks: func(mr *MockMessageRepository, pr *MockProjectRepository) {
				mr.On("Get", mock.Anything, "m1").Return(&repository.Message{ID: "m1", ProjectID: "p1", SenderID: "sender"}, nil)
				pr.On("Get", mock.Anything, "p1").Return(&repository.Project{ID: "p1", OwnerID: "owner"}, nil)
			},
			expectedError: false,
		},
		{
			name:     "other member is denied",
			callerID: "bystander",
			setupMocks: func(mr *MockMessageRepository, pr *MockProjectRepository) {
				mr.On("Get", mock.Anything, "m1").Return(&repository.Message{ID: "m1", ProjectID: "p1", SenderID: "sender"}, nil)
				pr.On("Get", mock.Anything, "p1").Return(&repository.Project{ID: "p1", OwnerID: "owner"}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotAuthorized,
		},
		{
			name:     "message not found",
			callerID: "sender",
			setupMocks: func(mr *MockMessageRepository, pr *MockProjectRepository) {
				mr.On("Get", mock.Anything, "m1").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMessageRepo := new(MockMessageRepository)
			mockProjectRepo := new(MockProjectRepository)

			tt.setupMocks(mockMessageRepo, mockProjectRepo)

			service := NewMessageService(authz.NewResolver()).
				WithMessageRepo(mockMessageRepo).
				WithProjectRepo(mockProjectRepo)

			err := service.AuthorizeDelete(context.Background(), "m1", tt.callerID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockMessageRepo.AssertExpectations(t)
			mockProjectRepo.AssertExpectations(t)
		})
	}
}

func TestMessageService_DeleteMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockMessageRepo := new(MockMessageRepository)

		mockMessageRepo.On("Delete", mock.Anything, "m1").Return(nil)

		service := NewMessageService(authz.NewResolver()).WithMessageRepo(mockMessageRepo)

		err := service.DeleteMessage(context.Background(), "m1")

		assert.Nil(t, err)
		mockMessageRepo.AssertExpectations(t)
	})

	t.Run("message not found", func(t *testing.T) {
		mockMessageRepo := new(MockMessageRepository)

		mockMessageRepo.On("Delete", mock.Anything, "missing").Return(repository.ErrNotFound)

		service := NewMessageService(authz.NewResolver()).WithMessageRepo(mockMessageRepo)

		err := service.DeleteMessage(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, ErrorCodeNotFound, err.Code)
		mockMessageRepo.AssertExpectations(t)
	})
}
