package service

import (
	"context"
	"testing"

	"github.com/nexboard/nexboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTaskService_CreateTask(t *testing.T) {
	tests := []struct {
		name          string
		projectID     string
		createdBy     string
		content       string
		setupMocks    func(*MockTaskRepository, *MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:      "success",
			projectID: "p1",
			createdBy: "u1",
			content:   "write release notes",
			setupMocks: func(tr *MockTaskRepository, ur *MockUserRepository) {
				tr.On("Create", mock.Anything, mock.MatchedBy(func(task *repository.Task) bool {
					return task.ProjectID == "p1" && task.Content == "write release notes" && !task.IsCompleted
				})).Return(nil)
				ur.On("Get", mock.Anything, "u1").Return(&repository.User{ID: "u1", Username: "alice"}, nil)
			},
			expectedError: false,
		},
		{
			name:          "empty content is rejected before any write",
			projectID:     "p1",
			createdBy:     "u1",
			content:       "   ",
			setupMocks:    func(tr *MockTaskRepository, ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:          "missing project",
			projectID:     "",
			createdBy:     "u1",
			content:       "orphan task",
			setupMocks:    func(tr *MockTaskRepository, ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTaskRepo := new(MockTaskRepository)
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockTaskRepo, mockUserRepo)

			service := NewTaskService().WithTaskRepo(mockTaskRepo).WithUserRepo(mockUserRepo)

			got, err := service.CreateTask(context.Background(), tt.projectID, tt.createdBy, tt.content)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "alice", got.CreatedBy.Username)
				assert.False(t, got.IsCompleted)
			}

			mockTaskRepo.AssertExpectations(t)
			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_SetTaskCompleted(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockTaskRepo := new(MockTaskRepository)
		mockUserRepo := new(MockUserRepository)

		mockTaskRepo.On("SetCompleted", mock.Anything, "t1", true).Return(&repository.Task{
			ID:          "t1",
			Content:     "ship it",
			ProjectID:   "p1",
			CreatedBy:   "u1",
			IsCompleted: true,
		}, nil)
		mockUserRepo.On("Get", mock.Anything, "u1").Return(&repository.User{ID: "u1", Username: "alice"}, nil)

		service := NewTaskService().WithTaskRepo(mockTaskRepo).WithUserRepo(mockUserRepo)

		got, err := service.SetTaskCompleted(context.Background(), "t1", true)

		assert.Nil(t, err)
		assert.True(t, got.IsCompleted)
		assert.Equal(t, "t1", got.ID)
		mockTaskRepo.AssertExpectations(t)
	})

	t.Run("task not found", func(t *testing.T) {
		mockTaskRepo := new(MockTaskRepository)

		mockTaskRepo.On("SetCompleted", mock.Anything, "missing", true).Return(nil, repository.ErrNotFound)

		service := NewTaskService().WithTaskRepo(mockTaskRepo)

		got, err := service.SetTaskCompleted(context.Background(), "missing", true)

		assert.Error(t, err)
		assert.Equal(t, ErrorCodeNotFound, err.Code)
		assert.Nil(t, got)
		mockTaskRepo.AssertExpectations(t)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockTaskRepo := new(MockTaskRepository)

		mockTaskRepo.On("Delete", mock.Anything, "t1").Return(nil)

		service := NewTaskService().WithTaskRepo(mockTaskRepo)

		err := service.DeleteTask(context.Background(), "t1")

		assert.Nil(t, err)
		mockTaskRepo.AssertExpectations(t)
	})

	t.Run("task not found", func(t *testing.T) {
		mockTaskRepo := new(MockTaskRepository)

		mockTaskRepo.On("Delete", mock.Anything, "missing").Return(repository.ErrNotFound)

		service := NewTaskService().WithTaskRepo(mockTaskRepo)

		err := service.DeleteTask(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, ErrorCodeNotFound, err.Code)
		mockTaskRepo.AssertExpectations(t)
	})
}
