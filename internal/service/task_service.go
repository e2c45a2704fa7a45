package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type TaskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
}

func NewTaskService() *TaskService {
	return &TaskService{}
}

func (t *TaskService) CreateTask(ctx context.Context, projectID, createdBy, content string) (*model.Task, *Error) {
	l := logger.FromContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewError(ErrorCodeInvalidBody, "task content is required")
	}
	if projectID == "" || createdBy == "" {
		return nil, NewError(ErrorCodeInvalidBody, "project and creator are required")
	}

	task := &repository.Task{
		ID:        uuid.NewString(),
		Content:   content,
		ProjectID: projectID,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	if err := t.tasks.Create(ctx, task); err != nil {
		l.Error("failed to create task", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create task")
	}

	return t.populateTask(ctx, task)
}

// SetTaskCompleted is the only partial update tasks support.
func (t *TaskService) SetTaskCompleted(ctx context.Context, taskID string, isCompleted bool) (*model.Task, *Error) {
	l := logger.FromContext(ctx)

	task, err := t.tasks.SetCompleted(ctx, taskID, isCompleted)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "task not found")
	}
	if err != nil {
		l.Error("failed to update task", zap.String("task_id", taskID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update task")
	}

	return t.populateTask(ctx, task)
}

func (t *TaskService) DeleteTask(ctx context.Context, taskID string) *Error {
	l := logger.FromContext(ctx)

	err := t.tasks.Delete(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "task not found")
	}
	if err != nil {
		l.Error("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete task")
	}
	return nil
}

func (t *TaskService) populateTask(ctx context.Context, task *repository.Task) (*model.Task, *Error) {
	l := logger.FromContext(ctx)

	creator, err := t.users.Get(ctx, task.CreatedBy)
	if err != nil {
		l.Error("failed to load task creator", zap.String("task_id", task.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load task creator")
	}

	return &model.Task{
		ID:          task.ID,
		Content:     task.Content,
		ProjectID:   task.ProjectID,
		CreatedBy:   toPublicUser(creator),
		IsCompleted: task.IsCompleted,
		CreatedAt:   task.CreatedAt,
	}, nil
}

func (t *TaskService) WithTaskRepo(r repository.TaskRepository) *TaskService {
	t.tasks = r
	return t
}

func (t *TaskService) WithUserRepo(r repository.UserRepository) *TaskService {
	t.users = r
	return t
}
