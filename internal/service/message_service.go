package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type MessageService struct {
	resolver authz.Resolver

	messages repository.MessageRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
}

func NewMessageService(resolver authz.Resolver) *MessageService {
	return &MessageService{resolver: resolver}
}

func (m *MessageService) SendMessage(ctx context.Context, projectID, senderID, content string) (*model.Message, *Error) {
	l := logger.FromContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewError(ErrorCodeInvalidBody, "message content is required")
	}
	if projectID == "" || senderID == "" {
		return nil, NewError(ErrorCodeInvalidBody, "project and sender are required")
	}

	message := &repository.Message{
		ID:        uuid.NewString(),
		Content:   content,
		ProjectID: projectID,
		SenderID:  senderID,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.messages.Create(ctx, message); err != nil {
		l.Error("failed to create message", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send message")
	}

	sender, err := m.users.Get(ctx, senderID)
	if err != nil {
		l.Error("failed to load message sender", zap.String("message_id", message.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send message")
	}

	return &model.Message{
		ID:        message.ID,
		Content:   message.Content,
		ProjectID: message.ProjectID,
		Sender:    toPublicUser(sender),
		CreatedAt: message.CreatedAt,
	}, nil
}

// AuthorizeDelete is the request/response half of the delete flow: it decides
// whether the caller may delete the message but performs no mutation. The
// deletion itself arrives later on the event channel.
func (m *MessageService) AuthorizeDelete(ctx context.Context, messageID, callerID string) *Error {
	l := logger.FromContext(ctx)

	message, err := m.messages.Get(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "message not found")
	}
	if err != nil {
		l.Error("failed to get message", zap.String("message_id", messageID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to authorize deletion")
	}

	project, err := m.projects.Get(ctx, message.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", message.ProjectID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to authorize deletion")
	}

	if !m.resolver.CanDeleteMessage(callerID, message.SenderID, project.OwnerID) {
		return NewError(ErrorCodeNotAuthorized, "not authorized to delete this message")
	}

	return nil
}

// DeleteMessage removes the message without any authorization check; callers
// are expected to have passed AuthorizeDelete through the API first.
func (m *MessageService) DeleteMessage(ctx context.Context, messageID string) *Error {
	l := logger.FromContext(ctx)

	err := m.messages.Delete(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "message not found")
	}
	if err != nil {
		l.Error("failed to delete message", zap.String("message_id", messageID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete message")
	}
	return nil
}

func (m *MessageService) WithMessageRepo(r repository.MessageRepository) *MessageService {
	m.messages = r
	return m
}

func (m *MessageService) WithProjectRepo(r repository.ProjectRepository) *MessageService {
	m.projects = r
	return m
}

func (m *MessageService) WithUserRepo(r repository.UserRepository) *MessageService {
	m.users = r
	return m
}
