package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LinkService struct {
	resolver authz.Resolver
	validate *validator.Validate

	links    repository.LinkRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
}

func NewLinkService(resolver authz.Resolver) *LinkService {
	return &LinkService{
		resolver: resolver,
		validate: validator.New(),
	}
}

func (s *LinkService) CreateLink(ctx context.Context, projectID, createdBy, title, url string) (*model.Link, *Error) {
	l := logger.FromContext(ctx)

	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)

	if title == "" {
		return nil, NewError(ErrorCodeInvalidBody, "link title is required")
	}
	if projectID == "" || createdBy == "" {
		return nil, NewError(ErrorCodeInvalidBody, "project and creator are required")
	}
	// The url rule requires a parseable absolute URL.
	if err := s.validate.Var(url, "required,url"); err != nil {
		return nil, NewError(ErrorCodeInvalidBody, "link url must be a valid absolute URL")
	}

	link := &repository.Link{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		ProjectID: projectID,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.links.Create(ctx, link); err != nil {
		l.Error("failed to create link", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create link")
	}

	creator, err := s.users.Get(ctx, createdBy)
	if err != nil {
		l.Error("failed to load link creator", zap.String("link_id", link.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create link")
	}

	return &model.Link{
		ID:        link.ID,
		Title:     link.Title,
		URL:       link.URL,
		ProjectID: link.ProjectID,
		CreatedBy: toPublicUser(creator),
		CreatedAt: link.CreatedAt,
	}, nil
}

// AuthorizeDelete mirrors the message flow: decision only, no mutation.
func (s *LinkService) AuthorizeDelete(ctx context.Context, linkID, callerID string) *Error {
	l := logger.FromContext(ctx)

	link, err := s.links.Get(ctx, linkID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "link not found")
	}
	if err != nil {
		l.Error("failed to get link", zap.String("link_id", linkID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to authorize deletion")
	}

	project, err := s.projects.Get(ctx, link.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", link.ProjectID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to authorize deletion")
	}

	if !s.resolver.CanDeleteLink(callerID, link.CreatedBy, project.OwnerID) {
		return NewError(ErrorCodeNotAuthorized, "not authorized to delete this link")
	}

	return nil
}

// DeleteLink removes the link without re-checking authorization; the API
// authorization endpoint is expected to have run first.
func (s *LinkService) DeleteLink(ctx context.Context, linkID string) *Error {
	l := logger.FromContext(ctx)

	err := s.links.Delete(ctx, linkID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "link not found")
	}
	if err != nil {
		l.Error("failed to delete link", zap.String("link_id", linkID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete link")
	}
	return nil
}

func (s *LinkService) WithLinkRepo(r repository.LinkRepository) *LinkService {
	s.links = r
	return s
}

func (s *LinkService) WithProjectRepo(r repository.ProjectRepository) *LinkService {
	s.projects = r
	return s
}

func (s *LinkService) WithUserRepo(r repository.UserRepository) *LinkService {
	s.users = r
	return s
}
