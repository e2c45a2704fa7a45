package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/db"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ProjectService struct {
	tx       db.Transactor
	resolver authz.Resolver

	projects repository.ProjectRepository
	users    repository.UserRepository
	tasks    repository.TaskRepository
	messages repository.MessageRepository
	links    repository.LinkRepository
}

func NewProjectService(tx db.Transactor, resolver authz.Resolver) *ProjectService {
	return &ProjectService{
		tx:       tx,
		resolver: resolver,
	}
}

// CreateProject inserts the project and the owner's membership row in one
// transaction, so the owner is a member from the first committed state.
func (p *ProjectService) CreateProject(ctx context.Context, name, ownerID string) (*model.Project, *Error) {
	l := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrorCodeInvalidBody, "project name is required")
	}

	project := &repository.Project{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}

	err := p.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := p.projects.Create(txCtx, project); err != nil {
			l.Error("failed to create project", zap.String("project_name", name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create project")
		}
		if err := p.projects.AddMember(txCtx, project.ID, ownerID); err != nil {
			l.Error("failed to add owner membership", zap.String("project_id", project.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create project")
		}
		return nil
	})
	if err != nil {
		var res *Error
		if errors.As(err, &res) {
			return nil, res
		}
		l.Error("transaction failed", zap.String("project_name", name), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create project")
	}

	return p.populateProject(ctx, project)
}

func (p *ProjectService) ListProjects(ctx context.Context, userID string) ([]*model.Project, *Error) {
	l := logger.FromContext(ctx)

	repoProjects, err := p.projects.ListByMember(ctx, userID)
	if err != nil {
		l.Error("failed to list projects", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list projects")
	}

	projects := make([]*model.Project, 0, len(repoProjects))
	for _, repoProject := range repoProjects {
		project, serviceErr := p.populateProject(ctx, repoProject)
		if serviceErr != nil {
			return nil, serviceErr
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// GetProjectDetail returns the project with its tasks, messages and links.
// Non-members are rejected before any scoped entity is read.
func (p *ProjectService) GetProjectDetail(ctx context.Context, projectID, callerID string) (*model.ProjectDetail, *Error) {
	l := logger.FromContext(ctx)

	repoProject, err := p.projects.Get(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	memberIDs, err := p.projects.GetMemberIDs(ctx, projectID)
	if err != nil {
		l.Error("failed to get project members", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	if !p.resolver.CanViewProject(callerID, memberIDs) {
		l.Warn("non-member requested project detail",
			zap.String("project_id", projectID),
			zap.String("user_id", callerID))
		return nil, NewError(ErrorCodeNotAuthorized, "not authorized for this project")
	}

	repoTasks, err := p.tasks.ListByProject(ctx, projectID)
	if err != nil {
		l.Error("failed to list tasks", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	repoMessages, err := p.messages.ListByProject(ctx, projectID)
	if err != nil {
		l.Error("failed to list messages", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	repoLinks, err := p.links.ListByProject(ctx, projectID)
	if err != nil {
		l.Error("failed to list links", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	ids := make([]string, 0, len(memberIDs)+len(repoTasks)+len(repoMessages)+len(repoLinks))
	ids = append(ids, memberIDs...)
	for _, task := range repoTasks {
		ids = append(ids, task.CreatedBy)
	}
	for _, message := range repoMessages {
		ids = append(ids, message.SenderID)
	}
	for _, link := range repoLinks {
		ids = append(ids, link.CreatedBy)
	}

	usersByID, err := loadUsers(ctx, p.users, ids)
	if err != nil {
		l.Error("failed to load referenced users", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	members := make([]*model.User, 0, len(memberIDs))
	for _, id := range memberIDs {
		if user, ok := usersByID[id]; ok {
			members = append(members, user)
		}
	}

	tasks := make([]*model.Task, 0, len(repoTasks))
	for _, task := range repoTasks {
		tasks = append(tasks, &model.Task{
			ID:          task.ID,
			Content:     task.Content,
			ProjectID:   task.ProjectID,
			CreatedBy:   usersByID[task.CreatedBy],
			IsCompleted: task.IsCompleted,
			CreatedAt:   task.CreatedAt,
		})
	}

	messages := make([]*model.Message, 0, len(repoMessages))
	for _, message := range repoMessages {
		messages = append(messages, &model.Message{
			ID:        message.ID,
			Content:   message.Content,
			ProjectID: message.ProjectID,
			Sender:    usersByID[message.SenderID],
			CreatedAt: message.CreatedAt,
		})
	}

	links := make([]*model.Link, 0, len(repoLinks))
	for _, link := range repoLinks {
		links = append(links, &model.Link{
			ID:        link.ID,
			Title:     link.Title,
			URL:       link.URL,
			ProjectID: link.ProjectID,
			CreatedBy: usersByID[link.CreatedBy],
			CreatedAt: link.CreatedAt,
		})
	}

	return &model.ProjectDetail{
		Project: &model.Project{
			ID:        repoProject.ID,
			Name:      repoProject.Name,
			Owner:     usersByID[repoProject.OwnerID],
			Members:   members,
			CreatedAt: repoProject.CreatedAt,
		},
		Tasks:    tasks,
		Messages: messages,
		Links:    links,
	}, nil
}

// AddMember adds the user with the given email directly to the project.
// Owner-only.
func (p *ProjectService) AddMember(ctx context.Context, projectID, callerID, email string) (*model.Project, *Error) {
	l := logger.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	recipient, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "user with that email not found")
	}
	if err != nil {
		l.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to add member")
	}

	repoProject, err := p.projects.Get(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to add member")
	}

	if !p.resolver.CanManageMembers(callerID, repoProject.OwnerID) {
		return nil, NewError(ErrorCodeNotAuthorized, "only the project owner can add members")
	}

	err = p.projects.AddMember(ctx, projectID, recipient.ID)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, NewError(ErrorCodeAlreadyMember, "user is already a member of this project")
	}
	if err != nil {
		l.Error("failed to add member",
			zap.String("project_id", projectID),
			zap.String("user_id", recipient.ID),
			zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to add member")
	}

	return p.populateProject(ctx, repoProject)
}

func (p *ProjectService) populateProject(ctx context.Context, repoProject *repository.Project) (*model.Project, *Error) {
	l := logger.FromContext(ctx)

	memberIDs, err := p.projects.GetMemberIDs(ctx, repoProject.ID)
	if err != nil {
		l.Error("failed to get project members", zap.String("project_id", repoProject.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project members")
	}

	ids := append([]string{repoProject.OwnerID}, memberIDs...)
	usersByID, err := loadUsers(ctx, p.users, ids)
	if err != nil {
		l.Error("failed to load project users", zap.String("project_id", repoProject.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get project members")
	}

	members := make([]*model.User, 0, len(memberIDs))
	for _, id := range memberIDs {
		if user, ok := usersByID[id]; ok {
			members = append(members, user)
		}
	}

	return &model.Project{
		ID:        repoProject.ID,
		Name:      repoProject.Name,
		Owner:     usersByID[repoProject.OwnerID],
		Members:   members,
		CreatedAt: repoProject.CreatedAt,
	}, nil
}

func (p *ProjectService) WithProjectRepo(r repository.ProjectRepository) *ProjectService {
	p.projects = r
	return p
}

func (p *ProjectService) WithUserRepo(r repository.UserRepository) *ProjectService {
	p.users = r
	return p
}

func (p *ProjectService) WithTaskRepo(r repository.TaskRepository) *ProjectService {
	p.tasks = r
	return p
}

func (p *ProjectService) WithMessageRepo(r repository.MessageRepository) *ProjectService {
	p.messages = r
	return p
}

func (p *ProjectService) WithLinkRepo(r repository.LinkRepository) *ProjectService {
	p.links = r
	return p
}
