package service

import (
	"context"
	"slices"
	"testing"

	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a single in-memory backing store implementing the user, project
// and invitation repositories, for exercising whole workflows without mocks.
type memStore struct {
	users       map[string]*repository.User
	projects    map[string]*repository.Project
	members     map[string][]string
	invitations map[string]*repository.Invitation
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*repository.User),
		projects:    make(map[string]*repository.Project),
		members:     make(map[string][]string),
		invitations: make(map[string]*repository.Invitation),
	}
}

func (s *memStore) Create(_ context.Context, user *repository.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memStore) Get(_ context.Context, userID string) (*repository.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetByIDs(_ context.Context, userIDs []string) ([]*repository.User, error) {
	users := make([]*repository.User, 0, len(userIDs))
	for _, id := range userIDs {
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *memStore) GetProjectIDs(_ context.Context, userID string) ([]string, error) {
	var projectIDs []string
	for projectID, memberIDs := range s.members {
		if slices.Contains(memberIDs, userID) {
			projectIDs = append(projectIDs, projectID)
		}
	}
	return projectIDs, nil
}

type memProjectRepo struct{ store *memStore }

func (r *memProjectRepo) Create(_ context.Context, project *repository.Project) error {
	r.store.projects[project.ID] = project
	return nil
}

func (r *memProjectRepo) Get(_ context.Context, projectID string) (*repository.Project, error) {
	project, ok := r.store.projects[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return project, nil
}

func (r *memProjectRepo) ListByMember(_ context.Context, userID string) ([]*repository.Project, error) {
	var projects []*repository.Project
	for projectID, memberIDs := range r.store.members {
		if slices.Contains(memberIDs, userID) {
			projects = append(projects, r.store.projects[projectID])
		}
	}
	return projects, nil
}

func (r *memProjectRepo) GetMemberIDs(_ context.Context, projectID string) ([]string, error) {
	return r.store.members[projectID], nil
}

func (r *memProjectRepo) AddMember(_ context.Context, projectID, userID string) error {
	if slices.Contains(r.store.members[projectID], userID) {
		return repository.ErrAlreadyExists
	}
	r.store.members[projectID] = append(r.store.members[projectID], userID)
	return nil
}

type memInvitationRepo struct{ store *memStore }

func (r *memInvitationRepo) Create(_ context.Context, invitation *repository.Invitation) error {
	r.store.invitations[invitation.ID] = invitation
	return nil
}

func (r *memInvitationRepo) Get(_ context.Context, invitationID string) (*repository.Invitation, error) {
	invitation, ok := r.store.invitations[invitationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return invitation, nil
}

func (r *memInvitationRepo) GetPending(_ context.Context, projectID, email string) (*repository.Invitation, error) {
	for _, invitation := range r.store.invitations {
		if invitation.ProjectID == projectID && invitation.RecipientEmail == email && invitation.Status == "pending" {
			return invitation, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memInvitationRepo) ListPendingByEmail(_ context.Context, email string) ([]*repository.Invitation, error) {
	var invitations []*repository.Invitation
	for _, invitation := range r.store.invitations {
		if invitation.RecipientEmail == email && invitation.Status == "pending" {
			invitations = append(invitations, invitation)
		}
	}
	return invitations, nil
}

func (r *memInvitationRepo) UpdateStatus(_ context.Context, invitationID, status string) error {
	invitation, ok := r.store.invitations[invitationID]
	if !ok {
		return repository.ErrNotFound
	}
	invitation.Status = status
	return nil
}

func TestInvitationFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	projectRepo := &memProjectRepo{store: store}
	invitationRepo := &memInvitationRepo{store: store}
	tx := new(MockTransactor)
	resolver := authz.NewResolver()

	users := NewUserService().WithUserRepo(store)
	projects := NewProjectService(tx, resolver).
		WithProjectRepo(projectRepo).
		WithUserRepo(store)
	invitations := NewInvitationService(tx, resolver).
		WithInvitationRepo(invitationRepo).
		WithProjectRepo(projectRepo).
		WithUserRepo(store)

	alice, serviceErr := users.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.Nil(t, serviceErr)
	bob, serviceErr := users.Register(ctx, "bob", "bob@example.com", "s3cret")
	require.Nil(t, serviceErr)

	project, serviceErr := projects.CreateProject(ctx, "launch", alice.ID)
	require.Nil(t, serviceErr)

	// Owner invites bob.
	invitation, serviceErr := invitations.CreateInvitation(ctx, project.ID, alice.ID, "Bob@Example.com")
	require.Nil(t, serviceErr)
	assert.Equal(t, model.InvitationStatusPending, invitation.Status)
	assert.Equal(t, "bob@example.com", invitation.RecipientEmail)

	// A second invitation to the same address conflicts while one is pending.
	_, serviceErr = invitations.CreateInvitation(ctx, project.ID, alice.ID, "bob@example.com")
	require.Error(t, serviceErr)
	assert.Equal(t, ErrorCodeInvitationPending, serviceErr.Code)

	// Bob sees it in his pending list, populated with project and sender.
	pending, serviceErr := invitations.ListPending(ctx, bob.Email)
	require.Nil(t, serviceErr)
	require.Len(t, pending, 1)
	assert.Equal(t, "launch", pending[0].Project.Name)
	assert.Equal(t, "alice", pending[0].Sender.Username)

	// Another user cannot respond to bob's invitation.
	serviceErr = invitations.Accept(ctx, invitation.ID, alice.ID, alice.Email)
	require.Error(t, serviceErr)
	assert.Equal(t, ErrorCodeNotFound, serviceErr.Code)

	// Bob accepts and becomes a member.
	serviceErr = invitations.Accept(ctx, invitation.ID, bob.ID, bob.Email)
	require.Nil(t, serviceErr)

	bobProjects, serviceErr := projects.ListProjects(ctx, bob.ID)
	require.Nil(t, serviceErr)
	require.Len(t, bobProjects, 1)
	assert.Equal(t, project.ID, bobProjects[0].ID)

	// The invitation is resolved; a second response is rejected.
	serviceErr = invitations.Accept(ctx, invitation.ID, bob.ID, bob.Email)
	require.Error(t, serviceErr)
	assert.Equal(t, ErrorCodeInvitationResolved, serviceErr.Code)

	// And a fresh invitation to a member is rejected outright.
	_, serviceErr = invitations.CreateInvitation(ctx, project.ID, alice.ID, bob.Email)
	require.Error(t, serviceErr)
	assert.Equal(t, ErrorCodeAlreadyMember, serviceErr.Code)
}
