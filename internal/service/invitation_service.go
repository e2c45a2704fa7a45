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

type InvitationService struct {
	tx       db.Transactor
	resolver authz.Resolver

	invitations repository.InvitationRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
}

func NewInvitationService(tx db.Transactor, resolver authz.Resolver) *InvitationService {
	return &InvitationService{
		tx:       tx,
		resolver: resolver,
	}
}

// CreateInvitation starts the pending → accepted/declined lifecycle. Only the
// project owner may invite, the recipient must exist and not already be a
// member, and at most one pending invitation per (project, email) pair is
// allowed.
func (i *InvitationService) CreateInvitation(ctx context.Context, projectID, senderID, email string) (*model.Invitation, *Error) {
	l := logger.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, NewError(ErrorCodeInvalidBody, "recipient email is required")
	}

	project, err := i.projects.Get(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send invitation")
	}

	if !i.resolver.CanManageMembers(senderID, project.OwnerID) {
		return nil, NewError(ErrorCodeNotAuthorized, "only the project owner can send invitations")
	}

	recipient, err := i.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "user with that email not found")
	}
	if err != nil {
		l.Error("failed to look up recipient", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send invitation")
	}

	memberIDs, err := i.projects.GetMemberIDs(ctx, projectID)
	if err != nil {
		l.Error("failed to get project members", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send invitation")
	}
	if i.resolver.CanViewProject(recipient.ID, memberIDs) {
		return nil, NewError(ErrorCodeAlreadyMember, "user is already a member")
	}

	_, err = i.invitations.GetPending(ctx, projectID, email)
	if err == nil {
		return nil, NewError(ErrorCodeInvitationPending, "an invitation has already been sent to this user")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		l.Error("failed to check pending invitations", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send invitation")
	}

	invitation := &repository.Invitation{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		SenderID:       senderID,
		RecipientEmail: email,
		Status:         string(model.InvitationStatusPending),
		CreatedAt:      time.Now().UTC(),
	}

	if err = i.invitations.Create(ctx, invitation); err != nil {
		l.Error("failed to create invitation", zap.String("project_id", projectID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to send invitation")
	}

	l.Info("invitation sent",
		zap.String("project_id", projectID),
		zap.String("recipient_email", email))

	return i.populateInvitation(ctx, invitation)
}

// ListPending returns the caller's unanswered invitations, matched by email.
func (i *InvitationService) ListPending(ctx context.Context, email string) ([]*model.Invitation, *Error) {
	l := logger.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	repoInvitations, err := i.invitations.ListPendingByEmail(ctx, email)
	if err != nil {
		l.Error("failed to list invitations", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list invitations")
	}

	invitations := make([]*model.Invitation, 0, len(repoInvitations))
	for _, repoInvitation := range repoInvitations {
		invitation, serviceErr := i.populateInvitation(ctx, repoInvitation)
		if serviceErr != nil {
			return nil, serviceErr
		}
		invitations = append(invitations, invitation)
	}
	return invitations, nil
}

// Accept transitions a pending invitation to accepted and grants membership.
// The membership row and the status update commit in one transaction, so a
// crash can never leave an accepted invitation without the membership.
func (i *InvitationService) Accept(ctx context.Context, invitationID, callerID, callerEmail string) *Error {
	l := logger.FromContext(ctx)

	err := i.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		invitation, err := i.claimPending(txCtx, invitationID, callerEmail)
		if err != nil {
			return err
		}

		err = i.projects.AddMember(txCtx, invitation.ProjectID, callerID)
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			l.Error("failed to add member",
				zap.String("project_id", invitation.ProjectID),
				zap.String("user_id", callerID),
				zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to accept invitation")
		}

		if err = i.invitations.UpdateStatus(txCtx, invitationID, string(model.InvitationStatusAccepted)); err != nil {
			l.Error("failed to update invitation", zap.String("invitation_id", invitationID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to accept invitation")
		}

		l.Info("invitation accepted",
			zap.String("invitation_id", invitationID),
			zap.String("project_id", invitation.ProjectID),
			zap.String("user_id", callerID))

		return nil
	})
	if err == nil {
		return nil
	}

	var res *Error
	if errors.As(err, &res) {
		return res
	}
	l.Error("transaction failed", zap.String("invitation_id", invitationID), zap.Error(err))
	return NewError(ErrorCodeUnspecified, "failed to accept invitation")
}

// Decline marks the invitation declined. No membership side effect.
func (i *InvitationService) Decline(ctx context.Context, invitationID, callerEmail string) *Error {
	l := logger.FromContext(ctx)

	err := i.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		invitation, err := i.claimPending(txCtx, invitationID, callerEmail)
		if err != nil {
			return err
		}

		if err = i.invitations.UpdateStatus(txCtx, invitationID, string(model.InvitationStatusDeclined)); err != nil {
			l.Error("failed to update invitation", zap.String("invitation_id", invitationID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to decline invitation")
		}

		l.Info("invitation declined",
			zap.String("invitation_id", invitationID),
			zap.String("project_id", invitation.ProjectID))

		return nil
	})
	if err == nil {
		return nil
	}

	var res *Error
	if errors.As(err, &res) {
		return res
	}
	l.Error("transaction failed", zap.String("invitation_id", invitationID), zap.Error(err))
	return NewError(ErrorCodeUnspecified, "failed to decline invitation")
}

// claimPending loads the invitation and enforces the response preconditions:
// the caller must be the recipient, and the invitation must still be pending.
func (i *InvitationService) claimPending(ctx context.Context, invitationID, callerEmail string) (*repository.Invitation, error) {
	l := logger.FromContext(ctx)

	callerEmail = strings.ToLower(strings.TrimSpace(callerEmail))

	invitation, err := i.invitations.Get(ctx, invitationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "invitation not found or you are not the recipient")
	}
	if err != nil {
		l.Error("failed to get invitation", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load invitation")
	}

	if invitation.RecipientEmail != callerEmail {
		return nil, NewError(ErrorCodeNotFound, "invitation not found or you are not the recipient")
	}

	if invitation.Status != string(model.InvitationStatusPending) {
		return nil, NewError(ErrorCodeInvitationResolved, "this invitation has already been responded to")
	}

	return invitation, nil
}

func (i *InvitationService) populateInvitation(ctx context.Context, repoInvitation *repository.Invitation) (*model.Invitation, *Error) {
	l := logger.FromContext(ctx)

	project, err := i.projects.Get(ctx, repoInvitation.ProjectID)
	if err != nil {
		l.Error("failed to load invitation project", zap.String("invitation_id", repoInvitation.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load invitation")
	}

	sender, err := i.users.Get(ctx, repoInvitation.SenderID)
	if err != nil {
		l.Error("failed to load invitation sender", zap.String("invitation_id", repoInvitation.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load invitation")
	}

	return &model.Invitation{
		ID: repoInvitation.ID,
		Project: &model.Project{
			ID:   project.ID,
			Name: project.Name,
		},
		Sender:         toPublicUser(sender),
		RecipientEmail: repoInvitation.RecipientEmail,
		Status:         model.InvitationStatus(repoInvitation.Status),
		CreatedAt:      repoInvitation.CreatedAt,
	}, nil
}

func (i *InvitationService) WithInvitationRepo(r repository.InvitationRepository) *InvitationService {
	i.invitations = r
	return i
}

func (i *InvitationService) WithProjectRepo(r repository.ProjectRepository) *InvitationService {
	i.projects = r
	return i
}

func (i *InvitationService) WithUserRepo(r repository.UserRepository) *InvitationService {
	i.users = r
	return i
}
