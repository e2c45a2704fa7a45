package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexboard/nexboard/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

type Invitation struct {
	ID             string    `db:"id"`
	ProjectID      string    `db:"project_id"`
	SenderID       string    `db:"sender_id"`
	RecipientEmail string    `db:"recipient_email"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	Get(ctx context.Context, invitationID string) (*Invitation, error)
	// GetPending reports whether an unresolved invitation already exists for
	// the (project, email) pair.
	GetPending(ctx context.Context, projectID, email string) (*Invitation, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*Invitation, error)
	UpdateStatus(ctx context.Context, invitationID, status string) error
}

type pgxInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgxInvitationRepository{pool: pool}
}

func (p *pgxInvitationRepository) Create(ctx context.Context, invitation *Invitation) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("invitations", "id", "project_id", "sender_id", "recipient_email", "status", "created_at"),
		im.Values(
			psql.Arg(invitation.ID),
			psql.Arg(invitation.ProjectID),
			psql.Arg(invitation.SenderID),
			psql.Arg(invitation.RecipientEmail),
			psql.Arg(invitation.Status),
			psql.Arg(invitation.CreatedAt),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxInvitationRepository) Get(ctx context.Context, invitationID string) (*Invitation, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "project_id", "sender_id", "recipient_email", "status", "created_at"),
		sm.From("invitations"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(invitationID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	invitation := &Invitation{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&invitation.ID,
		&invitation.ProjectID,
		&invitation.SenderID,
		&invitation.RecipientEmail,
		&invitation.Status,
		&invitation.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (p *pgxInvitationRepository) GetPending(ctx context.Context, projectID, email string) (*Invitation, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "project_id", "sender_id", "recipient_email", "status", "created_at"),
		sm.From("invitations"),
		sm.Where(
			psql.Quote("project_id").EQ(psql.Arg(projectID)).
				And(psql.Quote("recipient_email").EQ(psql.Arg(email))).
				And(psql.Quote("status").EQ(psql.Arg("pending"))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	invitation := &Invitation{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&invitation.ID,
		&invitation.ProjectID,
		&invitation.SenderID,
		&invitation.RecipientEmail,
		&invitation.Status,
		&invitation.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (p *pgxInvitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "project_id", "sender_id", "recipient_email", "status", "created_at"),
		sm.From("invitations"),
		sm.Where(
			psql.Quote("recipient_email").EQ(psql.Arg(email)).
				And(psql.Quote("status").EQ(psql.Arg("pending"))),
		),
		sm.OrderBy("created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Invitation, error) {
		invitation := &Invitation{}
		if err = row.Scan(
			&invitation.ID,
			&invitation.ProjectID,
			&invitation.SenderID,
			&invitation.RecipientEmail,
			&invitation.Status,
			&invitation.CreatedAt,
		); err != nil {
			return nil, err
		}
		return invitation, nil
	})
}

func (p *pgxInvitationRepository) UpdateStatus(ctx context.Context, invitationID, status string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("invitations"),
		um.SetCol("status").ToArg(status),
		um.Where(psql.Quote("id").EQ(psql.Arg(invitationID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
