package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexboard/nexboard/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Message struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	ProjectID string    `db:"project_id"`
	SenderID  string    `db:"sender_id"`
	CreatedAt time.Time `db:"created_at"`
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	Get(ctx context.Context, messageID string) (*Message, error)
	ListByProject(ctx context.Context, projectID string) ([]*Message, error)
	Delete(ctx context.Context, messageID string) error
}

type pgxMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &pgxMessageRepository{pool: pool}
}

func (p *pgxMessageRepository) Create(ctx context.Context, message *Message) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("messages", "id", "content", "project_id", "sender_id", "created_at"),
		im.Values(
			psql.Arg(message.ID),
			psql.Arg(message.Content),
			psql.Arg(message.ProjectID),
			psql.Arg(message.SenderID),
			psql.Arg(message.CreatedAt),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxMessageRepository) Get(ctx context.Context, messageID string) (*Message, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "content", "project_id", "sender_id", "created_at"),
		sm.From("messages"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(messageID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	message := &Message{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&message.ID,
		&message.Content,
		&message.ProjectID,
		&message.SenderID,
		&message.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return message, nil
}

func (p *pgxMessageRepository) ListByProject(ctx context.Context, projectID string) ([]*Message, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "content", "project_id", "sender_id", "created_at"),
		sm.From("messages"),
		sm.Where(psql.Quote("project_id").EQ(psql.Arg(projectID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Message, error) {
		message := &Message{}
		if err = row.Scan(&message.ID, &message.Content, &message.ProjectID, &message.SenderID, &message.CreatedAt); err != nil {
			return nil, err
		}
		return message, nil
	})
}

func (p *pgxMessageRepository) Delete(ctx context.Context, messageID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("messages"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(messageID))),
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
