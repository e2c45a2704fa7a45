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

type Link struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	URL       string    `db:"url"`
	ProjectID string    `db:"project_id"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

type LinkRepository interface {
	Create(ctx context.Context, link *Link) error
	Get(ctx context.Context, linkID string) (*Link, error)
	ListByProject(ctx context.Context, projectID string) ([]*Link, error)
	Delete(ctx context.Context, linkID string) error
}

type pgxLinkRepository struct {
	pool *pgxpool.Pool
}

func NewPgxLinkRepository(pool *pgxpool.Pool) LinkRepository {
	return &pgxLinkRepository{pool: pool}
}

func (p *pgxLinkRepository) Create(ctx context.Context, link *Link) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("links", "id", "title", "url", "project_id", "created_by", "created_at"),
		im.Values(
			psql.Arg(link.ID),
			psql.Arg(link.Title),
			psql.Arg(link.URL),
			psql.Arg(link.ProjectID),
			psql.Arg(link.CreatedBy),
			psql.Arg(link.CreatedAt),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxLinkRepository) Get(ctx context.Context, linkID string) (*Link, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "title", "url", "project_id", "created_by", "created_at"),
		sm.From("links"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(linkID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	link := &Link{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&link.ID,
		&link.Title,
		&link.URL,
		&link.ProjectID,
		&link.CreatedBy,
		&link.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

func (p *pgxLinkRepository) ListByProject(ctx context.Context, projectID string) ([]*Link, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "title", "url", "project_id", "created_by", "created_at"),
		sm.From("links"),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Link, error) {
		link := &Link{}
		if err = row.Scan(&link.ID, &link.Title, &link.URL, &link.ProjectID, &link.CreatedBy, &link.CreatedAt); err != nil {
			return nil, err
		}
		return link, nil
	})
}

func (p *pgxLinkRepository) Delete(ctx context.Context, linkID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("links"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(linkID))),
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
