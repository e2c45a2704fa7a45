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
	"github.com/stephenafamo/bob/dialect/psql/um"
)

type Task struct {
	ID          string    `db:"id"`
	Content     string    `db:"content"`
	ProjectID   string    `db:"project_id"`
	CreatedBy   string    `db:"created_by"`
	IsCompleted bool      `db:"is_completed"`
	CreatedAt   time.Time `db:"created_at"`
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, taskID string) (*Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*Task, error)
	SetCompleted(ctx context.Context, taskID string, isCompleted bool) (*Task, error)
	Delete(ctx context.Context, taskID string) error
}

type pgxTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &pgxTaskRepository{pool: pool}
}

func (p *pgxTaskRepository) Create(ctx context.Context, task *Task) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("tasks", "id", "content", "project_id", "created_by", "is_completed", "created_at"),
		im.Values(
			psql.Arg(task.ID),
			psql.Arg(task.Content),
			psql.Arg(task.ProjectID),
			psql.Arg(task.CreatedBy),
			psql.Arg(task.IsCompleted),
			psql.Arg(task.CreatedAt),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxTaskRepository) Get(ctx context.Context, taskID string) (*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "content", "project_id", "created_by", "is_completed", "created_at"),
		sm.From("tasks"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(taskID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	task := &Task{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&task.ID,
		&task.Content,
		&task.ProjectID,
		&task.CreatedBy,
		&task.IsCompleted,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (p *pgxTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "content", "project_id", "created_by", "is_completed", "created_at"),
		sm.From("tasks"),
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

	return pgx.CollectRows(rows, scanTask)
}

func (p *pgxTaskRepository) SetCompleted(ctx context.Context, taskID string, isCompleted bool) (*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("tasks"),
		um.SetCol("is_completed").ToArg(isCompleted),
		um.Where(psql.Quote("id").EQ(psql.Arg(taskID))),
		um.Returning("id", "content", "project_id", "created_by", "is_completed", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	task := &Task{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&task.ID,
		&task.Content,
		&task.ProjectID,
		&task.CreatedBy,
		&task.IsCompleted,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (p *pgxTaskRepository) Delete(ctx context.Context, taskID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("tasks"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(taskID))),
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

func scanTask(row pgx.CollectableRow) (*Task, error) {
	task := &Task{}
	if err := row.Scan(&task.ID, &task.Content, &task.ProjectID, &task.CreatedBy, &task.IsCompleted, &task.CreatedAt); err != nil {
		return nil, err
	}
	return task, nil
}
