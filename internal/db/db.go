package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskmanager/internal/config"
	"taskmanager/internal/db/models"
)

// DB is the pgx-backed task store.
type DB struct {
	*pgxpool.Pool
	table string
	now   func() time.Time
}

func New(ctx context.Context, cfg config.Database, opts ...Option) (*DB, error) {
	o := newOptions(opts)

	// Create a configuration object
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Configure connection pool and statement cache
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return &DB{
		Pool:  pool,
		table: pgx.Identifier{cfg.Table}.Sanitize(),
		now:   o.now,
	}, nil
}

// Close releases the pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// Migrate creates the tasks table if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	ddl, err := postgresDialect.schemaSQL(db.table)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("error executing migration: %w", err)
	}
	return nil
}

// ListTasks returns every task ordered by id
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := db.Query(ctx, postgresDialect.listQuery(db.table))
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Task])
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	return tasks, nil
}

// CreateTask inserts a new task and returns the stored row
func (db *DB) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	query, args := postgresDialect.insert(db.table, title, description, db.now())
	return db.queryOne(ctx, query, args...)
}

// GetTaskByID retrieves a task by its ID. A missing task yields (nil, nil).
func (db *DB) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := db.queryOne(ctx, postgresDialect.getQuery(db.table), id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return task, err
}

// UpdateTask applies the supplied patch fields and refreshes updated_at
func (db *DB) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	query, args := postgresDialect.update(db.table, id, patch, db.now())
	return db.queryOne(ctx, query, args...)
}

// DeleteTask permanently removes a task
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	tag, err := db.Exec(ctx, postgresDialect.deleteQuery(db.table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (db *DB) queryOne(ctx context.Context, query string, args ...any) (*models.Task, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(task)
	return task, nil
}

func normalize(t *models.Task) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
}
