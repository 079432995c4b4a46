package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"taskmanager/internal/config"
	"taskmanager/internal/db/models"
)

// SQLStore is the database/sql task store used for the lib/pq and
// go-sqlite3 drivers.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	table   string
	now     func() time.Time
}

func NewSQLStore(ctx context.Context, cfg config.Database, opts ...Option) (*SQLStore, error) {
	o := newOptions(opts)

	d := postgresDialect
	if cfg.Driver == config.DriverSQLite {
		d = sqliteDialect
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.name == sqliteDialect.name {
		// SQLite allows a single writer; serialize through one connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		table:   pq.QuoteIdentifier(cfg.Table),
		now:     o.now,
	}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	ddl, err := s.dialect.schemaSQL(s.table)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("error executing migration: %w", describe(err))
	}
	return nil
}

func (s *SQLStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.listQuery(s.table))
	if err != nil {
		return nil, describe(err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, describe(rows.Err())
}

func (s *SQLStore) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	query, args := s.dialect.insert(s.table, title, description, s.now())
	return s.queryOne(ctx, query, args...)
}

// GetTaskByID returns (nil, nil) when no task has the id.
func (s *SQLStore) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.queryOne(ctx, s.dialect.getQuery(s.table), id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return task, err
}

func (s *SQLStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	query, args := s.dialect.update(s.table, id, patch, s.now())
	return s.queryOne(ctx, query, args...)
}

func (s *SQLStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.deleteQuery(s.table), id)
	if err != nil {
		return describe(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLStore) queryOne(ctx context.Context, query string, args ...any) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		timeScanner{&task.CreatedAt},
		timeScanner{&task.UpdatedAt},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, describe(err)
	}
	return task, nil
}

// describe adds the SQLSTATE to postgres errors reported by lib/pq.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres %s (%s): %w", pqErr.Code, pqErr.Code.Name(), err)
	}
	return err
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// timeScanner accepts the native time.Time of lib/pq as well as the text
// representation go-sqlite3 returns when a column type is not known.
type timeScanner struct {
	t *time.Time
}

func (ts timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (ts timeScanner) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", s)
}
