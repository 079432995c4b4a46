package db

import (
	"context"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/task"
)

// Store is a task store with an explicit lifecycle.
type Store interface {
	task.Store
	Migrate(ctx context.Context) error
	Close() error
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		now: func() time.Time {
			// postgres keeps microseconds
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Database, opts ...Option) (Store, error) {
	if cfg.Driver == config.DriverPgx {
		db, err := New(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	s, err := NewSQLStore(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
