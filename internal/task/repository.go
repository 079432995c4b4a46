package task

import (
	"context"

	"taskmanager/internal/db/models"
)

// Store is the persistence contract the service depends on.
// GetTaskByID signals a missing task with (nil, nil); UpdateTask and
// DeleteTask return models.ErrNotFound.
type Store interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, title string, description *string) (*models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
