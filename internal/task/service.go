package task

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/db/models"
)

var storeOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskmanager_store_operations_total",
		Help: "Task store operations by operation and result",
	},
	[]string{"op", "result"},
)

type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, log: log}
}

func (s *Service) List(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, s.fault("list", err)
	}
	observe("list", nil)
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *Service) Create(ctx context.Context, title string, description *string) (*models.Task, error) {
	valid, err := ValidateTitle(title)
	if err != nil {
		observe("create", err)
		return nil, err
	}

	created, err := s.store.CreateTask(ctx, valid, description)
	if err != nil {
		return nil, s.fault("create", err)
	}
	observe("create", nil)
	s.log.WithField("task_id", created.ID).Debug("task created")
	return created, nil
}

// Get returns ErrNotFound when the store has no task with the id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Task, error) {
	found, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, s.fault("get", err)
	}
	if found == nil {
		observe("get", ErrNotFound)
		return nil, ErrNotFound
	}
	observe("get", nil)
	return found, nil
}

// Update applies patch to the task. A supplied title is validated the same
// way as on create.
func (s *Service) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title.Set {
		valid, err := ValidateTitle(patch.Title.Value)
		if err != nil {
			observe("update", err)
			return nil, err
		}
		patch.Title.Value = valid
	}

	updated, err := s.store.UpdateTask(ctx, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			observe("update", err)
			return nil, ErrNotFound
		}
		return nil, s.fault("update", err)
	}
	observe("update", nil)
	s.log.WithField("task_id", id).Debug("task updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			observe("delete", err)
			return ErrNotFound
		}
		return s.fault("delete", err)
	}
	observe("delete", nil)
	s.log.WithField("task_id", id).Debug("task deleted")
	return nil
}

// Ping checks store connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// fault records a store failure. Callers log it with their request context.
func (s *Service) fault(op string, err error) error {
	observe(op, err)
	return &StoreError{Op: op, Err: err}
}

func observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		result = "invalid"
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	storeOps.WithLabelValues(op, result).Inc()
}
