package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskmanager/internal/db/models"
	"taskmanager/internal/logger"
)

// memStore is an in-memory Store used to test the service in isolation.
type memStore struct {
	nextID int64
	tasks  map[int64]models.Task
	err    error
	now    time.Time
}

func newMemStore() *memStore {
	return &memStore{tasks: map[int64]models.Task{}, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Task
	for id := int64(1); id <= m.nextID; id++ {
		if t, ok := m.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	now := m.tick()
	t := models.Task{ID: m.nextID, Title: title, Description: description, CreatedAt: now, UpdatedAt: now}
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *memStore) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = m.tick()
	m.tasks[id] = t
	return &t, nil
}

func (m *memStore) DeleteTask(ctx context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) Ping(ctx context.Context) error { return m.err }

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, logger.Discard()), store
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Buy milk", want: "Buy milk"},
		{in: "  padded  ", want: "  padded  "},
		{in: "", wantErr: true},
		{in: " \t\n ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ValidateTitle(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateTitle(%q) err=%v, want ErrValidation", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ValidateTitle(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestService_CreateRejectsBlankTitleWithoutPersisting(t *testing.T) {
	svc, store := newTestService()

	for _, title := range []string{"", "   "} {
		if _, err := svc.Create(context.Background(), title, nil); !errors.Is(err, ErrValidation) {
			t.Fatalf("Create(%q) err=%v, want ErrValidation", title, err)
		}
	}
	if len(store.tasks) != 0 {
		t.Fatalf("store has %d tasks, want 0", len(store.tasks))
	}
}

func TestService_GetMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestService_UpdateValidatesSuppliedTitle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, models.TaskPatch{Title: models.Some("  ")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v, want ErrValidation", err)
	}

	updated, err := svc.Update(ctx, created.ID, models.TaskPatch{Title: models.Some(" Buy oat milk ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != " Buy oat milk " {
		t.Fatalf("title=%q, want stored as sent", updated.Title)
	}
}

func TestService_UpdateAndDeleteMissing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Update(ctx, 9, models.TaskPatch{Completed: models.Some(true)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update err=%v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete err=%v, want ErrNotFound", err)
	}
}

func TestService_StoreFaultsAreWrapped(t *testing.T) {
	svc, store := newTestService()
	store.err = errors.New("connection reset")
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list"] = svc.List(ctx)
	_, checks["create"] = svc.Create(ctx, "x", nil)
	_, checks["get"] = svc.Get(ctx, 1)
	_, checks["update"] = svc.Update(ctx, 1, models.TaskPatch{})
	checks["delete"] = svc.Delete(ctx, 1)

	for op, err := range checks {
		var se *StoreError
		if !errors.As(err, &se) {
			t.Errorf("%s: err=%v, want *StoreError", op, err)
			continue
		}
		if se.Op != op {
			t.Errorf("%s: op=%q", op, se.Op)
		}
		if !IsStoreFault(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			t.Errorf("%s: misclassified %v", op, err)
		}
	}
}

func TestService_ListNeverReturnsNil(t *testing.T) {
	svc, _ := newTestService()

	tasks, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if tasks == nil {
		t.Fatal("List returned nil slice; JSON would encode null")
	}
}
