// Package view holds the client-side state of the task list screen and the
// transitions between its modes. It is independent of any rendering.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskmanager/internal/client"
	"taskmanager/internal/db/models"
)

var (
	// ErrBusy is returned when a mutation is started while another is in flight.
	ErrBusy = errors.New("another change is still in progress")
	// ErrUnknownTask is returned for an id that is not in the current list.
	ErrUnknownTask = errors.New("task is not in the list")
)

// API is the subset of the task API the view talks to.
type API interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, title string, description *string) (*models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
}

type Mode int

const (
	Idle Mode = iota
	Loaded
	LoadError
	Editing
)

func (m Mode) String() string {
	switch m {
	case Loaded:
		return "loaded"
	case LoadError:
		return "load_error"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// State is a snapshot of the view.
type State struct {
	Tasks            []models.Task
	DraftTitle       string
	DraftDescription string
	EditingID        int64
	PendingDeleteID  int64
	Loading          bool
	Saving           bool
	Error            string
	LoadFailed       bool
	loaded           bool
}

func (s State) Mode() Mode {
	switch {
	case s.EditingID != 0:
		return Editing
	case s.LoadFailed:
		return LoadError
	case s.loaded:
		return Loaded
	default:
		return Idle
	}
}

func (s State) Total() int {
	return len(s.Tasks)
}

func (s State) Completed() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// CanSubmit reports whether the form may be submitted right now.
func (s State) CanSubmit() bool {
	return !s.Loading && !s.Saving && strings.TrimSpace(s.DraftTitle) != ""
}

func (s State) find(id int64) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

type View struct {
	api API

	mu sync.Mutex
	st State
}

func New(api API) *View {
	return &View{api: api}
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := v.st
	st.Tasks = append([]models.Task(nil), v.st.Tasks...)
	return st
}

// SetDraft replaces the form fields.
func (v *View) SetDraft(title, description string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.DraftTitle = title
	v.st.DraftDescription = description
}

// Load fetches the task list. On failure the list is emptied and an error is shown.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.st.Loading = true
	v.mu.Unlock()

	tasks, err := v.api.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.Loading = false
	if err != nil {
		v.st.Tasks = nil
		v.st.LoadFailed = true
		v.st.Error = loadErrorMessage(err)
		return err
	}
	v.st.Tasks = tasks
	v.st.LoadFailed = false
	v.st.loaded = true
	v.st.Error = ""
	return nil
}

func loadErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return "Failed to load tasks"
	}
	return "Failed to connect to API"
}

// Submit creates a task from the draft, or updates the task being edited.
// A blank draft title is ignored. On failure the draft is kept.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	title := v.st.DraftTitle
	if strings.TrimSpace(title) == "" {
		v.mu.Unlock()
		return nil
	}
	if err := v.beginLocked(); err != nil {
		v.mu.Unlock()
		return err
	}
	editing := v.st.EditingID
	description := draftDescription(v.st.DraftDescription)
	v.mu.Unlock()

	var err error
	if editing != 0 {
		_, err = v.api.Update(ctx, editing, models.TaskPatch{
			Title:       models.Some(title),
			Description: models.Some(description),
		})
	} else {
		_, err = v.api.Create(ctx, title, description)
	}
	if err != nil {
		v.fail("Failed to save task: ", err)
		return err
	}

	v.mu.Lock()
	v.st.DraftTitle = ""
	v.st.DraftDescription = ""
	v.st.EditingID = 0
	v.mu.Unlock()

	return v.refresh(ctx)
}

func draftDescription(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Edit copies the task into the draft and marks it as the editing target.
func (v *View) Edit(id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.st.Saving {
		return ErrBusy
	}
	t, ok := v.st.find(id)
	if !ok {
		return ErrUnknownTask
	}
	v.st.DraftTitle = t.Title
	v.st.DraftDescription = ""
	if t.Description != nil {
		v.st.DraftDescription = *t.Description
	}
	v.st.EditingID = id
	v.st.Error = ""
	return nil
}

// Cancel clears the draft and leaves editing mode.
func (v *View) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.DraftTitle = ""
	v.st.DraftDescription = ""
	v.st.EditingID = 0
	v.st.Error = ""
}

// RequestDelete asks for confirmation before deleting id.
func (v *View) RequestDelete(id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.st.find(id); !ok {
		return ErrUnknownTask
	}
	v.st.PendingDeleteID = id
	return nil
}

func (v *View) CancelDelete() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.PendingDeleteID = 0
}

// ConfirmDelete deletes the task awaiting confirmation. It is a no-op when
// nothing is pending. Deleting the task being edited also ends the edit.
func (v *View) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	id := v.st.PendingDeleteID
	if id == 0 {
		v.mu.Unlock()
		return nil
	}
	if err := v.beginLocked(); err != nil {
		v.mu.Unlock()
		return err
	}
	v.st.PendingDeleteID = 0
	v.mu.Unlock()

	if err := v.api.Delete(ctx, id); err != nil {
		v.fail("Failed to delete task: ", err)
		return err
	}

	v.mu.Lock()
	if v.st.EditingID == id {
		v.st.DraftTitle = ""
		v.st.DraftDescription = ""
		v.st.EditingID = 0
	}
	v.mu.Unlock()
	return v.refresh(ctx)
}

// Toggle flips the completed flag of id. The draft is not touched.
func (v *View) Toggle(ctx context.Context, id int64) error {
	v.mu.Lock()
	t, ok := v.st.find(id)
	if !ok {
		v.mu.Unlock()
		return ErrUnknownTask
	}
	if err := v.beginLocked(); err != nil {
		v.mu.Unlock()
		return err
	}
	v.mu.Unlock()

	if _, err := v.api.Update(ctx, id, models.TaskPatch{Completed: models.Some(!t.Completed)}); err != nil {
		v.fail("Failed to update task: ", err)
		return err
	}
	return v.refresh(ctx)
}

// beginLocked marks a mutation as in flight. v.mu must be held.
func (v *View) beginLocked() error {
	if v.st.Saving {
		return ErrBusy
	}
	v.st.Saving = true
	v.st.Error = ""
	return nil
}

func (v *View) fail(prefix string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.Saving = false
	v.st.Error = prefix + err.Error()
}

// refresh re-fetches the list after a successful mutation and ends it.
func (v *View) refresh(ctx context.Context) error {
	err := v.Load(ctx)

	v.mu.Lock()
	v.st.Saving = false
	v.mu.Unlock()
	return err
}
