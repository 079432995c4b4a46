package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by store operations that target a missing task.
var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Completed   bool      `db:"completed" json:"completed"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Optional is a single patch field. Set reports whether the field was supplied
// at all, so an absent field can be told apart from a null or zero value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// TaskPatch is a partial update. Only fields with Set == true are written.
type TaskPatch struct {
	Title       Optional[string]  `json:"title"`
	Description Optional[*string] `json:"description"`
	Completed   Optional[bool]    `json:"completed"`
}

// Empty reports whether the patch touches no field.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}

// MarshalJSON emits only the supplied fields.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if p.Title.Set {
		out["title"] = p.Title.Value
	}
	if p.Description.Set {
		out["description"] = p.Description.Value
	}
	if p.Completed.Set {
		out["completed"] = p.Completed.Value
	}
	return json.Marshal(out)
}

// Apply merges the supplied fields of p into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
}

// StringPtr is a helper for optional text fields.
func StringPtr(s string) *string {
	return &s
}
