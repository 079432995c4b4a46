package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskmanager/internal/db/models"
	"taskmanager/internal/logger"
	"taskmanager/internal/view"
)

type memAPI struct {
	tasks  []models.Task
	nextID int64
	err    error
}

func (a *memAPI) List(context.Context) ([]models.Task, error) {
	if a.err != nil {
		return nil, a.err
	}
	return append([]models.Task(nil), a.tasks...), nil
}

func (a *memAPI) Create(_ context.Context, title string, description *string) (*models.Task, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.nextID++
	t := models.Task{ID: a.nextID, Title: title, Description: description}
	a.tasks = append(a.tasks, t)
	return &t, nil
}

func (a *memAPI) Update(_ context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if a.err != nil {
		return nil, a.err
	}
	for i := range a.tasks {
		if a.tasks[i].ID == id {
			patch.Apply(&a.tasks[i])
			t := a.tasks[i]
			return &t, nil
		}
	}
	return nil, errors.New("task not found")
}

func (a *memAPI) Delete(_ context.Context, id int64) error {
	if a.err != nil {
		return a.err
	}
	for i := range a.tasks {
		if a.tasks[i].ID == id {
			a.tasks = append(a.tasks[:i], a.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("task not found")
}

// press feeds a key to the model and runs any command it returns.
func press(t *testing.T, m *Model, key tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(key)
	drain(m, cmd)
}

func drain(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(doneMsg); !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	for _, r := range s {
		if r == ' ' {
			press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, api *memAPI) *Model {
	t.Helper()
	m := NewModel(context.Background(), view.New(api), logger.Discard())
	drain(m, m.Init())
	return m
}

func TestModel_AddToggleDelete(t *testing.T) {
	api := &memAPI{}
	m := newTestModel(t, api)

	if !strings.Contains(m.View(), "No tasks yet") {
		t.Fatalf("empty view:\n%s", m.View())
	}

	press(t, m, runes("a"))
	typeText(t, m, "Buy milk")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(api.tasks) != 1 || api.tasks[0].Title != "Buy milk" {
		t.Fatalf("tasks=%+v", api.tasks)
	}
	if m.focus != focusList || m.title.Value() != "" {
		t.Fatalf("form not reset: focus=%d title=%q", m.focus, m.title.Value())
	}
	if !strings.Contains(m.View(), "1 total, 0 completed") {
		t.Fatalf("view:\n%s", m.View())
	}

	press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !api.tasks[0].Completed {
		t.Fatal("toggle did not complete the task")
	}

	press(t, m, runes("d"))
	if !strings.Contains(m.View(), "(y/n)") {
		t.Fatalf("no confirmation prompt:\n%s", m.View())
	}
	press(t, m, runes("n"))
	if len(api.tasks) != 1 {
		t.Fatal("delete happened without confirmation")
	}

	press(t, m, runes("d"))
	press(t, m, runes("y"))
	if len(api.tasks) != 0 {
		t.Fatalf("tasks=%+v", api.tasks)
	}
}

func TestModel_EditAndCancel(t *testing.T) {
	api := &memAPI{nextID: 1, tasks: []models.Task{{ID: 1, Title: "Old"}}}
	m := newTestModel(t, api)

	press(t, m, runes("e"))
	if m.title.Value() != "Old" || !strings.Contains(m.View(), "Edit task") {
		t.Fatalf("edit not started:\n%s", m.View())
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != focusList || m.state.Mode() != view.Loaded {
		t.Fatalf("cancel: focus=%d mode=%s", m.focus, m.state.Mode())
	}

	press(t, m, runes("e"))
	for range "Old" {
		press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	typeText(t, m, "New")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if api.tasks[0].Title != "New" {
		t.Fatalf("title=%q", api.tasks[0].Title)
	}
}

func TestModel_FieldEditingKeys(t *testing.T) {
	api := &memAPI{}
	m := newTestModel(t, api)

	press(t, m, runes("a"))
	typeText(t, m, "milk")
	press(t, m, tea.KeyMsg{Type: tea.KeyHome})
	typeText(t, m, "Buy ")
	if got := m.state.DraftTitle; got != "Buy milk" {
		t.Fatalf("draft title=%q", got)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(t, m, "two litres")
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	typeText(t, m, "bottles")
	if got := m.description.Value(); got != "two bottles" {
		t.Fatalf("description=%q", got)
	}
	if m.title.Focused() || !m.description.Focused() {
		t.Fatal("focus did not move to the description field")
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(api.tasks) != 1 || api.tasks[0].Title != "Buy milk" {
		t.Fatalf("tasks=%+v", api.tasks)
	}
	if d := api.tasks[0].Description; d == nil || *d != "two bottles" {
		t.Fatalf("description=%v", d)
	}
}

func TestModel_SaveFailureKeepsForm(t *testing.T) {
	api := &memAPI{}
	m := newTestModel(t, api)

	press(t, m, runes("a"))
	typeText(t, m, "Later")
	api.err = errors.New("server down")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.focus != focusTitle || m.title.Value() != "Later" {
		t.Fatalf("focus=%d title=%q", m.focus, m.title.Value())
	}
	if !strings.Contains(m.View(), "Failed to save task: server down") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestModel_LoadFailure(t *testing.T) {
	m := newTestModel(t, &memAPI{err: errors.New("refused")})

	out := m.View()
	if !strings.Contains(out, "Failed to connect to API") || !strings.Contains(out, "Press r to retry") {
		t.Fatalf("view:\n%s", out)
	}
}
