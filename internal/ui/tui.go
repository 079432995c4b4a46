// Package ui is the terminal front end of the task list.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/db/models"
	"taskmanager/internal/view"
)

type focus int

const (
	focusList focus = iota
	focusTitle
	focusDescription
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	countStyle   = lipgloss.NewStyle().Faint(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	activeField  = lipgloss.NewStyle().Underline(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, v *view.View, log *logrus.Logger) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("ui requires a TTY")
	}
	program := tea.NewProgram(NewModel(ctx, v, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type Model struct {
	ctx  context.Context
	view *view.View
	log  *logrus.Logger

	state       view.State
	cursor      int
	focus       focus
	title       textinput.Model
	description textinput.Model
	busy        bool
	notice      string
}

// doneMsg is sent when a view operation finishes.
type doneMsg struct {
	action string
	err    error
}

func NewModel(ctx context.Context, v *view.View, log *logrus.Logger) *Model {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Model{
		ctx:         ctx,
		view:        v,
		log:         log,
		state:       v.State(),
		title:       newInput("What needs doing?"),
		description: newInput("optional"),
	}
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (m *Model) Init() tea.Cmd {
	m.busy = true
	return m.run("load", m.view.Load)
}

func (m *Model) run(action string, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{action: action, err: op(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.busy = false
		m.notice = ""
		if errors.Is(msg.err, view.ErrBusy) {
			m.notice = "Still saving, try again in a moment"
		} else if msg.err != nil {
			m.log.WithError(msg.err).WithField("action", msg.action).Warn("task action failed")
			if msg.action == "save" {
				m.setFocus(focusTitle)
			}
		}
		m.sync()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.PendingDeleteID != 0 {
			return m.updateConfirm(msg)
		}
		if m.focus != focusList {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	if m.focus != focusList {
		// paste results and other widget messages
		return m.updateInput(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
	case "r":
		m.busy = true
		return m, m.run("load", m.view.Load)
	case "a", "n":
		m.setFocus(focusTitle)
	case "e":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.view.Edit(t.ID); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.sync()
		m.setFocus(focusTitle)
	case " ", "x":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.run("toggle", func(ctx context.Context) error { return m.view.Toggle(ctx, t.ID) })
	case "d":
		if t, ok := m.selected(); ok {
			_ = m.view.RequestDelete(t.ID)
			m.sync()
		}
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.busy = true
		return m, m.run("delete", m.view.ConfirmDelete)
	default:
		m.view.CancelDelete()
		m.sync()
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.view.Cancel()
		m.setFocus(focusList)
		m.sync()
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		if m.focus == focusTitle {
			m.setFocus(focusDescription)
		} else {
			m.setFocus(focusTitle)
		}
		return m, nil
	case tea.KeyEnter:
		if !m.state.CanSubmit() {
			return m, nil
		}
		m.busy = true
		m.setFocus(focusList)
		return m, m.run("save", m.view.Submit)
	}
	return m.updateInput(msg)
}

// updateInput hands msg to the focused field and copies both fields into the draft.
func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	m.view.SetDraft(m.title.Value(), m.description.Value())
	m.state = m.view.State()
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusDescription:
		m.description.Focus()
	}
}

// sync pulls the latest view state into the model.
func (m *Model) sync() {
	m.state = m.view.State()
	m.title.SetValue(m.state.DraftTitle)
	m.description.SetValue(m.state.DraftDescription)
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return models.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

func (m *Model) View() string {
	var b strings.Builder
	st := m.state

	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString(countStyle.Render(fmt.Sprintf("  %d total, %d completed", st.Total(), st.Completed())))
	b.WriteString("\n\n")

	writeForm(&b, m)

	if st.Error != "" {
		b.WriteString(errorStyle.Render(st.Error) + "\n\n")
	}
	if m.notice != "" {
		b.WriteString(confirmStyle.Render(m.notice) + "\n\n")
	}

	switch {
	case m.busy && len(st.Tasks) == 0:
		b.WriteString("Loading...\n\n")
	case st.Mode() == view.LoadError:
		b.WriteString("Press r to retry.\n\n")
	case len(st.Tasks) == 0:
		b.WriteString("No tasks yet. Press a to add one.\n\n")
	default:
		writeTasks(&b, m)
	}

	if st.PendingDeleteID != 0 {
		if t, ok := findTask(st.Tasks, st.PendingDeleteID); ok {
			b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", t.Title)) + "\n\n")
		}
	}

	writeHelp(&b, m.focus)
	return b.String()
}

func writeForm(b *strings.Builder, m *Model) {
	header := "Add task"
	if m.state.Mode() == view.Editing {
		header = "Edit task"
	}
	if m.focus == focusList && m.state.Mode() != view.Editing {
		return
	}
	b.WriteString(header + "\n")

	titleLabel, descLabel := "Title:      ", "Description:"
	switch m.focus {
	case focusTitle:
		titleLabel = activeField.Render(titleLabel)
	case focusDescription:
		descLabel = activeField.Render(descLabel)
	}
	b.WriteString("  " + titleLabel + " " + m.title.View() + "\n")
	b.WriteString("  " + descLabel + " " + m.description.View() + "\n")
	if m.busy {
		b.WriteString("  Saving...\n")
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, m *Model) {
	for i, t := range m.state.Tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s", check, t.Title)
		if t.Description != nil && *t.Description != "" {
			line += countStyle.Render(" - " + *t.Description)
		}
		if t.Completed {
			line = doneStyle.Render(line)
		}
		line += countStyle.Render("  " + t.CreatedAt.Local().Format("2006-01-02 15:04"))

		if i == m.cursor && m.focus == focusList {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder, f focus) {
	if f == focusList {
		b.WriteString(helpStyle.Render("a add | e edit | space toggle | d delete | r reload | q quit"))
	} else {
		b.WriteString(helpStyle.Render("enter save | tab switch field | esc cancel"))
	}
	b.WriteString("\n")
}

func findTask(tasks []models.Task, id int64) (models.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
