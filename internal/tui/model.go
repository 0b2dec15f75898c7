// Interactive terminal view. Strictly presentational: every intent is routed
// to the task synchronizer, and the model renders whatever snapshot the
// services hand back.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/cli/internal/model"
	"github.com/taskdeck/cli/internal/service"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
)

type Model struct {
	User  *model.User
	Tasks *service.TaskService

	items  []model.Task
	cursor int
	mode   mode
	input  string
	status string
	width  int
	height int

	refreshed chan refreshMsg
}

type refreshMsg struct {
	tasks []model.Task
	err   error
}

type mutatedMsg struct {
	tasks []model.Task
	err   error
}

func New(user *model.User, tasks *service.TaskService) *Model {
	m := &Model{
		User:      user,
		Tasks:     tasks,
		refreshed: make(chan refreshMsg, 1),
	}

	// Debounced refetches land on the bubbletea loop as messages.
	tasks.OnRefresh = func(items []model.Task, err error) {
		select {
		case m.refreshed <- refreshMsg{tasks: items, err: err}:
		default:
		}
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshNow(), m.waitForRefresh())
}

func (m *Model) refreshNow() tea.Cmd {
	return func() tea.Msg {
		err := m.Tasks.Refresh(context.Background())
		return refreshMsg{tasks: m.Tasks.Tasks(), err: err}
	}
}

func (m *Model) waitForRefresh() tea.Cmd {
	return func() tea.Msg {
		return <-m.refreshed
	}
}

func (m *Model) toggleCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_, err := m.Tasks.ToggleComplete(context.Background(), id)
		return mutatedMsg{tasks: m.Tasks.Tasks(), err: err}
	}
}

func (m *Model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_, err := m.Tasks.Delete(context.Background(), id)
		return mutatedMsg{tasks: m.Tasks.Tasks(), err: err}
	}
}

func (m *Model) createCmd(title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.Tasks.Create(context.Background(), title, "")
		return mutatedMsg{tasks: m.Tasks.Tasks(), err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.applySnapshot(msg.tasks, msg.err)
		// Keep listening for the next debounced refetch.
		return m, m.waitForRefresh()

	case mutatedMsg:
		m.applySnapshot(msg.tasks, msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) applySnapshot(tasks []model.Task, err error) {
	m.items = tasks
	if err != nil {
		m.status = service.UserMessage(err)
	} else {
		m.status = ""
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.Tasks.Close()
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeAdd:
		return m.handleAddKey(msg)
	}

	switch msg.String() {
	case "q":
		m.Tasks.Close()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		if m.cursor < len(m.items) {
			return m, m.toggleCmd(m.items[m.cursor].ID)
		}
	case "d":
		if m.cursor < len(m.items) {
			return m, m.deleteCmd(m.items[m.cursor].ID)
		}
	case "a":
		m.mode = modeAdd
		m.input = ""
	case "/":
		m.mode = modeSearch
		m.input = m.Tasks.Filter().Search
	case "f":
		m.Tasks.SetCompletion(nextCompletion(m.Tasks.Filter().Completion))
	case "r":
		return m, m.refreshNow()
	}

	return m, nil
}

// handleSearchKey feeds every keystroke straight into the synchronizer's
// debounced search; the refetch fires only after the typing pause.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.Tasks.Flush()
	case tea.KeyEsc:
		m.mode = modeList
		m.input = ""
		m.Tasks.SetSearch("")
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
			m.Tasks.SetSearch(m.input)
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
		m.Tasks.SetSearch(m.input)
	}
	return m, nil
}

func (m *Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		title := m.input
		m.mode = modeList
		m.input = ""
		if title != "" {
			return m, m.createCmd(title)
		}
	case tea.KeyEsc:
		m.mode = modeList
		m.input = ""
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func nextCompletion(c model.Completion) model.Completion {
	switch c {
	case model.CompletionAll:
		return model.CompletionPending
	case model.CompletionPending:
		return model.CompletionCompleted
	default:
		return model.CompletionAll
	}
}
