package tui

import (
	"fmt"
	"strings"

	"github.com/taskdeck/cli/internal/model"
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("taskdeck · %s  [filter: %s]", m.User.DisplayName(), m.Tasks.Filter().Completion))
	if term := m.Tasks.Filter().Search; term != "" && m.mode != modeSearch {
		b.WriteString(fmt.Sprintf("  [search: %s]", term))
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modeSearch:
		b.WriteString("search: " + m.input + "█\n\n")
	case modeAdd:
		b.WriteString("new task: " + m.input + "█\n\n")
	}

	if len(m.items) == 0 {
		b.WriteString("  All clear! No tasks.\n")
	}
	for i, t := range m.items {
		b.WriteString(renderTask(t, i == m.cursor))
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString("! " + m.status + "\n")
	}
	b.WriteString("space toggle · d delete · a add · / search · f filter · r refresh · q quit\n")

	return b.String()
}

func renderTask(t model.Task, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	mark := "[ ]"
	if t.IsCompleted {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s%s #%-4d %s", cursor, mark, t.ID, t.Title)
	if t.Description != nil && *t.Description != "" {
		line += "  · " + *t.Description
	}
	return line + "\n"
}
