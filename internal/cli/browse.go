package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/taskdeck/cli/internal/tui"
)

func newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse tasks interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			m := tui.New(a.session.CurrentUser(), a.tasks)
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("failed to run UI: %w", err)
			}
			return nil
		},
	}
}
