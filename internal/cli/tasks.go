package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskdeck/cli/internal/model"
)

func newListCommand() *cobra.Command {
	var (
		pending   bool
		completed bool
		search    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			filtered := pending || completed || search != ""
			switch {
			case pending:
				a.tasks.SetCompletion(model.CompletionPending)
			case completed:
				a.tasks.SetCompletion(model.CompletionCompleted)
			}
			if search != "" {
				a.tasks.SetSearch(search)
			}
			a.tasks.Close() // one-shot: skip the debounced scheduling

			if err := a.tasks.Refresh(cmd.Context()); err != nil {
				return err
			}

			tasks := a.tasks.Tasks()
			if len(tasks) == 0 {
				fmt.Println("All clear! No tasks.")
				return nil
			}

			// The unfiltered view keeps the legacy completed-last order;
			// filtered views show the server's order untouched.
			if !filtered {
				model.SortCompletedLast(tasks)
			}
			for _, t := range tasks {
				printTask(t)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "only tasks not yet completed")
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed tasks")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search term")
	return cmd
}

func newAddCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			res, err := a.tasks.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}

			fmt.Printf("Added #%d %s\n", res.Task.ID, res.Task.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "desc", "d", "", "task description")
	return cmd
}

func newEditCommand() *cobra.Command {
	var (
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var titlePtr, descPtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			if cmd.Flags().Changed("desc") {
				descPtr = &description
			}
			if titlePtr == nil && descPtr == nil {
				return fmt.Errorf("nothing to change; pass --title or --desc")
			}

			res, err := a.tasks.Update(cmd.Context(), id, titlePtr, descPtr)
			if err != nil {
				return err
			}

			fmt.Printf("Updated #%d %s\n", res.Task.ID, res.Task.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "new description")
	return cmd
}

func newDoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.tasks.Refresh(cmd.Context()); err != nil {
				return err
			}
			res, err := a.tasks.ToggleComplete(cmd.Context(), id)
			if err != nil {
				return err
			}

			if res.Task != nil && res.Task.IsCompleted {
				fmt.Printf("Done: #%d\n", id)
			} else {
				fmt.Printf("Reopened: #%d\n", id)
			}
			return nil
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.tasks.Refresh(cmd.Context()); err != nil {
				return err
			}
			if _, err := a.tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Printf("Deleted #%d\n", id)
			return nil
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func printTask(t model.Task) {
	mark := "[ ]"
	if t.IsCompleted {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s #%-4d %s", mark, t.ID, t.Title)
	if t.Description != nil && *t.Description != "" {
		line += "  - " + *t.Description
	}
	fmt.Println(line)
}
