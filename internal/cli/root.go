// Command-line view layer. Every command builds the same stack — config,
// token store, API client, services — runs one intent against it, and prints
// either the result or the short user-facing classification of the error.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/cli/internal/client"
	"github.com/taskdeck/cli/internal/config"
	"github.com/taskdeck/cli/internal/service"
	"github.com/taskdeck/cli/internal/tokenstore"
)

type app struct {
	cfg     config.Config
	store   *tokenstore.Store
	api     *client.Client
	session *service.SessionService
	tasks   *service.TaskService
}

func newApp() *app {
	cfg := config.Load()
	store := tokenstore.New(cfg.Store.Dir)
	api := client.New(cfg.API, store)

	return &app{
		cfg:     cfg,
		store:   store,
		api:     api,
		session: service.NewSessionService(api, store),
		tasks:   service.NewTaskService(api, cfg.Sync.SearchDebounce),
	}
}

// requireAuth bootstraps the session and fails when it lands anonymous.
func (a *app) requireAuth(ctx context.Context) error {
	if a.session.Bootstrap(ctx) != service.StateAuthenticated {
		return fmt.Errorf("not logged in; run `taskdeck login` first")
	}
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Terminal client for your todo list",
		Long:          "taskdeck talks to a todo REST backend: account registration, login, and task management from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newListCommand(),
		newAddCommand(),
		newEditCommand(),
		newDoneCommand(),
		newRemoveCommand(),
		newBrowseCommand(),
	)

	return root
}

// Execute runs the root command and maps failures onto a non-zero exit.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
