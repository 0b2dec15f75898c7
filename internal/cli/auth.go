package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/cli/internal/service"
	"github.com/taskdeck/cli/internal/tokenstore"
)

func newLoginCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			var err error
			if username == "" {
				username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			password, err := promptLine("Password: ")
			if err != nil {
				return err
			}

			user, err := a.session.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("%s", service.UserMessage(err))
			}

			fmt.Printf("Hello, %s!\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	return cmd
}

func newRegisterCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			var err error
			if username == "" {
				username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			password, err := promptLine("Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptLine("Confirm password: ")
			if err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), username, password, confirm); err != nil {
				return fmt.Errorf("%s", service.UserMessage(err))
			}

			fmt.Println("Account created. Log in with `taskdeck login`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			a.session.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			pair, ok, err := a.store.Load()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Not logged in.")
				return nil
			}

			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			user := a.session.CurrentUser()
			fmt.Printf("Logged in as %s (id %d)\n", user.Username, user.ID)

			if info, err := tokenstore.Inspect(pair.Access); err == nil && !info.ExpiresAt.IsZero() {
				fmt.Printf("Token expires %s\n", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
