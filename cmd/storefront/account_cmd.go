package main

import (
	"fmt"

	"github.com/fjod/techmart/internal/account"
	"github.com/spf13/cobra"
)

func newAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Log in, register and inspect the current user",
	}

	login := &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Start a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				u, err := a.accounts.Login(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return a.accounts.Logout(cmd.Context())
			})
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				u, ok := a.accounts.CurrentUser(cmd.Context())
				if !ok {
					return account.ErrNotAuthenticated
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}

	var reg account.Registration
	register := &cobra.Command{
		Use:   "register",
		Short: "Create a user and log in as it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				u, err := a.accounts.Register(cmd.Context(), reg)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", u.Email, u.ID)
				return err
			})
		},
	}
	register.Flags().StringVar(&reg.Name, "name", "", "display name")
	register.Flags().StringVar(&reg.Email, "email", "", "email address")
	register.Flags().StringVar(&reg.Password, "password", "", "password, at least 6 characters")
	register.Flags().StringVar(&reg.Phone, "phone", "", "phone number")

	cmd.AddCommand(login, logout, whoami, register)
	return cmd
}
