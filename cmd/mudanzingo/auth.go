package main

import (
	"context"
	"fmt"

	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/spf13/cobra"
)

// addAuthCommands adds the sign-in commands.
func (cli *ViperCLI) addAuthCommands() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the back office",
		Long: `Sign in through the hosted login page.

  1. mudanzingo auth login            # prints the URL to open
  2. sign in with the browser
  3. mudanzingo auth callback <url>   # paste the URL the browser was sent to`,
	}

	authCmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Print the sign-in URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.withApp(cmd, "start sign-in", func(ctx context.Context, app *mudanzingo.App) error {
					u, err := app.Auth.SignInURL(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), u)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "callback <redirect-url>",
			Short: "Finish signing in with the URL the browser was redirected to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.withApp(cmd, "complete sign-in", func(ctx context.Context, app *mudanzingo.App) error {
					if _, err := app.Auth.CompleteSignIn(ctx, args[0]); err != nil {
						return err
					}
					user, err := app.Auth.CurrentUser(ctx)
					if err != nil {
						fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", user.Username)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.withApp(cmd, "get current user", func(ctx context.Context, app *mudanzingo.App) error {
					user, err := app.Auth.CurrentUser(ctx)
					if err != nil {
						return err
					}
					if cli.format() == formatTable {
						fmt.Fprintln(cmd.OutOrStdout(), user.Username)
						return nil
					}
					return writeValue(cmd.OutOrStdout(), cli.format(), user)
				})
			},
		},
		&cobra.Command{
			Use:   "token",
			Short: "Print the access token of the current session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.withApp(cmd, "get access token", func(ctx context.Context, app *mudanzingo.App) error {
					token, err := app.Auth.AccessToken(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), token)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.withApp(cmd, "sign out", func(ctx context.Context, app *mudanzingo.App) error {
					u, err := app.Auth.SignOut(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
					if u != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "To end the hosted session too, open:\n%s\n", u)
					}
					return nil
				})
			},
		},
	)
	cli.rootCmd.AddCommand(authCmd)
}
