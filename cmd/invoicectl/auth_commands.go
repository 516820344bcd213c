package main

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	invoiceclient "github.com/jrsteele09/go-invoice-client"
	"github.com/jrsteele09/go-invoice-client/session"
)

func newLoginCommand(app *invoiceclient.App) *cobra.Command {
	var credentials session.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := app.Sessions.Login(cmd.Context(), credentials)
			if err != nil {
				return err
			}

			if profile, err := current.Profile(); err == nil && profile.Name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", profile.Name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed in")
			return nil
		},
	}

	cmd.Flags().StringVar(&credentials.Email, "email", "", "account email")
	cmd.Flags().StringVar(&credentials.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand(app *invoiceclient.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			app.Sessions.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		},
	}
}

func newWhoamiCommand(app *invoiceclient.App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Sessions.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}

			current := app.Sessions.Current()
			if profile, err := current.Profile(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "name:  %s\n", profile.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "email: %s\n", profile.Email)
			}
			printTokenDetails(cmd, current.AccessToken)
			return nil
		},
	}
}

// printTokenDetails shows claims from a JWT-shaped access token without
// validating it. Opaque tokens are skipped silently.
func printTokenDetails(cmd *cobra.Command, accessToken string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return
	}
	if subject, err := claims.GetSubject(); err == nil && subject != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "subject: %s\n", subject)
	}
	if expiry, err := claims.GetExpirationTime(); err == nil && expiry != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "token expires: %s\n", expiry.Time.Format("2006-01-02 15:04:05"))
	}
}
